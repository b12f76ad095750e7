package schema

import (
	"encoding/json"
	"fmt"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// ExportJSON encodes a model tree as indented interchange JSON.
func ExportJSON[T any](r *model.Routine[T], b symbolic.Backend[T]) ([]byte, error) {
	s, err := Encode(r, b)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}

// Encode translates a model routine back into the interchange form.
// Fully-constant expressions export as native numbers, everything else as
// serialized strings.
func Encode[T any](r *model.Routine[T], b symbolic.Backend[T]) (*Routine, error) {
	s := &Routine{
		Name:        r.Name,
		Type:        r.Type,
		InputParams: append([]string(nil), r.InputParams...),
	}

	for _, name := range r.ChildrenOrder {
		child, err := Encode(r.Children[name], b)
		if err != nil {
			return nil, err
		}
		s.Children = append(s.Children, *child)
	}

	for _, name := range r.SortedPortNames() {
		port := r.Ports[name]
		sp := Port{Name: port.Name, Direction: string(port.Direction)}
		if port.Size != nil {
			sc := scalarOf(*port.Size, b)
			sp.Size = &sc
		}
		s.Ports = append(s.Ports, sp)
	}

	for _, name := range r.SortedResourceNames() {
		res := r.Resources[name]
		s.Resources = append(s.Resources, Resource{
			Name:  res.Name,
			Type:  string(res.Type),
			Value: scalarOf(res.Value, b),
		})
	}

	for _, src := range r.SortedConnections() {
		s.Connections = append(s.Connections, Connection{
			Source: src.String(),
			Target: r.Connections[src].String(),
		})
	}

	if len(r.LocalVariables) > 0 {
		s.LocalVariables = make(map[string]string, len(r.LocalVariables))
		for _, name := range r.SortedLocalVariableNames() {
			s.LocalVariables[name] = b.Serialize(r.LocalVariables[name])
		}
	}

	for _, src := range r.SortedLinkSources() {
		lp := LinkedParam{Source: src}
		for _, tgt := range r.LinkedParams[src] {
			lp.Targets = append(lp.Targets, tgt.Path+"."+tgt.Param)
		}
		s.LinkedParams = append(s.LinkedParams, lp)
	}

	if r.Repetition != nil {
		rep, err := encodeRepetition(r.Repetition, b)
		if err != nil {
			return nil, fmt.Errorf("routine %q: %w", r.Name, err)
		}
		s.Repetition = rep
	}

	for _, c := range r.Constraints {
		s.Constraints = append(s.Constraints, Constraint{
			LHS:    scalarOf(c.LHS, b),
			RHS:    scalarOf(c.RHS, b),
			Status: string(c.Status),
		})
	}

	return s, nil
}

func scalarOf[T any](e T, b symbolic.Backend[T]) Scalar {
	if v, ok := b.Value(e); ok {
		return NumberScalar(v)
	}
	return StringScalar(b.Serialize(e))
}

func encodeRepetition[T any](rep *model.Repetition[T], b symbolic.Backend[T]) (*Repetition, error) {
	out := &Repetition{Count: scalarOf(rep.Count, b)}
	ptr := func(e T) *Scalar {
		sc := scalarOf(e, b)
		return &sc
	}
	switch seq := rep.Sequence.(type) {
	case model.ConstantSequence[T]:
		out.Sequence = Sequence{Type: seq.Kind(), Multiplier: ptr(seq.Multiplier)}
	case model.ArithmeticSequence[T]:
		out.Sequence = Sequence{Type: seq.Kind(), InitialTerm: ptr(seq.InitialTerm), Difference: ptr(seq.Difference)}
	case model.GeometricSequence[T]:
		out.Sequence = Sequence{Type: seq.Kind(), Ratio: ptr(seq.Ratio)}
	case model.ClosedFormSequence[T]:
		out.Sequence = Sequence{Type: seq.Kind(), NumTermsSymbol: seq.NumTermsSymbol}
		if seq.Sum != nil {
			out.Sequence.Sum = ptr(*seq.Sum)
		}
		if seq.Prod != nil {
			out.Sequence.Prod = ptr(*seq.Prod)
		}
	case model.CustomSequence[T]:
		out.Sequence = Sequence{Type: seq.Kind(), Term: ptr(seq.Term), IteratorSymbol: seq.IteratorSymbol}
	default:
		return nil, fmt.Errorf("unknown sequence kind %T", rep.Sequence)
	}
	return out, nil
}
