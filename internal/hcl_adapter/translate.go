package hcl_adapter

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/vk/qresgo/internal/schema"
)

// translateRoutine converts a decoded routine block into the interchange
// schema. Expression strings pass through untouched; the schema decoder
// parses them with the active backend.
func translateRoutine(b *routineBlock) (*schema.Routine, error) {
	r := &schema.Routine{
		Name:        b.Name,
		Type:        b.Type,
		InputParams: append([]string(nil), b.InputParams...),
	}

	for _, child := range b.Children {
		translated, err := translateRoutine(child)
		if err != nil {
			return nil, err
		}
		r.Children = append(r.Children, *translated)
	}

	for _, port := range b.Ports {
		sp := schema.Port{Name: port.Name, Direction: port.Direction}
		size, err := translateScalar(port.Size)
		if err != nil {
			return nil, fmt.Errorf("routine %q: size of port %q: %w", b.Name, port.Name, err)
		}
		sp.Size = size
		r.Ports = append(r.Ports, sp)
	}

	for _, res := range b.Resources {
		value, err := translateScalar(res.Value)
		if err != nil {
			return nil, fmt.Errorf("routine %q: value of resource %q: %w", b.Name, res.Name, err)
		}
		if value == nil {
			return nil, fmt.Errorf("routine %q: resource %q has no value", b.Name, res.Name)
		}
		r.Resources = append(r.Resources, schema.Resource{Name: res.Name, Type: res.Type, Value: *value})
	}

	for _, src := range sortedKeys(b.Connections) {
		r.Connections = append(r.Connections, schema.Connection{Source: src, Target: b.Connections[src]})
	}

	if len(b.LocalVariables) > 0 {
		r.LocalVariables = make(map[string]string, len(b.LocalVariables))
		for name, v := range b.LocalVariables {
			sc, err := translateScalar(v)
			if err != nil {
				return nil, fmt.Errorf("routine %q: local variable %q: %w", b.Name, name, err)
			}
			r.LocalVariables[name] = scalarString(*sc)
		}
	}

	for _, src := range sortedKeys(b.LinkedParams) {
		r.LinkedParams = append(r.LinkedParams, schema.LinkedParam{
			Source:  src,
			Targets: append([]string(nil), b.LinkedParams[src]...),
		})
	}

	if b.Repetition != nil {
		rep, err := translateRepetition(b.Repetition)
		if err != nil {
			return nil, fmt.Errorf("routine %q: %w", b.Name, err)
		}
		r.Repetition = rep
	}

	return r, nil
}

func translateRepetition(b *repetitionBlock) (*schema.Repetition, error) {
	count, err := translateScalar(b.Count)
	if err != nil {
		return nil, fmt.Errorf("repetition count: %w", err)
	}
	if count == nil {
		return nil, fmt.Errorf("repetition requires a count")
	}
	if b.Sequence == nil {
		return nil, fmt.Errorf("repetition requires a sequence block")
	}
	seq := schema.Sequence{
		Type:           b.Sequence.Type,
		NumTermsSymbol: b.Sequence.NumTermsSymbol,
		IteratorSymbol: b.Sequence.IteratorSymbol,
	}
	fields := []struct {
		name string
		val  cty.Value
		dst  **schema.Scalar
	}{
		{"multiplier", b.Sequence.Multiplier, &seq.Multiplier},
		{"initial_term", b.Sequence.InitialTerm, &seq.InitialTerm},
		{"difference", b.Sequence.Difference, &seq.Difference},
		{"ratio", b.Sequence.Ratio, &seq.Ratio},
		{"sum", b.Sequence.Sum, &seq.Sum},
		{"prod", b.Sequence.Prod, &seq.Prod},
		{"term", b.Sequence.Term, &seq.Term},
	}
	for _, f := range fields {
		sc, err := translateScalar(f.val)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", f.name, err)
		}
		*f.dst = sc
	}
	return &schema.Repetition{Count: *count, Sequence: seq}, nil
}

// translateScalar maps a cty value to an interchange scalar: numbers stay
// numbers, strings are expression text, an absent attribute is nil.
func translateScalar(v cty.Value) (*schema.Scalar, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		sc := schema.NumberScalar(f)
		return &sc, nil
	case cty.String:
		sc := schema.StringScalar(v.AsString())
		return &sc, nil
	default:
		return nil, fmt.Errorf("want a number or an expression string, got %s", v.Type().FriendlyName())
	}
}

func scalarString(sc schema.Scalar) string {
	if sc.IsNum {
		return fmt.Sprintf("%v", sc.Num)
	}
	return sc.Str
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
