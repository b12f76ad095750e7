package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// ImportJSON parses interchange JSON and decodes it into a validated model
// tree.
func ImportJSON[T any](data []byte, b symbolic.Backend[T]) (*model.Routine[T], error) {
	var s Routine
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing routine JSON: %w", err)
	}
	r, err := Decode(&s, b)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Decode translates an interchange routine into the data model, parsing
// every size and value expression through the backend.
func Decode[T any](s *Routine, b symbolic.Backend[T]) (*model.Routine[T], error) {
	r := &model.Routine[T]{
		Name:        s.Name,
		Type:        s.Type,
		InputParams: append([]string(nil), s.InputParams...),
	}

	if len(s.Children) > 0 {
		r.Children = make(map[string]*model.Routine[T], len(s.Children))
		r.ChildrenOrder = make([]string, 0, len(s.Children))
		for i := range s.Children {
			child, err := Decode(&s.Children[i], b)
			if err != nil {
				return nil, err
			}
			if _, dup := r.Children[child.Name]; dup {
				return nil, fmt.Errorf("routine %q: duplicate child %q", s.Name, child.Name)
			}
			r.Children[child.Name] = child
			r.ChildrenOrder = append(r.ChildrenOrder, child.Name)
		}
	}

	if len(s.Ports) > 0 {
		r.Ports = make(map[string]*model.Port[T], len(s.Ports))
		for _, p := range s.Ports {
			port := &model.Port[T]{Name: p.Name, Direction: model.Direction(p.Direction)}
			if p.Size != nil {
				size, err := b.AsExpression(p.Size.Raw())
				if err != nil {
					return nil, fmt.Errorf("routine %q: size of port %q: %w", s.Name, p.Name, err)
				}
				port.Size = &size
			}
			r.Ports[p.Name] = port
		}
	}

	if len(s.Resources) > 0 {
		r.Resources = make(map[string]*model.Resource[T], len(s.Resources))
		for _, res := range s.Resources {
			value, err := b.AsExpression(res.Value.Raw())
			if err != nil {
				return nil, fmt.Errorf("routine %q: value of resource %q: %w", s.Name, res.Name, err)
			}
			r.Resources[res.Name] = &model.Resource[T]{
				Name:  res.Name,
				Type:  model.ResourceType(res.Type),
				Value: value,
			}
		}
	}

	if len(s.Connections) > 0 {
		r.Connections = make(map[model.Endpoint]model.Endpoint, len(s.Connections))
		for _, c := range s.Connections {
			src, err := model.ParseEndpoint(c.Source)
			if err != nil {
				return nil, fmt.Errorf("routine %q: connection source: %w", s.Name, err)
			}
			dst, err := model.ParseEndpoint(c.Target)
			if err != nil {
				return nil, fmt.Errorf("routine %q: connection target: %w", s.Name, err)
			}
			r.Connections[src] = dst
		}
	}

	if len(s.LocalVariables) > 0 {
		r.LocalVariables = make(map[string]T, len(s.LocalVariables))
		for name, raw := range s.LocalVariables {
			v, err := b.AsExpression(raw)
			if err != nil {
				return nil, fmt.Errorf("routine %q: local variable %q: %w", s.Name, name, err)
			}
			r.LocalVariables[name] = v
		}
	}

	if len(s.LinkedParams) > 0 {
		r.LinkedParams = make(map[string][]model.LinkTarget, len(s.LinkedParams))
		for _, lp := range s.LinkedParams {
			for _, raw := range lp.Targets {
				tgt, err := parseLinkTarget(raw)
				if err != nil {
					return nil, fmt.Errorf("routine %q: linked param %q: %w", s.Name, lp.Source, err)
				}
				r.LinkedParams[lp.Source] = append(r.LinkedParams[lp.Source], tgt)
			}
		}
	}

	if s.Repetition != nil {
		rep, err := decodeRepetition(s.Repetition, b)
		if err != nil {
			return nil, fmt.Errorf("routine %q: %w", s.Name, err)
		}
		r.Repetition = rep
	}

	if len(s.Constraints) > 0 {
		r.Constraints = make([]model.Constraint[T], 0, len(s.Constraints))
		for _, c := range s.Constraints {
			lhs, err := b.AsExpression(c.LHS.Raw())
			if err != nil {
				return nil, fmt.Errorf("routine %q: constraint lhs: %w", s.Name, err)
			}
			rhs, err := b.AsExpression(c.RHS.Raw())
			if err != nil {
				return nil, fmt.Errorf("routine %q: constraint rhs: %w", s.Name, err)
			}
			status := model.ConstraintStatus(c.Status)
			if status == "" {
				status = model.Inconclusive
			}
			r.Constraints = append(r.Constraints, model.Constraint[T]{LHS: lhs, RHS: rhs, Status: status})
		}
	}

	return r, nil
}

// parseLinkTarget splits "path.param" at the last dot, so a dotted path to
// a grandchild keeps its full depth.
func parseLinkTarget(raw string) (model.LinkTarget, error) {
	idx := strings.LastIndex(raw, ".")
	if idx <= 0 || idx == len(raw)-1 {
		return model.LinkTarget{}, fmt.Errorf("malformed link target %q: want \"path.param\"", raw)
	}
	return model.LinkTarget{Path: raw[:idx], Param: raw[idx+1:]}, nil
}

func decodeRepetition[T any](s *Repetition, b symbolic.Backend[T]) (*model.Repetition[T], error) {
	count, err := b.AsExpression(s.Count.Raw())
	if err != nil {
		return nil, fmt.Errorf("repetition count: %w", err)
	}
	seq, err := decodeSequence(&s.Sequence, b)
	if err != nil {
		return nil, err
	}
	return &model.Repetition[T]{Count: count, Sequence: seq}, nil
}

func decodeSequence[T any](s *Sequence, b symbolic.Backend[T]) (model.Sequence[T], error) {
	scalar := func(field string, sc *Scalar, fallback float64) (T, error) {
		if sc == nil {
			return b.AsExpression(fallback)
		}
		v, err := b.AsExpression(sc.Raw())
		if err != nil {
			return v, fmt.Errorf("sequence %s: %w", field, err)
		}
		return v, nil
	}
	switch s.Type {
	case "constant":
		mult, err := scalar("multiplier", s.Multiplier, 1)
		if err != nil {
			return nil, err
		}
		return model.ConstantSequence[T]{Multiplier: mult}, nil
	case "arithmetic":
		initial, err := scalar("initial_term", s.InitialTerm, 0)
		if err != nil {
			return nil, err
		}
		diff, err := scalar("difference", s.Difference, 1)
		if err != nil {
			return nil, err
		}
		return model.ArithmeticSequence[T]{InitialTerm: initial, Difference: diff}, nil
	case "geometric":
		ratio, err := scalar("ratio", s.Ratio, 1)
		if err != nil {
			return nil, err
		}
		return model.GeometricSequence[T]{Ratio: ratio}, nil
	case "closed_form":
		if s.NumTermsSymbol == "" {
			return nil, fmt.Errorf("closed_form sequence requires num_terms_symbol")
		}
		out := model.ClosedFormSequence[T]{NumTermsSymbol: s.NumTermsSymbol}
		if s.Sum != nil {
			v, err := scalar("sum", s.Sum, 0)
			if err != nil {
				return nil, err
			}
			out.Sum = &v
		}
		if s.Prod != nil {
			v, err := scalar("prod", s.Prod, 0)
			if err != nil {
				return nil, err
			}
			out.Prod = &v
		}
		return out, nil
	case "custom":
		if s.IteratorSymbol == "" {
			return nil, fmt.Errorf("custom sequence requires iterator_symbol")
		}
		term, err := scalar("term", s.Term, 0)
		if err != nil {
			return nil, err
		}
		return model.CustomSequence[T]{Term: term, IteratorSymbol: s.IteratorSymbol}, nil
	default:
		return nil, fmt.Errorf("unknown sequence type %q", s.Type)
	}
}
