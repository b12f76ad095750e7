// Package schema defines the JSON interchange format for routine trees and
// the translation to and from the data model. Symbolic sizes and values
// serialize as strings, constants as native numbers; the declared order of
// the children array is the routine's children_order.
package schema

import (
	"encoding/json"
	"fmt"
)

// Scalar is a JSON value that is either a number (constant) or a string
// (symbolic expression).
type Scalar struct {
	Str   string
	Num   float64
	IsNum bool
}

// NumberScalar returns a numeric scalar.
func NumberScalar(v float64) Scalar { return Scalar{Num: v, IsNum: true} }

// StringScalar returns a symbolic scalar.
func StringScalar(s string) Scalar { return Scalar{Str: s} }

// Raw returns the value to hand to a backend's AsExpression.
func (s Scalar) Raw() any {
	if s.IsNum {
		return s.Num
	}
	return s.Str
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.IsNum {
		return json.Marshal(s.Num)
	}
	return json.Marshal(s.Str)
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = NumberScalar(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = StringScalar(str)
		return nil
	}
	return fmt.Errorf("scalar must be a number or a string, got %s", string(data))
}

// Port is the interchange form of a port. A nil Size means "derive from
// context".
type Port struct {
	Name      string  `json:"name"`
	Direction string  `json:"direction"`
	Size      *Scalar `json:"size,omitempty"`
}

// Resource is the interchange form of a resource.
type Resource struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Scalar `json:"value"`
}

// Connection is a directed source -> target wire, both endpoints in
// "port" or "child.port" notation.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LinkedParam forwards a source parameter into descendant input params.
// Each target is "path.param" with the parameter name after the last dot.
type LinkedParam struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// Sequence is the interchange form of a repetition growth law.
type Sequence struct {
	Type           string  `json:"type"`
	Multiplier     *Scalar `json:"multiplier,omitempty"`
	InitialTerm    *Scalar `json:"initial_term,omitempty"`
	Difference     *Scalar `json:"difference,omitempty"`
	Ratio          *Scalar `json:"ratio,omitempty"`
	Sum            *Scalar `json:"sum,omitempty"`
	Prod           *Scalar `json:"prod,omitempty"`
	Term           *Scalar `json:"term,omitempty"`
	NumTermsSymbol string  `json:"num_terms_symbol,omitempty"`
	IteratorSymbol string  `json:"iterator_symbol,omitempty"`
}

// Repetition is the interchange form of a repetition.
type Repetition struct {
	Count    Scalar   `json:"count"`
	Sequence Sequence `json:"sequence"`
}

// Constraint is the interchange form of a compiled constraint. Only
// compiled routines carry constraints; they export so diagnostics survive
// a round trip.
type Constraint struct {
	LHS    Scalar `json:"lhs"`
	RHS    Scalar `json:"rhs"`
	Status string `json:"status"`
}

// Routine is the interchange form of a routine tree.
type Routine struct {
	Name           string            `json:"name"`
	Type           string            `json:"type,omitempty"`
	Children       []Routine         `json:"children,omitempty"`
	Ports          []Port            `json:"ports,omitempty"`
	Resources      []Resource        `json:"resources,omitempty"`
	Connections    []Connection      `json:"connections,omitempty"`
	InputParams    []string          `json:"input_params,omitempty"`
	LocalVariables map[string]string `json:"local_variables,omitempty"`
	LinkedParams   []LinkedParam     `json:"linked_params,omitempty"`
	Repetition     *Repetition       `json:"repetition,omitempty"`
	Constraints    []Constraint      `json:"constraints,omitempty"`
}
