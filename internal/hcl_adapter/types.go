package hcl_adapter

import (
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is a struct used to decode the top-level blocks of a routine file.
type fileRoot struct {
	Routines []*routineBlock `hcl:"routine,block"`
}

// routineBlock mirrors one routine block. Child routine blocks nest directly;
// their declared order in the file becomes the routine's children_order.
type routineBlock struct {
	Name string `hcl:"name,label"`

	Type        string   `hcl:"type,optional"`
	InputParams []string `hcl:"input_params,optional"`

	Ports     []*portBlock     `hcl:"port,block"`
	Resources []*resourceBlock `hcl:"resource,block"`
	Children  []*routineBlock  `hcl:"routine,block"`

	// Connections maps source endpoints to target endpoints, both in
	// "port" or "child.port" notation.
	Connections map[string]string `hcl:"connections,optional"`

	// LocalVariables and sizes accept either numbers or expression strings,
	// so they decode as raw cty values.
	LocalVariables map[string]cty.Value `hcl:"local_variables,optional"`

	// LinkedParams maps a source parameter to "path.param" targets.
	LinkedParams map[string][]string `hcl:"linked_params,optional"`

	Repetition *repetitionBlock `hcl:"repetition,block"`
}

type portBlock struct {
	Name      string    `hcl:"name,label"`
	Direction string    `hcl:"direction"`
	Size      cty.Value `hcl:"size,optional"`
}

type resourceBlock struct {
	Name  string    `hcl:"name,label"`
	Type  string    `hcl:"type"`
	Value cty.Value `hcl:"value"`
}

type repetitionBlock struct {
	Count    cty.Value      `hcl:"count"`
	Sequence *sequenceBlock `hcl:"sequence,block"`
}

type sequenceBlock struct {
	Type string `hcl:"type,label"`

	Multiplier     cty.Value `hcl:"multiplier,optional"`
	InitialTerm    cty.Value `hcl:"initial_term,optional"`
	Difference     cty.Value `hcl:"difference,optional"`
	Ratio          cty.Value `hcl:"ratio,optional"`
	Sum            cty.Value `hcl:"sum,optional"`
	Prod           cty.Value `hcl:"prod,optional"`
	Term           cty.Value `hcl:"term,optional"`
	NumTermsSymbol string    `hcl:"num_terms_symbol,optional"`
	IteratorSymbol string    `hcl:"iterator_symbol,optional"`
}
