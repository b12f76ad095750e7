package hcl_adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/qresgo/internal/schema"
	"github.com/vk/qresgo/internal/testutil"
)

const sampleHCL = `
routine "adder" {
  input_params = ["N"]

  linked_params = {
    N = ["carry.x"]
  }

  local_variables = {
    width = "N + 1"
  }

  port "in_0" {
    direction = "input"
    size      = "N"
  }

  port "out_0" {
    direction = "output"
    size      = "N + 1"
  }

  routine "carry" {
    input_params = ["x"]

    resource "T" {
      type  = "additive"
      value = "4*x"
    }
  }

  routine "lookup" {
    type = "basic"

    resource "T" {
      type  = "additive"
      value = 7
    }
  }

  connections = {
    "in_0" = "carry.in"
  }
}
`

func TestLoadBytes(t *testing.T) {
	t.Parallel()

	r, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(sampleHCL), "adder.hcl")
	require.NoError(t, err)

	assert.Equal(t, "adder", r.Name)
	assert.Equal(t, []string{"N"}, r.InputParams)

	require.Len(t, r.Children, 2, "declared block order is preserved")
	assert.Equal(t, "carry", r.Children[0].Name)
	assert.Equal(t, "lookup", r.Children[1].Name)
	assert.Equal(t, "basic", r.Children[1].Type)

	require.Len(t, r.Ports, 2)
	assert.Equal(t, schema.Port{Name: "in_0", Direction: "input", Size: scalarPtr(schema.StringScalar("N"))}, r.Ports[0])

	require.Len(t, r.Children[1].Resources, 1)
	assert.Equal(t, schema.NumberScalar(7), r.Children[1].Resources[0].Value)

	assert.Equal(t, []schema.Connection{{Source: "in_0", Target: "carry.in"}}, r.Connections)
	assert.Equal(t, []schema.LinkedParam{{Source: "N", Targets: []string{"carry.x"}}}, r.LinkedParams)
	assert.Equal(t, map[string]string{"width": "N + 1"}, r.LocalVariables)
}

func TestLoadBytes_Repetition(t *testing.T) {
	t.Parallel()

	src := `
routine "loop" {
  repetition {
    count = "n"
    sequence "geometric" {
      ratio = 2
    }
  }

  routine "body" {}
}
`
	r, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(src), "loop.hcl")
	require.NoError(t, err)

	require.NotNil(t, r.Repetition)
	assert.Equal(t, schema.StringScalar("n"), r.Repetition.Count)
	assert.Equal(t, "geometric", r.Repetition.Sequence.Type)
	require.NotNil(t, r.Repetition.Sequence.Ratio)
	assert.Equal(t, schema.NumberScalar(2), *r.Repetition.Sequence.Ratio)
	assert.Nil(t, r.Repetition.Sequence.Multiplier)
}

func TestLoadBytes_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(`routine "broken" {`), "broken.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadBytes_WantsExactlyOneRoutine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"none", ``},
		{"two", "routine \"a\" {}\nroutine \"b\" {}"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(tt.src), "multi.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exactly one top-level routine block")
		})
	}
}

func TestLoadBytes_BadScalarType(t *testing.T) {
	t.Parallel()

	src := `
routine "r" {
  port "in_0" {
    direction = "input"
    size      = [1, 2]
  }
}
`
	_, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(src), "bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number or an expression string")
}

func TestLoadBytes_ResourceWithoutValue(t *testing.T) {
	t.Parallel()

	src := `
routine "r" {
  resource "T" {
    type  = "additive"
    value = null
  }
}
`
	_, err := NewLoader().LoadBytes(testutil.QuietContext(), []byte(src), "null.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no value")
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "adder.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sampleHCL), 0o644))

	r, err := NewLoader().Load(testutil.QuietContext(), path)
	require.NoError(t, err)
	assert.Equal(t, "adder", r.Name)

	_, err = NewLoader().Load(testutil.QuietContext(), filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)
}

func scalarPtr(sc schema.Scalar) *schema.Scalar { return &sc }
