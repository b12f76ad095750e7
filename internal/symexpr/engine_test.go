package symexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsExpression_InputKinds(t *testing.T) {
	t.Parallel()

	en := NewEngine()

	e, err := en.AsExpression(3)
	require.NoError(t, err)
	v, ok := en.Value(e)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	e, err = en.AsExpression(2.5)
	require.NoError(t, err)
	v, ok = en.Value(e)
	require.True(t, ok)
	assert.Equal(t, 2.5, v)

	parsed, err := en.AsExpression("N + 1")
	require.NoError(t, err)
	same, err := en.AsExpression(parsed)
	require.NoError(t, err)
	assert.Equal(t, en.Serialize(parsed), en.Serialize(same))

	_, err = en.AsExpression(struct{}{})
	require.Error(t, err)
}

func TestFreeSymbols(t *testing.T) {
	t.Parallel()

	en := NewEngine()
	e, err := en.AsExpression("2*N + max(#in_0, child.x) - N")
	require.NoError(t, err)
	assert.Equal(t, []string{"#in_0", "N", "child.x"}, en.FreeSymbols(e))
}

func TestSubstituteAll(t *testing.T) {
	t.Parallel()

	en := NewEngine()
	e, err := en.AsExpression("m*2 + k")
	require.NoError(t, err)

	m, err := en.AsExpression("x + 1")
	require.NoError(t, err)
	out, err := en.SubstituteAll(e, map[string]Expr{"m": m, "unused": Num(9)})
	require.NoError(t, err)
	assert.Equal(t, "k + 2*x + 2", en.Serialize(out))

	// Full numeric binding collapses to a constant.
	out, err = en.SubstituteAll(out, map[string]Expr{"x": Num(10), "k": Num(0)})
	require.NoError(t, err)
	v, ok := en.Value(out)
	require.True(t, ok)
	assert.Equal(t, 22.0, v)
}

func TestIsConstantInt(t *testing.T) {
	t.Parallel()

	en := NewEngine()
	cases := map[string]bool{
		"4":     true,
		"2 + 2": true,
		"2.5":   false,
		"N":     false,
	}
	for input, want := range cases {
		e, err := en.AsExpression(input)
		require.NoError(t, err)
		assert.Equal(t, want, en.IsConstantInt(e), input)
	}
}

func TestDefineFunction(t *testing.T) {
	t.Parallel()

	en := NewEngine()

	err := en.DefineFunction("max", func([]float64) (float64, error) { return 0, nil })
	require.Error(t, err, "builtins are reserved")

	require.NoError(t, en.DefineFunction("f", func(args []float64) (float64, error) {
		return args[0] + 1, nil
	}))
	err = en.DefineFunction("f", func([]float64) (float64, error) { return 0, nil })
	require.Error(t, err, "double registration is rejected")

	err = en.DefineFunction("g", nil)
	require.Error(t, err)

	// Registrations are engine-local.
	other := NewEngine()
	require.NoError(t, other.DefineFunction("f", func([]float64) (float64, error) { return 0, nil }))
}

func TestCalledFunctions(t *testing.T) {
	t.Parallel()

	en := NewEngine()
	e, err := en.AsExpression("f(g(x)) + max(a, b) + y")
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "g", "max"}, en.CalledFunctions(e))
}

func TestSymbolName(t *testing.T) {
	t.Parallel()

	en := NewEngine()
	e, err := en.AsExpression("#in_0")
	require.NoError(t, err)
	name, ok := en.SymbolName(e)
	require.True(t, ok)
	assert.Equal(t, "#in_0", name)

	e, err = en.AsExpression("#in_0 + 1")
	require.NoError(t, err)
	_, ok = en.SymbolName(e)
	assert.False(t, ok)
}
