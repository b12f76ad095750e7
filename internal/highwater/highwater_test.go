package highwater

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/qresgo/internal/ctxlog"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symexpr"
	"github.com/vk/qresgo/internal/testutil"
)

func TestCalculate_EmptyRoutineIsZero(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	hw, err := Calculate(testutil.QuietContext(), &model.Routine[symexpr.Expr]{Name: "empty"}, en, "", "")
	require.NoError(t, err)

	v, ok := en.Value(hw)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestCalculate_DeclaredHighwaterAndAncillae(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	child := &model.Routine[symexpr.Expr]{
		Name: "child",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"cin":  {Name: "cin", Direction: model.Input, Size: testutil.ExprPtr(t, en, 5)},
			"cout": {Name: "cout", Direction: model.Output, Size: testutil.ExprPtr(t, en, 5)},
		},
		Resources: map[string]*model.Resource[symexpr.Expr]{
			DefaultResourceName: {Name: DefaultResourceName, Type: model.Qubits, Value: testutil.MustExpr(t, en, 7)},
		},
	}
	root := &model.Routine[symexpr.Expr]{
		Name: "root",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in":  {Name: "in", Direction: model.Input, Size: testutil.ExprPtr(t, en, 5)},
			"out": {Name: "out", Direction: model.Output, Size: testutil.ExprPtr(t, en, 5)},
		},
		Resources: map[string]*model.Resource[symexpr.Expr]{
			DefaultAncillaeName: {Name: DefaultAncillaeName, Type: model.Qubits, Value: testutil.MustExpr(t, en, 3)},
		},
		Children:      map[string]*model.Routine[symexpr.Expr]{"child": child},
		ChildrenOrder: []string{"child"},
	}

	hw, err := Calculate(testutil.QuietContext(), root, en, "", "")
	require.NoError(t, err)

	// While the child runs, 5 flowing qubits hand over to its declared peak
	// of 7; the local ancillae ride on top: max(5-5+7, 5) + 3.
	v, ok := en.Value(hw)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestCalculate_InputOnlyFlow(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	root := &model.Routine[symexpr.Expr]{
		Name: "sink",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in": {Name: "in", Direction: model.Input, Size: testutil.ExprPtr(t, en, 5)},
		},
	}

	hw, err := Calculate(testutil.QuietContext(), root, en, "", "")
	require.NoError(t, err)

	// Consumed qubits are live before anything runs.
	v, ok := en.Value(hw)
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestCalculate_RecursesWithoutDeclaredResource(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	leaf := &model.Routine[symexpr.Expr]{
		Name: "leaf",
		Resources: map[string]*model.Resource[symexpr.Expr]{
			DefaultResourceName: {Name: DefaultResourceName, Type: model.Qubits, Value: testutil.MustExpr(t, en, 4)},
		},
	}
	mid := &model.Routine[symexpr.Expr]{
		Name:          "mid",
		Children:      map[string]*model.Routine[symexpr.Expr]{"leaf": leaf},
		ChildrenOrder: []string{"leaf"},
	}
	root := &model.Routine[symexpr.Expr]{
		Name:          "root",
		Children:      map[string]*model.Routine[symexpr.Expr]{"mid": mid},
		ChildrenOrder: []string{"mid"},
	}

	hw, err := Calculate(testutil.QuietContext(), root, en, "", "")
	require.NoError(t, err)

	v, ok := en.Value(hw)
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestCalculate_SymbolicResult(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	child := &model.Routine[symexpr.Expr]{
		Name: "child",
		Resources: map[string]*model.Resource[symexpr.Expr]{
			DefaultResourceName: {Name: DefaultResourceName, Type: model.Qubits, Value: testutil.MustExpr(t, en, "h")},
		},
	}
	root := &model.Routine[symexpr.Expr]{
		Name: "root",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in":  {Name: "in", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N")},
			"out": {Name: "out", Direction: model.Output, Size: testutil.ExprPtr(t, en, "N")},
		},
		Children:      map[string]*model.Routine[symexpr.Expr]{"child": child},
		ChildrenOrder: []string{"child"},
	}

	hw, err := Calculate(testutil.QuietContext(), root, en, "", "")
	require.NoError(t, err)
	assert.Equal(t, "max(N, N + h)", en.Serialize(hw))
}

func TestCalculate_CustomResourceNames(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	child := &model.Routine[symexpr.Expr]{
		Name: "child",
		Resources: map[string]*model.Resource[symexpr.Expr]{
			"peak": {Name: "peak", Type: model.Qubits, Value: testutil.MustExpr(t, en, 9)},
		},
	}
	root := &model.Routine[symexpr.Expr]{
		Name:          "root",
		Children:      map[string]*model.Routine[symexpr.Expr]{"child": child},
		ChildrenOrder: []string{"child"},
		Resources: map[string]*model.Resource[symexpr.Expr]{
			"scratch": {Name: "scratch", Type: model.Qubits, Value: testutil.MustExpr(t, en, 1)},
		},
	}

	hw, err := Calculate(testutil.QuietContext(), root, en, "peak", "scratch")
	require.NoError(t, err)

	v, ok := en.Value(hw)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestCalculate_WarnsOnInvalidDeclaredOrder(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	mkChild := func(name string) *model.Routine[symexpr.Expr] {
		return &model.Routine[symexpr.Expr]{
			Name: name,
			Ports: map[string]*model.Port[symexpr.Expr]{
				"in":  {Name: "in", Direction: model.Input, Size: testutil.ExprPtr(t, en, 1)},
				"out": {Name: "out", Direction: model.Output, Size: testutil.ExprPtr(t, en, 1)},
			},
		}
	}
	root := &model.Routine[symexpr.Expr]{
		Name: "root",
		Children: map[string]*model.Routine[symexpr.Expr]{
			"a": mkChild("a"), "b": mkChild("b"),
		},
		// b is declared first but consumes a's output.
		ChildrenOrder: []string{"b", "a"},
		Connections: map[model.Endpoint]model.Endpoint{
			{Routine: "a", Port: "out"}: {Routine: "b", Port: "in"},
		},
	}

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(testutil.QuietContext(),
		slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	_, err := Calculate(ctx, root, en, "", "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "highwater estimate may be inaccurate")
}
