package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symexpr"
	"github.com/vk/qresgo/internal/testutil"
)

func TestIntroducePortVariables_DerivedSize(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name: "r",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	require.NotNil(t, out.Ports["in_0"].Size)
	assert.Equal(t, "#in_0", en.Serialize(*out.Ports["in_0"].Size))
	assert.Empty(t, out.Constraints)
	assert.Empty(t, out.LocalVariables)
}

func TestIntroducePortVariables_ParamAlias(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name:        "r",
		InputParams: []string{"N"},
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N")},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	assert.Equal(t, "#in_0", en.Serialize(*out.Ports["in_0"].Size))
	require.Contains(t, out.LocalVariables, "N")
	assert.Equal(t, "#in_0", en.Serialize(out.LocalVariables["N"]))
}

func TestIntroducePortVariables_SharedParamYieldsConstraint(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name:        "r",
		InputParams: []string{"N"},
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N")},
			"in_1": {Name: "in_1", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N")},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	// First port claims the alias, the second becomes an equality constraint.
	assert.Equal(t, "#in_0", en.Serialize(out.LocalVariables["N"]))
	require.Len(t, out.Constraints, 1)
	c := out.Constraints[0]
	assert.Equal(t, "#in_1", en.Serialize(c.LHS))
	assert.Equal(t, "#in_0", en.Serialize(c.RHS))
	assert.Equal(t, model.Inconclusive, c.Status)
}

func TestIntroducePortVariables_ConstantSize(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name: "r",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, 3)},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	require.Len(t, out.Constraints, 1)
	assert.Equal(t, "#in_0", en.Serialize(out.Constraints[0].LHS))
	assert.Equal(t, "3", en.Serialize(out.Constraints[0].RHS))
}

func TestIntroducePortVariables_ExpressionSize(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name:        "r",
		InputParams: []string{"N"},
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N + 1")},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	require.Len(t, out.Constraints, 1)
	assert.Equal(t, "#in_0", en.Serialize(out.Constraints[0].LHS))
	assert.Equal(t, "N + 1", en.Serialize(out.Constraints[0].RHS))
}

func TestIntroducePortVariables_UndefinedSymbolFails(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name: "r",
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, "mystery + 1")},
		},
	}

	_, err := IntroducePortVariables(r, en)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "mystery")
}

func TestIntroducePortVariables_AliasCollisionFails(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name:        "r",
		InputParams: []string{"N"},
		LocalVariables: map[string]symexpr.Expr{
			"N": testutil.MustExpr(t, en, "5"),
		},
		Ports: map[string]*model.Port[symexpr.Expr]{
			"in_0": {Name: "in_0", Direction: model.Input, Size: testutil.ExprPtr(t, en, "N")},
		},
	}

	_, err := IntroducePortVariables(r, en)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides")
}

func TestIntroducePortVariables_OutputPortsUntouched(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := &model.Routine[symexpr.Expr]{
		Name:        "r",
		InputParams: []string{"N"},
		Ports: map[string]*model.Port[symexpr.Expr]{
			"out_0": {Name: "out_0", Direction: model.Output, Size: testutil.ExprPtr(t, en, "2*N")},
		},
	}

	out, err := IntroducePortVariables(r, en)
	require.NoError(t, err)
	assert.Equal(t, "2*N", en.Serialize(*out.Ports["out_0"].Size))
	assert.Empty(t, out.Constraints)
}
