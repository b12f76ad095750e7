package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/qresgo/internal/symexpr"
	"github.com/vk/qresgo/internal/testutil"
)

// twoLevel builds root -> {left, right} with a through-wire and one resource
// per child.
func twoLevel(t *testing.T) *Routine[symexpr.Expr] {
	t.Helper()
	en := symexpr.NewEngine()
	leaf := func(name string) *Routine[symexpr.Expr] {
		return &Routine[symexpr.Expr]{
			Name: name,
			Ports: map[string]*Port[symexpr.Expr]{
				"in":  {Name: "in", Direction: Input, Size: testutil.ExprPtr(t, en, "N")},
				"out": {Name: "out", Direction: Output, Size: testutil.ExprPtr(t, en, "N")},
			},
			Resources: map[string]*Resource[symexpr.Expr]{
				"T": {Name: "T", Type: Additive, Value: testutil.MustExpr(t, en, 1)},
			},
			InputParams: []string{"N"},
		}
	}
	return &Routine[symexpr.Expr]{
		Name:          "root",
		Children:      map[string]*Routine[symexpr.Expr]{"left": leaf("left"), "right": leaf("right")},
		ChildrenOrder: []string{"left", "right"},
		Connections: map[Endpoint]Endpoint{
			{Routine: "left", Port: "out"}: {Routine: "right", Port: "in"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("well-formed tree passes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, twoLevel(t).Validate())
	})

	t.Run("children_order must match children exactly", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.ChildrenOrder = []string{"left"}
		err := r.Validate()
		require.Error(t, err)
		var cerr *ConstructionError
		require.ErrorAs(t, err, &cerr)
	})

	t.Run("children_order rejects repeats", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.ChildrenOrder = []string{"left", "left"}
		require.Error(t, r.Validate())
	})

	t.Run("children_order rejects unknown names", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.ChildrenOrder = []string{"left", "ghost"}
		require.Error(t, r.Validate())
	})

	t.Run("connection endpoints must exist", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.Connections[Endpoint{Routine: "left", Port: "nope"}] = Endpoint{Routine: "right", Port: "in"}
		err := r.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("map keys must agree with names", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.Children["left"].Name = "sinister"
		require.Error(t, r.Validate())
	})

	t.Run("invalid port direction", func(t *testing.T) {
		t.Parallel()
		r := twoLevel(t)
		r.Children["left"].Ports["in"].Direction = "sideways"
		require.Error(t, r.Validate())
	})
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	en := symexpr.NewEngine()
	r := twoLevel(t)
	cp := r.Clone()

	cp.Children["left"].Resources["T"].Value = testutil.MustExpr(t, en, 99)
	cp.ChildrenOrder[0] = "changed"
	cp.Connections[Endpoint{Port: "x"}] = Endpoint{Port: "y"}

	v, ok := en.Value(r.Children["left"].Resources["T"].Value)
	require.True(t, ok)
	assert.Equal(t, 1.0, v, "original resource untouched")
	assert.Equal(t, "left", r.ChildrenOrder[0])
	assert.Len(t, r.Connections, 1)
}

func TestWithChildren_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	r := twoLevel(t)
	out := r.WithChildren(nil)
	assert.Empty(t, out.Children)
	assert.Len(t, r.Children, 2, "receiver keeps its children")
}

func TestDescendant(t *testing.T) {
	t.Parallel()

	grand := &Routine[symexpr.Expr]{Name: "grand"}
	child := &Routine[symexpr.Expr]{
		Name:          "child",
		Children:      map[string]*Routine[symexpr.Expr]{"grand": grand},
		ChildrenOrder: []string{"grand"},
	}
	root := &Routine[symexpr.Expr]{
		Name:          "root",
		Children:      map[string]*Routine[symexpr.Expr]{"child": child},
		ChildrenOrder: []string{"child"},
	}

	got, ok := root.Descendant("child.grand")
	require.True(t, ok)
	assert.Same(t, grand, got)

	_, ok = root.Descendant("child.missing")
	assert.False(t, ok)
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     string
		expectErr bool
		want      Endpoint
	}{
		{name: "own port", input: "in_0", want: Endpoint{Port: "in_0"}},
		{name: "child port", input: "adder.out", want: Endpoint{Routine: "adder", Port: "out"}},
		{name: "error - empty", input: "", expectErr: true},
		{name: "error - trailing dot", input: "adder.", expectErr: true},
		{name: "error - two dots", input: "a.b.c", expectErr: true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ep, err := ParseEndpoint(tc.input)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ep)
			assert.Equal(t, tc.input, ep.String())
		})
	}
}
