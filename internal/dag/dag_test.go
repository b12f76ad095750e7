package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort_RespectsPreferredOrder(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("c", "a")) // a depends on c

	// Dependencies win, preference breaks the remaining ties.
	order, err := g.Sort([]string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "a"}, order)
}

func TestSort_UnpreferredNodesComeLastAlphabetically(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"z", "m", "a"} {
		g.AddNode(id)
	}
	order, err := g.Sort([]string{"z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, order)
}

func TestSort_CycleError(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))
	g.AddNode("free")

	_, err := g.Sort(nil)
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c"}, cycleErr.Members)
	assert.Contains(t, cycleErr.Error(), "dependency cycle")
}

func TestAddEdge_RejectsSelfEdge(t *testing.T) {
	t.Parallel()

	g := New()
	require.Error(t, g.AddEdge("x", "x"))
}

func TestIsValidOrder(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddEdge("a", "b"))
	g.AddNode("c")

	testCases := []struct {
		name  string
		order []string
		want  bool
	}{
		{"valid order", []string{"a", "b", "c"}, true},
		{"valid with reordered free node", []string{"c", "a", "b"}, true},
		{"dependency after dependent", []string{"b", "a", "c"}, false},
		{"missing node", []string{"a", "b"}, false},
		{"duplicate node", []string{"a", "a", "b"}, false},
		{"unknown node", []string{"a", "b", "x"}, false},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, g.IsValidOrder(tc.order))
		})
	}
}
