package txgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")

	require.True(t, g.AddEdge(a, b))
	require.True(t, g.AddEdge(b, c))

	assert.False(t, g.AddEdge(c, a), "edge closing the a->b->c cycle must be rejected")
}

func TestAddEdgeRejectsDuplicate(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")

	require.True(t, g.AddEdge(a, b))
	assert.False(t, g.AddEdge(a, b))
}

func TestAddNodeReturnsExistingIndex(t *testing.T) {
	g := New[string]()
	a1 := g.AddNode("a")
	a2 := g.AddNode("a")
	assert.Equal(t, a1, a2)
	assert.Len(t, g.Nodes(), 1)
}

func TestTopoOrdersDependenciesFirst(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")
	require.True(t, g.AddEdge(a, b))
	require.True(t, g.AddEdge(b, c))

	order := g.Topo()
	indexOf := func(n string) int {
		for i, v := range order {
			if v == n {
				return i
			}
		}
		return -1
	}
	assert.Less(t, indexOf("a"), indexOf("b"))
	assert.Less(t, indexOf("b"), indexOf("c"))
}

func TestTransposeReversesEdges(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	require.True(t, g.AddEdge(a, b))

	tg := g.Transpose()
	bIdx, _ := tg.Index("b")
	reached := tg.DFS(bIdx)
	assert.Contains(t, reached, "a")
}

func TestSubgraphKeepsOnlyReachableNodes(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	g.AddNode("unreachable")
	require.True(t, g.AddEdge(a, b))

	sub := g.Subgraph([]string{"a"})
	assert.ElementsMatch(t, []string{"a", "b"}, sub.Nodes())
}
