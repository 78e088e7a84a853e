package dag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildLabeled(t *testing.T, d *DAG, labels ...string) map[string]*Vertex {
	t.Helper()
	out := make(map[string]*Vertex, len(labels))
	for _, label := range labels {
		v := NewVertex(label, nil)
		require.NoError(t, d.AddVertex(v))
		out[label] = v
	}
	return out
}

func connect(t *testing.T, d *DAG, vs map[string]*Vertex, from, to string) {
	t.Helper()
	require.NoError(t, d.Connect(vs[from], vs[to]))
}

func labelsOf(vs []*Vertex) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Label()
	}
	return out
}

func layerLabels(layers [][]*Vertex) [][]string {
	out := make([][]string, len(layers))
	for i, layer := range layers {
		out[i] = labelsOf(layer)
	}
	return out
}

func TestLinearChainTopologicalSort(t *testing.T) {
	d := New("linear", nil)
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	vs := buildLabeled(t, d, labels...)
	for i := 0; i < len(labels)-1; i++ {
		connect(t, d, vs, labels[i], labels[i+1])
	}

	order, err := d.TopologicalSort()
	require.NoError(t, err)
	require.Equal(t, labels, labelsOf(order))

	layers, err := d.LayeredPeel()
	require.NoError(t, err)
	require.Len(t, layers, 10)
	for i, layer := range layers {
		require.Equal(t, []string{labels[i]}, labelsOf(layer))
	}
}

func buildDiamondPlusBranches(t *testing.T) (*DAG, map[string]*Vertex) {
	t.Helper()
	d := New("diamond", nil)
	vs := buildLabeled(t, d, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j")

	edges := [][2]string{
		{"a", "b"}, {"a", "c"}, {"a", "e"},
		{"b", "d"}, {"b", "f"},
		{"c", "d"},
		{"e", "f"}, {"e", "g"},
		{"f", "g"}, {"f", "h"}, {"f", "i"}, {"f", "j"},
		{"g", "h"},
	}
	for _, e := range edges {
		connect(t, d, vs, e[0], e[1])
	}
	return d, vs
}

func TestDiamondPlusBranchesLayeredPeel(t *testing.T) {
	d, _ := buildDiamondPlusBranches(t)

	layers, err := d.LayeredPeel()
	require.NoError(t, err)

	got := layerLabels(layers)
	expectSets := [][]string{
		{"a"},
		{"b", "c", "e"},
		{"d", "f"},
		{"g", "i", "j"},
		{"h"},
	}
	require.Len(t, got, len(expectSets))
	for i, set := range expectSets {
		require.ElementsMatch(t, set, got[i])
	}
}

func TestCycleRejection(t *testing.T) {
	d, vs := buildDiamondPlusBranches(t)

	edgesBefore := d.EdgeCount()
	incomingBefore := make(map[string]int64)
	for label, v := range vs {
		incomingBefore[label] = v.IncomingEdgeCount()
	}

	err := d.Connect(vs["h"], vs["a"])
	require.Error(t, err)
	require.Equal(t, edgesBefore, d.EdgeCount())
	for label, v := range vs {
		require.Equal(t, incomingBefore[label], v.IncomingEdgeCount())
	}
}

func TestIncomingCounterEqualsInDegree(t *testing.T) {
	d, vs := buildDiamondPlusBranches(t)

	inDegree := make(map[string]int64)
	d.LinearTraversal(func(v *Vertex) {
		v.VisitAllEdges(func(e *Edge) {
			if target := e.GetConnection(); target != nil {
				inDegree[target.Label()]++
			}
		})
	})

	for label, v := range vs {
		require.Equal(t, inDegree[label], v.IncomingEdgeCount(), "label %s", label)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	d := New("idem", nil)
	vs := buildLabeled(t, d, "a", "b")

	require.NoError(t, d.Connect(vs["a"], vs["b"]))
	require.Equal(t, 1, d.EdgeCount())

	require.NoError(t, d.Connect(vs["a"], vs["b"]))
	require.Equal(t, 1, d.EdgeCount())
	require.Equal(t, int64(1), vs["b"].IncomingEdgeCount())
}

func TestConnectNotFound(t *testing.T) {
	d := New("nf", nil)
	vs := buildLabeled(t, d, "a")
	ghost := NewVertex("ghost", nil)

	err := d.Connect(vs["a"], ghost)
	require.Error(t, err)
}

func TestCloneStructure(t *testing.T) {
	d, _ := buildDiamondPlusBranches(t)
	clone := d.Clone()

	require.Equal(t, d.VertexCount(), clone.VertexCount())
	require.Equal(t, d.EdgeCount(), clone.EdgeCount())

	d.LinearTraversal(func(v *Vertex) {
		cv, ok := clone.FindByID(v.ID())
		require.True(t, ok)
		v.VisitAllEdges(func(e *Edge) {
			target := e.GetConnection()
			if target == nil {
				return
			}
			ctarget, ok := clone.FindByID(target.ID())
			require.True(t, ok)
			require.True(t, clone.AreConnected(cv, ctarget))
		})
	})
}

func TestWouldMakeCyclicSelf(t *testing.T) {
	d := New("self", nil)
	vs := buildLabeled(t, d, "a")
	require.True(t, d.WouldMakeCyclic(vs["a"], vs["a"]))
}
