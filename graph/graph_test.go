package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conjugo/conjugo/graph"
)

func TestInterning(t *testing.T) {
	fg := graph.New()

	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)

	sum1 := fg.Apply(graph.OpAdd, graph.Real, a, b)
	sum2 := fg.Apply(graph.OpAdd, graph.Real, a, b)
	assert.Equal(t, sum1, sum2, "structurally equal applications should share a handle")

	c1 := fg.Const(3)
	c2 := fg.Const(3)
	assert.Equal(t, c1, c2)

	// symbols and random variables are identity nodes
	assert.NotEqual(t, fg.Symbol("a", graph.Real), a)
	rv1 := fg.RV(graph.OpBeta, "p", graph.Real, c1, c1)
	rv2 := fg.RV(graph.OpBeta, "p", graph.Real, c1, c1)
	assert.NotEqual(t, rv1, rv2, "two draws are two different variables")
}

func TestReplaceAllRemapsHandles(t *testing.T) {
	fg := graph.New()
	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)
	c := fg.Symbol("c", graph.Real)

	sum := fg.Apply(graph.OpAdd, graph.Real, a, b)
	prod := fg.Apply(graph.OpMul, graph.Real, sum, c)
	untouched := fg.Apply(graph.OpNeg, graph.Real, c)
	fg.SetOutputs(prod, untouched)

	d := fg.Symbol("d", graph.Real)
	require.NoError(t, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{a: d}, true))

	newProd := fg.Outputs()[0]
	assert.NotEqual(t, prod, newProd)
	newSum := fg.NodeOf(newProd).Inputs[0]
	assert.Equal(t, []graph.NodeID{d, b}, fg.NodeOf(newSum).Inputs)
	// nodes not involving the replaced handle keep theirs
	assert.Equal(t, untouched, fg.Outputs()[1])
	assert.Equal(t, c, fg.NodeOf(newProd).Inputs[1])
}

func TestReplaceAllIsSimultaneous(t *testing.T) {
	fg := graph.New()
	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)
	sum := fg.Apply(graph.OpAdd, graph.Real, a, b)
	fg.SetOutputs(sum)

	// a -> b and b -> a must swap, not chain
	require.NoError(t, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{a: b, b: a}, true))
	swapped := fg.NodeOf(fg.Outputs()[0])
	assert.Equal(t, []graph.NodeID{b, a}, swapped.Inputs)
}

func TestReplaceAllImportMissing(t *testing.T) {
	fg := graph.New()
	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)
	sum := fg.Apply(graph.OpAdd, graph.Real, a, b)

	// d is not reachable from the isolated view
	d := fg.Symbol("d", graph.Real)
	scratch := fg.Isolate(sum)
	err := scratch.ReplaceAll(map[graph.NodeID]graph.NodeID{a: d}, false)
	assert.Error(t, err)

	scratch = fg.Isolate(sum)
	require.NoError(t, scratch.ReplaceAll(map[graph.NodeID]graph.NodeID{a: d}, true))
	assert.Equal(t, []graph.NodeID{d, b}, scratch.NodeOf(scratch.Outputs()[0]).Inputs)
}

func TestIsolateDoesNotPerturbParent(t *testing.T) {
	fg := graph.New()
	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)
	sum := fg.Apply(graph.OpAdd, graph.Real, a, b)
	fg.SetOutputs(sum)

	scratch := fg.Isolate(sum)
	require.NoError(t, scratch.ReplaceAll(map[graph.NodeID]graph.NodeID{a: b}, true))

	assert.NotEqual(t, sum, scratch.Outputs()[0])
	assert.Equal(t, []graph.NodeID{sum}, fg.Outputs(), "parent view outputs unchanged")
	assert.Equal(t, []graph.NodeID{a, b}, fg.NodeOf(sum).Inputs)
}

func TestToposortAndAncestors(t *testing.T) {
	fg := graph.New()
	a := fg.Symbol("a", graph.Real)
	b := fg.Symbol("b", graph.Real)
	sum := fg.Apply(graph.OpAdd, graph.Real, a, b)
	prod := fg.Apply(graph.OpMul, graph.Real, sum, a)

	order := fg.Toposort(prod)
	pos := make(map[graph.NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		for _, in := range fg.NodeOf(id).Inputs {
			assert.Less(t, pos[in], pos[id], "inputs come before their node")
		}
	}

	anc := fg.Ancestors(prod)
	assert.True(t, anc.Contains(a))
	assert.True(t, anc.Contains(sum))
	assert.True(t, anc.Contains(prod))
	c := fg.Symbol("c", graph.Real)
	assert.False(t, anc.Contains(c))
}

func TestFeatures(t *testing.T) {
	fg := graph.New()
	_, ok := fg.FeatureByID("marker")
	assert.False(t, ok)

	fg.Attach(marker{id: 1})
	fg.Attach(marker{id: 2})
	f, ok := fg.FeatureByID("marker")
	require.True(t, ok)
	assert.Equal(t, marker{id: 2}, f, "same-ID feature replaces the previous one")
}

type marker struct{ id int }

func (marker) FeatureID() string { return "marker" }
