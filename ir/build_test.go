package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/ir"
	"github.com/conjugo/conjugo/model"
	"github.com/conjugo/conjugo/rand"
)

func TestBuildIdentityMaps(t *testing.T) {
	p := model.Beta(model.Const(1), model.Const(1)).Named("p")
	y := model.Binomial(model.Symbol("n", model.Int), p).Named("y")
	yObs := model.Symbol("y_obs", model.Int)

	built, err := ir.Build(map[*model.Variable]*model.Variable{y: yObs}, rand.NewStream(0))
	require.NoError(t, err)

	pID, ok := built.OldToNew[p]
	require.True(t, ok)
	yID, ok := built.OldToNew[y]
	require.True(t, ok)
	assert.Same(t, p, built.NewToOld[pID])
	assert.Same(t, y, built.NewToOld[yID])

	obsID, ok := built.Observations[yID]
	require.True(t, ok)
	assert.Same(t, yObs, built.NewToOld[obsID])

	assert.Equal(t, []graph.NodeID{pID, yID}, built.FGraph.Outputs(),
		"random variables in declaration order")
	assert.Equal(t, graph.OpBeta, built.FGraph.NodeOf(pID).Op)
	assert.Equal(t, "p", built.FGraph.NodeOf(pID).Name)
}

func TestBuildLabelsUnnamedRVs(t *testing.T) {
	p := model.Beta(model.Const(1), model.Const(1))
	y := model.Binomial(model.Const(10), p)

	built, err := ir.Build(map[*model.Variable]*model.Variable{
		y: model.Symbol("y_obs", model.Int),
	}, rand.NewStream(0))
	require.NoError(t, err)

	for _, out := range built.FGraph.Outputs() {
		assert.NotEmpty(t, built.FGraph.NodeOf(out).Name)
	}
}

func TestBuildRejectsNonRVObservation(t *testing.T) {
	x := model.Symbol("x", model.Real)
	_, err := ir.Build(map[*model.Variable]*model.Variable{
		x: model.Symbol("x_obs", model.Real),
	}, rand.NewStream(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a random variable")
}

func TestBuildInternsSharedStructure(t *testing.T) {
	scale := model.Symbol("s", model.Real)
	// the same hyperparameter expression used twice lowers to one handle
	a := model.Gamma(model.Mul(scale, model.Const(2)), model.Const(1)).Named("a")
	b := model.Gamma(model.Mul(scale, model.Const(2)), model.Const(1)).Named("b")
	y := model.Normal(a, b).Named("y")

	built, err := ir.Build(map[*model.Variable]*model.Variable{
		y: model.Symbol("y_obs", model.Real),
	}, rand.NewStream(0))
	require.NoError(t, err)

	aShape := built.FGraph.NodeOf(built.OldToNew[a]).Inputs[0]
	bShape := built.FGraph.NodeOf(built.OldToNew[b]).Inputs[0]
	assert.Equal(t, aShape, bShape)
	assert.NotEqual(t, built.OldToNew[a], built.OldToNew[b],
		"the draws themselves stay distinct")
}

func TestExporterRoundTrip(t *testing.T) {
	p := model.Beta(model.Const(1), model.Const(2)).Named("p")
	y := model.Binomial(model.Symbol("n", model.Int), p).Named("y")
	yObs := model.Symbol("y_obs", model.Int)

	built, err := ir.Build(map[*model.Variable]*model.Variable{y: yObs}, rand.NewStream(0))
	require.NoError(t, err)
	exporter := ir.NewExporter(built.FGraph, built.NewToOld)

	// lowered originals export back to the exact same pointers
	assert.Same(t, p, exporter.Export(built.OldToNew[p]))
	assert.Same(t, yObs, exporter.Export(built.Observations[built.OldToNew[y]]))

	// fresh handles export to fresh variables, stable across calls
	fresh := built.FGraph.Symbol("fresh", graph.Real)
	exported := exporter.Export(fresh)
	assert.NotNil(t, exported)
	assert.Same(t, exported, exporter.Export(fresh))

	// a fresh expression over originals exports to a tree over them
	sum := built.FGraph.Apply(graph.OpAdd, graph.Real, built.OldToNew[p], fresh)
	tree := exporter.Export(sum)
	require.Equal(t, model.OpAdd, tree.Op)
	assert.Same(t, p, tree.Inputs[0])
	assert.Same(t, exported, tree.Inputs[1])
}
