package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/rewrite"
)

type stubRule struct {
	name  string
	apply func(fg *graph.FGraph, id graph.NodeID) (bool, error)
}

func (r stubRule) Name() string { return r.name }
func (r stubRule) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	return r.apply(fg, id)
}

// cancelNeg rewrites neg(neg(x)) to x.
var cancelNeg = stubRule{
	name: "cancelNeg",
	apply: func(fg *graph.FGraph, id graph.NodeID) (bool, error) {
		n := fg.NodeOf(id)
		if n.Op != graph.OpNeg {
			return false, nil
		}
		inner := fg.NodeOf(n.Inputs[0])
		if inner.Op != graph.OpNeg {
			return false, nil
		}
		return true, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{id: inner.Inputs[0]}, true)
	},
}

func TestRewriteToFixedPoint(t *testing.T) {
	fg := graph.New()
	x := fg.Symbol("x", graph.Real)
	wrapped := x
	for i := 0; i < 6; i++ {
		wrapped = fg.Apply(graph.OpNeg, graph.Real, wrapped)
	}
	fg.SetOutputs(wrapped)

	applied, err := rewrite.NewSet("test", cancelNeg).Rewrite(fg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, applied, 3)
	assert.Equal(t, x, fg.Outputs()[0])
}

func TestRewriteIdempotentAtFixedPoint(t *testing.T) {
	fg := graph.New()
	x := fg.Symbol("x", graph.Real)
	fg.SetOutputs(fg.Apply(graph.OpNeg, graph.Real, x))

	set := rewrite.NewSet("test", cancelNeg)
	applied, err := set.Rewrite(fg)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	before := fg.Outputs()[0]
	_, err = set.Rewrite(fg)
	require.NoError(t, err)
	assert.Equal(t, before, fg.Outputs()[0])
}

func TestRecordingRuleSelfGuards(t *testing.T) {
	// a rule that only records findings reports false once its finding is
	// in place, which is what lets the engine reach a fixed point
	seen := map[graph.NodeID]int{}
	recording := stubRule{
		name: "recording",
		apply: func(fg *graph.FGraph, id graph.NodeID) (bool, error) {
			if fg.NodeOf(id).Op != graph.OpSymbol {
				return false, nil
			}
			if seen[id] > 0 {
				return false, nil
			}
			seen[id]++
			return true, nil
		},
	}
	fg := graph.New()
	x := fg.Symbol("x", graph.Real)
	y := fg.Symbol("y", graph.Real)
	fg.SetOutputs(fg.Apply(graph.OpAdd, graph.Real, x, y))

	applied, err := rewrite.NewSet("test", recording).Rewrite(fg)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, map[graph.NodeID]int{x: 1, y: 1}, seen)
}

func TestRewriteDivergentRuleErrors(t *testing.T) {
	// wraps any symbol output in one more neg every time it fires; every
	// firing mints a new handle, so this can never converge
	grow := stubRule{
		name: "grow",
		apply: func(fg *graph.FGraph, id graph.NodeID) (bool, error) {
			if id != fg.Outputs()[0] {
				return false, nil
			}
			return true, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{id: fg.Apply(graph.OpNeg, graph.Real, id)}, true)
		},
	}
	fg := graph.New()
	fg.SetOutputs(fg.Symbol("x", graph.Real))

	_, err := rewrite.NewSet("divergent", grow).Rewrite(fg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed point")
}

func TestDBQueryByTag(t *testing.T) {
	db := rewrite.NewDB()
	db.Register(cancelNeg, "basic", "algebra")
	db.Register(stubRule{name: "other", apply: func(*graph.FGraph, graph.NodeID) (bool, error) {
		return false, nil
	}}, "misc")

	infos := db.Rules()
	require.Len(t, infos, 2)
	assert.Equal(t, "cancelNeg", infos[0].Name)
	assert.Equal(t, []string{"basic", "algebra"}, infos[0].Tags)

	fg := graph.New()
	x := fg.Symbol("x", graph.Real)
	fg.SetOutputs(fg.Apply(graph.OpNeg, graph.Real, fg.Apply(graph.OpNeg, graph.Real, x)))
	applied, err := db.Query("basic").Rewrite(fg)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, x, fg.Outputs()[0])

	applied, err = db.Query("no-such-tag").Rewrite(fg)
	require.NoError(t, err)
	assert.Zero(t, applied)
}
