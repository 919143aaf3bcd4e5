package rewrite

import (
	"github.com/conjugo/conjugo/graph"
)

// Subsume collapses broadcast wrapper expressions into canonical
// elementwise form: an elementwise operation absorbs Broadcast markers on
// its inputs, and nested Broadcasts flatten. Running it on an already
// normalized graph applies nothing.
var Subsume = NewSet("subsume", absorbBroadcast{}, flattenBroadcast{})

type absorbBroadcast struct{}

func (absorbBroadcast) Name() string { return "absorbBroadcast" }

func (absorbBroadcast) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	n := fg.NodeOf(id)
	if !n.Op.IsElemwise() {
		return false, nil
	}
	wrapped := false
	inputs := make([]graph.NodeID, len(n.Inputs))
	for i, in := range n.Inputs {
		inputs[i] = in
		if inNode := fg.NodeOf(in); inNode.Op == graph.OpBroadcast {
			inputs[i] = inNode.Inputs[0]
			wrapped = true
		}
	}
	if !wrapped {
		return false, nil
	}
	collapsed := fg.Apply(n.Op, n.DT, inputs...)
	return true, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{id: collapsed}, true)
}

type flattenBroadcast struct{}

func (flattenBroadcast) Name() string { return "flattenBroadcast" }

func (flattenBroadcast) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	n := fg.NodeOf(id)
	if n.Op != graph.OpBroadcast {
		return false, nil
	}
	inner := fg.NodeOf(n.Inputs[0])
	if inner.Op != graph.OpBroadcast {
		return false, nil
	}
	return true, fg.ReplaceAll(map[graph.NodeID]graph.NodeID{id: n.Inputs[0]}, true)
}
