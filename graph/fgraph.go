package graph

import (
	"github.com/pkg/errors"
)

// Feature is auxiliary state hung off an FGraph, looked up by identifier.
// Rewrite rules use features to accumulate findings without the graph
// knowing their type.
type Feature interface {
	FeatureID() string
}

// FGraph is a view over an arena: an ordered list of output handles plus
// attached features. Isolated views share the arena (records are immutable,
// the arena only ever grows) but own their outputs and features, so
// rewriting an isolated view never perturbs the graph it came from.
type FGraph struct {
	arena    *Arena
	outputs  []NodeID
	features []Feature
}

// New creates an empty graph with a fresh arena.
func New() *FGraph {
	return &FGraph{arena: newArena()}
}

// Isolate creates a standalone scratch view with the given outputs. The
// scratch view shares the arena, so handles from the parent stay valid.
func (fg *FGraph) Isolate(outputs ...NodeID) *FGraph {
	outs := make([]NodeID, len(outputs))
	copy(outs, outputs)
	return &FGraph{arena: fg.arena, outputs: outs}
}

func (fg *FGraph) Outputs() []NodeID { return fg.outputs }

func (fg *FGraph) SetOutputs(outputs ...NodeID) {
	fg.outputs = append(fg.outputs[:0], outputs...)
}

// NodeOf returns the record behind a handle. The record, including its
// Inputs slice, must be treated as read-only.
func (fg *FGraph) NodeOf(id NodeID) Node {
	return fg.arena.node(id)
}

// Len returns the number of records in the backing arena.
func (fg *FGraph) Len() int { return fg.arena.len() }

// Add interns or appends a record and returns its handle.
func (fg *FGraph) Add(n Node) NodeID {
	return fg.arena.add(n)
}

// Symbol creates a fresh leaf with no defining expression. Two symbols are
// never the same node, whatever their names.
func (fg *FGraph) Symbol(name string, dt DType) NodeID {
	return fg.arena.add(Node{Op: OpSymbol, Name: name, DT: dt})
}

// Const returns the handle for a constant, shared across the arena.
func (fg *FGraph) Const(value float64) NodeID {
	return fg.arena.add(Node{Op: OpConst, Value: value, DT: Real})
}

// Apply builds a deterministic application.
func (fg *FGraph) Apply(op Op, dt DType, inputs ...NodeID) NodeID {
	return fg.arena.add(Node{Op: op, DT: dt, Inputs: inputs})
}

// RV builds a labelled random-variable draw. Always a fresh handle.
func (fg *FGraph) RV(op Op, name string, dt DType, inputs ...NodeID) NodeID {
	return fg.arena.add(Node{Op: op, Name: name, DT: dt, Inputs: inputs})
}

// Attach hangs a feature off the graph. A second feature with the same
// identifier replaces the first.
func (fg *FGraph) Attach(f Feature) {
	for i, existing := range fg.features {
		if existing.FeatureID() == f.FeatureID() {
			fg.features[i] = f
			return
		}
	}
	fg.features = append(fg.features, f)
}

// FeatureByID looks up an attached feature.
func (fg *FGraph) FeatureByID(id string) (Feature, bool) {
	for _, f := range fg.features {
		if f.FeatureID() == id {
			return f, true
		}
	}
	return nil, false
}

// ReplaceAll rewrites the view's outputs so that every occurrence of a key
// of repl is replaced by its value. Replacement is simultaneous: values are
// not themselves re-substituted. Affected ancestors are re-interned with
// remapped inputs; unaffected records keep their handles.
//
// When importMissing is false, every replacement value actually used must
// already be reachable from the view's outputs; otherwise the call fails.
// With importMissing, unseen values simply become reachable, which is what
// lets a sampler step pull in variables defined elsewhere in the model.
func (fg *FGraph) ReplaceAll(repl map[NodeID]NodeID, importMissing bool) error {
	if len(repl) == 0 {
		return nil
	}
	if !importMissing {
		reachable := fg.Ancestors(fg.outputs...)
		for k, v := range repl {
			if reachable.Contains(k) && !reachable.Contains(v) {
				return errors.Errorf("replacement %s is not part of the graph", fg.ShowNode(v))
			}
		}
	}
	memo := make(map[NodeID]NodeID, len(repl))
	for k, v := range repl {
		memo[k] = v
	}
	for i, out := range fg.outputs {
		fg.outputs[i] = fg.remap(out, memo)
	}
	return nil
}

func (fg *FGraph) remap(id NodeID, memo map[NodeID]NodeID) NodeID {
	if mapped, ok := memo[id]; ok {
		return mapped
	}
	n := fg.arena.node(id)
	changed := false
	newInputs := make([]NodeID, len(n.Inputs))
	for i, in := range n.Inputs {
		newInputs[i] = fg.remap(in, memo)
		changed = changed || newInputs[i] != in
	}
	mapped := id
	if changed {
		mapped = fg.arena.add(Node{
			Op:     n.Op,
			Name:   n.Name,
			Value:  n.Value,
			DT:     n.DT,
			Inputs: newInputs,
		})
	}
	memo[id] = mapped
	return mapped
}
