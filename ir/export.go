package ir

import (
	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/model"
)

var opRaising = func() map[graph.Op]model.Op {
	m := make(map[graph.Op]model.Op, len(opLowering))
	for mo, g := range opLowering {
		m[g] = mo
	}
	return m
}()

var dtRaising = map[graph.DType]model.DType{
	graph.Real: model.Real,
	graph.Int:  model.Int,
}

// Exporter rebuilds model expressions from graph handles. Handles that were
// lowered from an original variable export to that exact variable; fresh
// handles (placeholders, posterior draws) export to fresh model variables,
// shared across calls through one memo so that the same handle always
// exports to the same pointer.
type Exporter struct {
	fg       *graph.FGraph
	newToOld map[graph.NodeID]*model.Variable
	memo     map[graph.NodeID]*model.Variable
}

func NewExporter(fg *graph.FGraph, newToOld map[graph.NodeID]*model.Variable) *Exporter {
	return &Exporter{
		fg:       fg,
		newToOld: newToOld,
		memo:     make(map[graph.NodeID]*model.Variable),
	}
}

func (e *Exporter) Export(id graph.NodeID) *model.Variable {
	if v, ok := e.newToOld[id]; ok {
		return v
	}
	if v, ok := e.memo[id]; ok {
		return v
	}
	n := e.fg.NodeOf(id)
	var v *model.Variable
	switch n.Op {
	case graph.OpConst:
		v = model.Const(n.Value)
	case graph.OpSymbol:
		v = model.Symbol(n.Name, dtRaising[n.DT])
	default:
		inputs := make([]*model.Variable, len(n.Inputs))
		for i, in := range n.Inputs {
			inputs[i] = e.Export(in)
		}
		v = model.Raw(opRaising[n.Op], dtRaising[n.DT], n.Name, inputs...)
	}
	e.memo[id] = v
	return v
}
