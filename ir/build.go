// Package ir lowers user-level model variables into the arena-based graph
// representation that synthesis rewrites, and maps results back.
package ir

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/internal/log"
	"github.com/conjugo/conjugo/model"
	"github.com/conjugo/conjugo/rand"
)

var logger = log.DefaultLogger.With("section", "ir")

var opLowering = map[model.Op]graph.Op{
	model.OpSymbol:    graph.OpSymbol,
	model.OpConst:     graph.OpConst,
	model.OpAdd:       graph.OpAdd,
	model.OpSub:       graph.OpSub,
	model.OpMul:       graph.OpMul,
	model.OpDiv:       graph.OpDiv,
	model.OpNeg:       graph.OpNeg,
	model.OpSqrt:      graph.OpSqrt,
	model.OpSum:       graph.OpSum,
	model.OpLen:       graph.OpLen,
	model.OpBroadcast: graph.OpBroadcast,
	model.OpBeta:      graph.OpBeta,
	model.OpBinomial:  graph.OpBinomial,
	model.OpGamma:     graph.OpGamma,
	model.OpPoisson:   graph.OpPoisson,
	model.OpNormal:    graph.OpNormal,
}

var dtLowering = map[model.DType]graph.DType{
	model.Real: graph.Real,
	model.Int:  graph.Int,
}

// BuildResult carries the lowered graph together with the identity maps
// needed to translate synthesis results back to the caller's variables.
type BuildResult struct {
	FGraph *graph.FGraph
	// Observations maps each observed random variable's handle to the
	// handle of its observation.
	Observations map[graph.NodeID]graph.NodeID
	OldToNew     map[*model.Variable]graph.NodeID
	NewToOld     map[graph.NodeID]*model.Variable
}

// Build lowers the ancestry of every observed pair into a fresh graph. The
// graph's outputs are all random variables encountered, ordered by model
// declaration (variable creation) order. Unlabelled random variables are
// labelled from srng so diagnostics stay readable.
func Build(observed map[*model.Variable]*model.Variable, srng *rand.Stream) (*BuildResult, error) {
	b := &builder{
		fg:       graph.New(),
		srng:     srng,
		memo:     make(map[*model.Variable]graph.NodeID),
		inFlight: make(map[*model.Variable]bool),
	}
	res := &BuildResult{
		FGraph:       b.fg,
		Observations: make(map[graph.NodeID]graph.NodeID, len(observed)),
		OldToNew:     b.memo,
		NewToOld:     make(map[graph.NodeID]*model.Variable),
	}

	keys := make([]*model.Variable, 0, len(observed))
	for rv := range observed {
		keys = append(keys, rv)
	}
	slices.SortFunc(keys, func(a, b *model.Variable) int {
		return int(a.Seq() - b.Seq())
	})

	for _, rv := range keys {
		if !rv.IsRV() {
			return nil, errors.Errorf("observed variable %s is not a random variable", rv)
		}
		rvID, err := b.lower(rv)
		if err != nil {
			return nil, err
		}
		valID, err := b.lower(observed[rv])
		if err != nil {
			return nil, err
		}
		res.Observations[rvID] = valID
	}

	// interning can collapse structurally equal deterministic expressions
	// onto one handle; map it back to the earliest declared variable
	for v, id := range b.memo {
		if cur, ok := res.NewToOld[id]; !ok || v.Seq() < cur.Seq() {
			res.NewToOld[id] = v
		}
	}

	rvs := make([]*model.Variable, 0, len(b.randomVars))
	rvs = append(rvs, b.randomVars...)
	slices.SortFunc(rvs, func(a, b *model.Variable) int {
		return int(a.Seq() - b.Seq())
	})
	outputs := make([]graph.NodeID, len(rvs))
	for i, rv := range rvs {
		outputs[i] = b.memo[rv]
	}
	b.fg.SetOutputs(outputs...)

	logger.Debug("lowered model graph",
		"observed", len(observed), "randomVars", len(outputs), "nodes", b.fg.Len())
	return res, nil
}

type builder struct {
	fg         *graph.FGraph
	srng       *rand.Stream
	memo       map[*model.Variable]graph.NodeID
	inFlight   map[*model.Variable]bool
	randomVars []*model.Variable
}

func (b *builder) lower(v *model.Variable) (graph.NodeID, error) {
	if id, ok := b.memo[v]; ok {
		return id, nil
	}
	if b.inFlight[v] {
		return graph.InvalidID, errors.Errorf("cycle through %s in model graph", v)
	}
	b.inFlight[v] = true
	defer delete(b.inFlight, v)

	op, ok := opLowering[v.Op]
	if !ok {
		return graph.InvalidID, errors.Errorf("cannot lower operation %s", v.Op)
	}
	inputs := make([]graph.NodeID, len(v.Inputs))
	for i, in := range v.Inputs {
		id, err := b.lower(in)
		if err != nil {
			return graph.InvalidID, err
		}
		inputs[i] = id
	}

	name := v.Name
	if name == "" && v.IsRV() {
		name = b.srng.Name(v.Op.String())
	}
	id := b.fg.Add(graph.Node{
		Op:     op,
		Name:   name,
		Value:  v.Value,
		DT:     dtLowering[v.DT],
		Inputs: inputs,
	})
	b.memo[v] = id
	if v.IsRV() {
		b.randomVars = append(b.randomVars, v)
	}
	return id, nil
}
