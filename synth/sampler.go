// Package synth derives Gibbs-style posterior sampler steps for the latent
// variables of a model graph. Discovery is a pattern-based rewrite pass
// that proposes candidate steps; resolution threads a substitution table
// through the latent variables so each step sees the resolved form of the
// variables already processed.
package synth

import (
	"github.com/benbjohnson/immutable"
	set "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"

	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/internal/log"
	"github.com/conjugo/conjugo/ir"
	"github.com/conjugo/conjugo/model"
	"github.com/conjugo/conjugo/rand"
	"github.com/conjugo/conjugo/rewrite"
	"github.com/conjugo/conjugo/util"
)

var logger = log.DefaultLogger.With("section", "synth")

// SamplerRules is the rule database queried (tag "basic") during the
// discovery pass. The conjugacy package registers its catalog here on
// import.
var SamplerRules = rewrite.NewDB()

// Result is the outcome of one synthesis call, keyed by the caller's
// original variables. Observed variables appear in neither Steps nor
// InitialValues.
type Result struct {
	// Steps maps each latent variable to the expression that draws its
	// next posterior sample, as a function of other resolved variables and
	// observations.
	Steps map[*model.Variable]*model.Variable
	// Updates is the union of the auxiliary state transitions produced by
	// all steps.
	Updates map[*model.Variable]*model.Variable
	// InitialValues maps each latent variable to the fresh placeholder
	// standing for its state before an update; use it to seed iteration.
	InitialValues map[*model.Variable]*model.Variable
}

// table is the posterior substitution table: latent variable -> its current
// resolved expression. Before a variable is processed its entry is an
// initial-value placeholder; afterwards it is the resolved step. Updates
// are copy-on-write so resolveStep stays a pure function of its inputs.
type table = immutable.Map[graph.NodeID, graph.NodeID]

type nodeIDHasher struct{}

func (nodeIDHasher) Hash(id graph.NodeID) uint32 { return uint32(id) * 2654435761 }
func (nodeIDHasher) Equal(a, b graph.NodeID) bool { return a == b }

// ConstructSampler eagerly constructs a sampler for the given observed
// variables and their observations. It returns the sampler steps, the
// global update mapping, and the initial-value placeholders, or a
// *MissingSamplerError naming every latent variable no rule could handle.
func ConstructSampler(
	observed map[*model.Variable]*model.Variable,
	srng *rand.Stream,
	opts ...Option,
) (*Result, error) {
	cfg := config{selection: SelectLast, order: OutputOrder, rules: SamplerRules}
	for _, opt := range opts {
		opt(&cfg)
	}

	built, err := ir.Build(observed, srng)
	if err != nil {
		return nil, errors.Wrap(err, "lowering model")
	}
	fg := built.FGraph
	tracker := NewTracker(srng, built.Observations)
	fg.Attach(tracker)

	if _, err := cfg.rules.Query("basic").Rewrite(fg); err != nil {
		return nil, errors.Wrap(err, "sampler discovery")
	}

	// partition the outputs, preserving declaration order
	var latent []graph.NodeID
	for _, out := range fg.Outputs() {
		if _, isObserved := built.Observations[out]; !isObserved {
			latent = append(latent, out)
		}
	}

	// one fresh placeholder per latent variable; references to observed
	// variables inside any step resolve directly to their data
	placeholders := make(map[graph.NodeID]graph.NodeID, len(latent))
	steps := immutable.NewMap[graph.NodeID, graph.NodeID](nodeIDHasher{})
	for _, rv := range latent {
		n := fg.NodeOf(rv)
		name := n.Name
		if name == "" {
			name = "latent"
		}
		placeholders[rv] = fg.Symbol(srng.Name(name+"_init"), n.DT)
		steps = steps.Set(rv, placeholders[rv])
	}
	for rv, value := range built.Observations {
		steps = steps.Set(rv, value)
	}

	order := latent
	if cfg.order == DependencyOrder {
		order = dependencyOrder(fg, tracker, latent, cfg.selection)
	}

	var unresolved []graph.NodeID
	globalUpdates := make(map[graph.NodeID]graph.NodeID)
	var updateOrder []graph.NodeID

	for _, rv := range order {
		cands := tracker.CandidatesFor(rv)
		if len(cands) == 0 {
			unresolved = append(unresolved, rv)
			continue
		}
		cand := cfg.selection(cands)
		logger.Debug("resolving step", "rv", fg.NodeOf(rv).Name, "candidate", cand.Desc)

		var resolvedUpdates []Update
		steps, resolvedUpdates, err = resolveStep(fg, rv, cand, steps)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving step for %s", fg.NodeOf(rv).Name)
		}
		for _, u := range resolvedUpdates {
			if _, seen := globalUpdates[u.Fst]; !seen {
				updateOrder = append(updateOrder, u.Fst)
			}
			globalUpdates[u.Fst] = u.Snd
		}
	}

	if len(unresolved) > 0 {
		missing := &MissingSamplerError{}
		for _, rv := range unresolved {
			missing.Variables = append(missing.Variables, built.NewToOld[rv])
		}
		return nil, missing
	}

	// translate back to the caller's identities; one shared exporter keeps
	// placeholders and common subexpressions pointer-identical
	exporter := ir.NewExporter(fg, built.NewToOld)
	res := &Result{
		Steps:         make(map[*model.Variable]*model.Variable, len(latent)),
		Updates:       make(map[*model.Variable]*model.Variable, len(globalUpdates)),
		InitialValues: make(map[*model.Variable]*model.Variable, len(latent)),
	}
	for _, rv := range latent {
		orig := built.NewToOld[rv]
		stepID, _ := steps.Get(rv)
		res.Steps[orig] = exporter.Export(stepID)
		res.InitialValues[orig] = exporter.Export(placeholders[rv])
	}
	for _, key := range updateOrder {
		res.Updates[exporter.Export(key)] = exporter.Export(globalUpdates[key])
	}
	return res, nil
}

// resolveStep resolves one candidate against the current substitution
// table and returns the table with rv's entry replaced by the resolved
// step. The candidate's step and updates are isolated into a scratch view
// first, so rewriting them never perturbs the model graph.
func resolveStep(fg *graph.FGraph, rv graph.NodeID, cand Candidate, steps *table) (*table, []Update, error) {
	roots := make([]graph.NodeID, 0, 1+2*len(cand.Updates))
	roots = append(roots, cand.Step)
	for _, u := range cand.Updates {
		roots = append(roots, u.Fst)
	}
	for _, u := range cand.Updates {
		roots = append(roots, u.Snd)
	}
	scratch := fg.Isolate(roots...)

	repl := make(map[graph.NodeID]graph.NodeID, steps.Len())
	itr := steps.Iterator()
	for key, value, ok := itr.Next(); ok; key, value, ok = itr.Next() {
		repl[key] = value
	}
	// a step may reference variables defined elsewhere in the model, so
	// replacement values must be importable
	if err := scratch.ReplaceAll(repl, true); err != nil {
		return steps, nil, errors.Wrap(err, "threading substitutions")
	}
	if _, err := rewrite.Subsume.Rewrite(scratch); err != nil {
		return steps, nil, errors.Wrap(err, "normalizing step")
	}

	outs := scratch.Outputs()
	resolved := make([]Update, 0, len(cand.Updates))
	k := len(cand.Updates)
	for i := 0; i < k; i++ {
		resolved = append(resolved, util.NewPair(outs[1+i], outs[1+k+i]))
	}
	return steps.Set(rv, outs[0]), resolved, nil
}

// dependencyOrder sequences latent variables so that each comes after the
// latent variables its selected candidate step references. Variables
// without candidates keep their declaration position; cycles resolve to
// declaration order among their members.
func dependencyOrder(fg *graph.FGraph, tracker *Tracker, latent []graph.NodeID, sel Selection) []graph.NodeID {
	deps := make(map[graph.NodeID]*set.Set[graph.NodeID], len(latent))
	for _, rv := range latent {
		d := set.New[graph.NodeID](0)
		if cands := tracker.CandidatesFor(rv); len(cands) > 0 {
			ancestors := fg.Ancestors(sel(cands).Step)
			for _, other := range latent {
				if other != rv && ancestors.Contains(other) {
					d.Insert(other)
				}
			}
		}
		deps[rv] = d
	}

	emitted := set.New[graph.NodeID](len(latent))
	order := make([]graph.NodeID, 0, len(latent))
	for len(order) < len(latent) {
		progress := false
		for _, rv := range latent {
			if emitted.Contains(rv) {
				continue
			}
			ready := true
			for dep := range deps[rv].Items() {
				if !emitted.Contains(dep) {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, rv)
				emitted.Insert(rv)
				progress = true
			}
		}
		if !progress {
			for _, rv := range latent {
				if !emitted.Contains(rv) {
					order = append(order, rv)
					emitted.Insert(rv)
					break
				}
			}
		}
	}
	return order
}
