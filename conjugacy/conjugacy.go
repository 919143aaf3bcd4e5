// Package conjugacy implements the closed-form conjugate-prior patterns the
// discovery pass recognizes. Each rule inspects an observed likelihood, and
// when its prior matches, registers a posterior draw as a sampler candidate
// for that prior.
//
// Importing the package registers the catalog into synth.SamplerRules under
// the "basic" tag.
package conjugacy

import (
	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/synth"
)

func init() {
	synth.SamplerRules.Register(BetaBinomial{}, "basic", "conjugate")
	synth.SamplerRules.Register(GammaPoisson{}, "basic", "conjugate")
	synth.SamplerRules.Register(NormalNormal{}, "basic", "conjugate")
}

// latentPrior returns the prior node behind input when it is an
// unobserved draw of the wanted distribution.
func latentPrior(fg *graph.FGraph, tracker *synth.Tracker, input graph.NodeID, want graph.Op) (graph.Node, bool) {
	prior := fg.NodeOf(input)
	if prior.Op != want {
		return graph.Node{}, false
	}
	if _, observed := tracker.ObservationOf(input); observed {
		return graph.Node{}, false
	}
	return prior, true
}

// BetaBinomial matches y ~ Binomial(n, p) observed with p ~ Beta(a, b) and
// proposes p | y ~ Beta(a + sum(y), b + sum(n - y)).
type BetaBinomial struct{}

func (BetaBinomial) Name() string { return "betaBinomial" }

func (BetaBinomial) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	n := fg.NodeOf(id)
	if n.Op != graph.OpBinomial {
		return false, nil
	}
	tracker, ok := synth.TrackerOf(fg)
	if !ok {
		return false, nil
	}
	yObs, ok := tracker.ObservationOf(id)
	if !ok {
		return false, nil
	}
	pID := n.Inputs[1]
	prior, ok := latentPrior(fg, tracker, pID, graph.OpBeta)
	if !ok {
		return false, nil
	}
	desc := "beta-binomial conjugate via " + n.Name
	if tracker.HasCandidate(pID, desc) {
		return false, nil
	}

	alpha, beta := prior.Inputs[0], prior.Inputs[1]
	trials := fg.Apply(graph.OpBroadcast, graph.Int, n.Inputs[0])
	successes := fg.Apply(graph.OpSum, graph.Int, yObs)
	failures := fg.Apply(graph.OpSum, graph.Int, fg.Apply(graph.OpSub, graph.Int, trials, yObs))
	step := fg.RV(graph.OpBeta, tracker.Stream.Name(prior.Name+"_posterior"), graph.Real,
		fg.Apply(graph.OpAdd, graph.Real, alpha, successes),
		fg.Apply(graph.OpAdd, graph.Real, beta, failures),
	)
	tracker.Register(pID, desc, step, nil)
	return true, nil
}

// GammaPoisson matches y ~ Poisson(r) observed with r ~ Gamma(shape, rate)
// and proposes r | y ~ Gamma(shape + sum(y), rate + len(y)).
type GammaPoisson struct{}

func (GammaPoisson) Name() string { return "gammaPoisson" }

func (GammaPoisson) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	n := fg.NodeOf(id)
	if n.Op != graph.OpPoisson {
		return false, nil
	}
	tracker, ok := synth.TrackerOf(fg)
	if !ok {
		return false, nil
	}
	yObs, ok := tracker.ObservationOf(id)
	if !ok {
		return false, nil
	}
	rID := n.Inputs[0]
	prior, ok := latentPrior(fg, tracker, rID, graph.OpGamma)
	if !ok {
		return false, nil
	}
	desc := "gamma-poisson conjugate via " + n.Name
	if tracker.HasCandidate(rID, desc) {
		return false, nil
	}

	shape, rate := prior.Inputs[0], prior.Inputs[1]
	step := fg.RV(graph.OpGamma, tracker.Stream.Name(prior.Name+"_posterior"), graph.Real,
		fg.Apply(graph.OpAdd, graph.Real, shape, fg.Apply(graph.OpSum, graph.Int, yObs)),
		fg.Apply(graph.OpAdd, graph.Real, rate, fg.Apply(graph.OpLen, graph.Int, yObs)),
	)
	tracker.Register(rID, desc, step, nil)
	return true, nil
}

// NormalNormal matches y ~ Normal(mu, sigma) observed with mu ~ Normal(m0,
// tau) and known sigma, and proposes the precision-weighted posterior
// normal draw for mu.
type NormalNormal struct{}

func (NormalNormal) Name() string { return "normalNormal" }

func (NormalNormal) Apply(fg *graph.FGraph, id graph.NodeID) (bool, error) {
	n := fg.NodeOf(id)
	if n.Op != graph.OpNormal {
		return false, nil
	}
	tracker, ok := synth.TrackerOf(fg)
	if !ok {
		return false, nil
	}
	yObs, ok := tracker.ObservationOf(id)
	if !ok {
		return false, nil
	}
	muID, sigma := n.Inputs[0], n.Inputs[1]
	prior, ok := latentPrior(fg, tracker, muID, graph.OpNormal)
	if !ok {
		return false, nil
	}
	// sigma depending on mu would not be conjugate
	if fg.Ancestors(sigma).Contains(muID) {
		return false, nil
	}
	desc := "normal-normal conjugate via " + n.Name
	if tracker.HasCandidate(muID, desc) {
		return false, nil
	}

	m0, tau := prior.Inputs[0], prior.Inputs[1]
	one := fg.Const(1)
	priorPrec := fg.Apply(graph.OpDiv, graph.Real, one, fg.Apply(graph.OpMul, graph.Real, tau, tau))
	obsPrec := fg.Apply(graph.OpDiv, graph.Real, one, fg.Apply(graph.OpMul, graph.Real, sigma, sigma))
	likPrec := fg.Apply(graph.OpMul, graph.Real, fg.Apply(graph.OpLen, graph.Int, yObs), obsPrec)
	postPrec := fg.Apply(graph.OpAdd, graph.Real, priorPrec, likPrec)
	postMean := fg.Apply(graph.OpDiv, graph.Real,
		fg.Apply(graph.OpAdd, graph.Real,
			fg.Apply(graph.OpMul, graph.Real, m0, priorPrec),
			fg.Apply(graph.OpMul, graph.Real, fg.Apply(graph.OpSum, graph.Real, yObs), obsPrec),
		),
		postPrec,
	)
	postSD := fg.Apply(graph.OpSqrt, graph.Real, fg.Apply(graph.OpDiv, graph.Real, one, postPrec))
	step := fg.RV(graph.OpNormal, tracker.Stream.Name(prior.Name+"_posterior"), graph.Real, postMean, postSD)
	tracker.Register(muID, desc, step, nil)
	return true, nil
}
