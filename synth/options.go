package synth

import "github.com/conjugo/conjugo/rewrite"

// Selection picks which of a variable's candidates becomes its sampler
// step. The slice is never empty and is in registration order.
type Selection func([]Candidate) Candidate

// SelectLast picks the most recently registered candidate. This is the
// default.
func SelectLast(cands []Candidate) Candidate { return cands[len(cands)-1] }

// SelectFirst picks the earliest registered candidate.
func SelectFirst(cands []Candidate) Candidate { return cands[0] }

// Order chooses how latent variables are sequenced during resolution.
type Order int

const (
	// OutputOrder processes latent variables in declaration order. When a
	// step depends on a variable declared later, that reference resolves to
	// the later variable's initial placeholder rather than its step.
	OutputOrder Order = iota
	// DependencyOrder topologically sorts latent variables by the
	// references among their candidate steps before resolving, so a step
	// always sees the resolved form of the variables it depends on.
	// Reference cycles fall back to declaration order among themselves.
	DependencyOrder
)

type config struct {
	selection Selection
	order     Order
	rules     *rewrite.DB
}

type Option func(*config)

// WithSelection overrides the candidate selection policy.
func WithSelection(s Selection) Option {
	return func(c *config) { c.selection = s }
}

// WithOrder overrides the resolution order.
func WithOrder(o Order) Option {
	return func(c *config) { c.order = o }
}

// WithRules overrides the rule database queried for the discovery pass.
// Intended for tests; the default is SamplerRules.
func WithRules(db *rewrite.DB) Option {
	return func(c *config) { c.rules = db }
}
