package synth

import (
	"github.com/conjugo/conjugo/graph"
	"github.com/conjugo/conjugo/rand"
	"github.com/conjugo/conjugo/util"
)

// TrackerID identifies the sampler candidate tracker among a graph's
// features.
const TrackerID = "sampler-tracker"

// Update is one auxiliary state transition produced alongside a sampler
// step: Fst is the state node, Snd its next value.
type Update = util.Pair[graph.NodeID, graph.NodeID]

// Candidate is one sampler proposal for a latent variable, registered by a
// discovery rule.
type Candidate struct {
	Desc    string
	Step    graph.NodeID
	Updates []Update
}

// Tracker accumulates sampler candidates per latent variable during the
// discovery pass. It is attached to the graph as a feature so that rules
// can reach it without the engine knowing about samplers.
type Tracker struct {
	// Stream hands out fresh names to rules that introduce variables.
	Stream *rand.Stream

	observations map[graph.NodeID]graph.NodeID
	candidates   map[graph.NodeID][]Candidate
}

func NewTracker(srng *rand.Stream, observations map[graph.NodeID]graph.NodeID) *Tracker {
	return &Tracker{
		Stream:       srng,
		observations: observations,
		candidates:   make(map[graph.NodeID][]Candidate),
	}
}

func (t *Tracker) FeatureID() string { return TrackerID }

// Register adds a candidate for rv. Candidates keep registration order.
func (t *Tracker) Register(rv graph.NodeID, desc string, step graph.NodeID, updates []Update) {
	t.candidates[rv] = append(t.candidates[rv], Candidate{
		Desc:    desc,
		Step:    step,
		Updates: updates,
	})
}

// HasCandidate reports whether a candidate with this description is
// already registered for rv. Discovery rules use it to stay idempotent
// across rewrite passes.
func (t *Tracker) HasCandidate(rv graph.NodeID, desc string) bool {
	for _, c := range t.candidates[rv] {
		if c.Desc == desc {
			return true
		}
	}
	return false
}

// CandidatesFor returns the candidates registered for rv, oldest first.
func (t *Tracker) CandidatesFor(rv graph.NodeID) []Candidate {
	return t.candidates[rv]
}

// ObservationOf returns the observation node bound to rv, if any. Rules use
// it both to read data off observed likelihoods and to tell latent from
// observed: a variable with an observation is never a synthesis target.
func (t *Tracker) ObservationOf(rv graph.NodeID) (graph.NodeID, bool) {
	id, ok := t.observations[rv]
	return id, ok
}

// TrackerOf finds the tracker attached to fg.
func TrackerOf(fg *graph.FGraph) (*Tracker, bool) {
	f, ok := fg.FeatureByID(TrackerID)
	if !ok {
		return nil, false
	}
	t, ok := f.(*Tracker)
	return t, ok
}
