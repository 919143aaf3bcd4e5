// Package rand provides the stream of fresh symbolic names used when new
// variables are introduced during graph construction and rewriting.
package rand

import (
	"fmt"
	mrand "math/rand"
)

// Stream hands out fresh names, one counter per prefix, plus raw random
// draws for callers that need seed material. A Stream with a given seed is
// fully deterministic.
type Stream struct {
	counters map[string]int
	rng      *mrand.Rand
}

func NewStream(seed int64) *Stream {
	return &Stream{
		counters: make(map[string]int),
		rng:      mrand.New(mrand.NewSource(seed)),
	}
}

// Name returns prefix_N with N counting up from 0 per prefix.
func (s *Stream) Name(prefix string) string {
	n := s.counters[prefix]
	s.counters[prefix] = n + 1
	return fmt.Sprintf("%s_%d", prefix, n)
}

// Seed draws raw seed material, e.g. for keying a random-variable node.
func (s *Stream) Seed() int64 {
	return s.rng.Int63()
}
