// Package noise perturbs predictions with seeded Gaussian noise.
//
// It models the stochasticity of a forecasting model outside the scoring
// engine: predictions are perturbed first, then handed to scoring.Evaluate,
// which itself stays deterministic.
package noise

import (
	"math/rand/v2"
	"slices"
)

// Source is a deterministic noise generator. A Source is not safe for
// concurrent use; give each goroutine its own.
type Source struct {
	rng *rand.Rand
}

// New returns a Source whose sequence is fully determined by seed.
func New(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Perturb returns a copy of pred with N(0, stddev²) noise added to every
// value, clipped to [0, 1]. pred is not modified. A non-positive stddev
// returns an unmodified copy.
func (s *Source) Perturb(pred []float64, stddev float64) []float64 {
	out := slices.Clone(pred)
	if stddev <= 0 {
		return out
	}
	for i := range out {
		out[i] = clamp01(out[i] + s.rng.NormFloat64()*stddev)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
