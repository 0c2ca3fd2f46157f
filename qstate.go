package qpersist

import (
	"math"
	"math/rand/v2"
)

// streamSalt separates the PCG stream from the state word so seed 0 still
// yields a well-mixed source.
const streamSalt uint64 = 0x9e3779b97f4a7c15

// measureSalt moves measurement draws off the generator's stream for the same seed.
const measureSalt uint64 = 0xd1b54a32d192ed03

/*
newSource returns a private pseudorandom source for one call. Every generator,
perturbation and simulation builds its own; nothing draws from a shared global
source.
*/
func newSource(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^streamSalt))
}

// measurementSource is the source Simulate samples mid-circuit measurements from.
func measurementSource(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed)^measureSalt, uint64(seed)^streamSalt))
}

/*
measure samples subsystem q, collapses the register onto the observed branch
and renormalizes it. The outcome is 1 with the Born-rule marginal probability.
*/
func (r *Register) measure(q int, rng *rand.Rand) int {
	p1 := r.Probability(q)

	outcome := 0
	if rng.Float64() < p1 {
		outcome = 1
	}

	keep := 1 - p1
	if outcome == 1 {
		keep = p1
	}

	bit := 1 << q
	scale := complex(0, 0)
	if keep > 0 {
		scale = complex(1/math.Sqrt(keep), 0)
	}

	for i := range r.amps {
		if (i&bit != 0) == (outcome == 1) {
			r.amps[i] *= scale
		} else {
			r.amps[i] = 0
		}
	}

	return outcome
}
