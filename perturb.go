package qpersist

import "math/rand/v2"

/*
Perturb derives the interference circuit from c: it re-applies the final
intra-partition CZ layers (CZ is its own inverse, so re-application undoes
them) and then rotates every subsystem by small RX, RY and RZ angles drawn from
N(0, σ²).

The noise source is seeded with seed + PerturbationSeedOffset so it never
replays the generator's draws. c is not modified; a new circuit is returned.
*/
func Perturb(c *Circuit, cfg *Config, seed int64) (*Circuit, error) {
	p, err := cfg.Partition()
	if err != nil {
		return nil, err
	}
	rng := newSource(seed + cfg.PerturbationSeedOffset)

	chain := intraChain(p)
	layers := cfg.ReversalLayers()
	gates := make([]Gate, 0, layers*(len(chain)+1)+1+3*cfg.Qubits)

	for layer := 0; layer < layers; layer++ {
		gates = append(gates, Barrier())
		gates = append(gates, chain...)
	}
	gates = append(gates, Barrier())
	gates = append(gates, noiseLayer(cfg.Qubits, cfg.PerturbationSigma, rng)...)

	return c.Extend(gates...)
}

// noiseLayer draws RX, RY, RZ angles ~ N(0, σ²) for each subsystem in turn.
func noiseLayer(n int, sigma float64, rng *rand.Rand) []Gate {
	gates := make([]Gate, 0, 3*n)
	for q := 0; q < n; q++ {
		gates = append(gates,
			RX(q, rng.NormFloat64()*sigma),
			RY(q, rng.NormFloat64()*sigma),
			RZ(q, rng.NormFloat64()*sigma),
		)
	}
	return gates
}
