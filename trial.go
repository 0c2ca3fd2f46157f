package qpersist

import "fmt"

// RetentionFloor is the mi_pre below which the retention ratio is reported as 0.
const RetentionFloor = 1e-10

/*
Trial is the outcome of one build-measure-perturb-remeasure cycle.
*/
type Trial struct {
	Family    Family  `json:"type" yaml:"type"`
	Seed      int64   `json:"seed" yaml:"seed"`
	MIPre     float64 `json:"mi_pre" yaml:"mi_pre"`
	MIPost    float64 `json:"mi_post" yaml:"mi_post"`
	Retention float64 `json:"R" yaml:"R"`
	Fidelity  float64 `json:"F" yaml:"F"`
}

/*
RunTrial generates the family's circuit for seed, measures I(A;B), perturbs the
circuit, measures again and compares the two final states.
*/
func RunTrial(family Family, cfg *Config, seed int64) (Trial, error) {
	generate, err := GeneratorFor(family)
	if err != nil {
		return Trial{}, err
	}
	p, err := cfg.Partition()
	if err != nil {
		return Trial{}, err
	}

	circuit, err := generate(cfg, seed)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}
	pre, err := Simulate(circuit)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}
	before, err := Correlate(pre, p)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}

	perturbed, err := Perturb(circuit, cfg, seed)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}
	post, err := Simulate(perturbed)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}
	after, err := Correlate(post, p)
	if err != nil {
		return Trial{}, fmt.Errorf("%s seed %d: %w", family, seed, err)
	}

	return Trial{
		Family:    family,
		Seed:      seed,
		MIPre:     before.MutualInformation,
		MIPost:    after.MutualInformation,
		Retention: retention(before.MutualInformation, after.MutualInformation),
		Fidelity:  Fidelity(pre, post),
	}, nil
}

func retention(pre, post float64) float64 {
	if pre < RetentionFloor {
		return 0
	}
	return post / pre
}
