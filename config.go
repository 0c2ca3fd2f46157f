package qpersist

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/theapemachine/errnie"
)

// Run modes.
const (
	ModeBatch = "batch"
	ModeTrace = "trace"
)

/*
Config holds every scalar knob of a run. It is passed explicitly into each
generator, perturbation and harness call; there is no process-wide copy.
*/
type Config struct {
	Mode string `mapstructure:"mode" json:"mode" yaml:"mode"`

	Qubits  int `mapstructure:"n_qubits" json:"n_qubits" yaml:"n_qubits"`
	QubitsA int `mapstructure:"n_qubits_a" json:"n_qubits_A" yaml:"n_qubits_A"`
	QubitsB int `mapstructure:"n_qubits_b" json:"n_qubits_B" yaml:"n_qubits_B"`

	CircuitDepth     int `mapstructure:"circuit_depth" json:"circuit_depth" yaml:"circuit_depth"`
	RotationLayers   int `mapstructure:"rotation_layers" json:"rotation_layers" yaml:"rotation_layers"`
	EntanglingLayers int `mapstructure:"entangling_layers" json:"entangling_layers" yaml:"entangling_layers"`

	RandomTrials           int  `mapstructure:"n_random_trials" json:"n_random_trials" yaml:"n_random_trials"`
	ExperimentTrials       int  `mapstructure:"n_experiment_trials" json:"n_experiment_trials" yaml:"n_experiment_trials"`
	IncludeSelfReferential bool `mapstructure:"include_self_referential" json:"include_self_referential" yaml:"include_self_referential"`

	ReversalFraction  float64 `mapstructure:"reversal_fraction" json:"reversal_fraction" yaml:"reversal_fraction"`
	PerturbationSigma float64 `mapstructure:"perturbation_sigma" json:"perturbation_sigma" yaml:"perturbation_sigma"`

	RandomSeed             int64 `mapstructure:"random_seed" json:"random_seed" yaml:"random_seed"`
	SeedOffset             int64 `mapstructure:"seed_offset" json:"seed_offset" yaml:"seed_offset"`
	PerturbationSeedOffset int64 `mapstructure:"perturbation_seed_offset" json:"perturbation_seed_offset" yaml:"perturbation_seed_offset"`

	// Declared for a gate-level noise model the simulator does not implement.
	ApplyNoise bool    `mapstructure:"apply_noise" json:"apply_noise" yaml:"apply_noise"`
	P1Error    float64 `mapstructure:"p1_error" json:"p1_error" yaml:"p1_error"`
	P2Error    float64 `mapstructure:"p2_error" json:"p2_error" yaml:"p2_error"`

	Workers          int `mapstructure:"workers" json:"workers" yaml:"workers"`
	ProgressInterval int `mapstructure:"progress_interval" json:"progress_interval" yaml:"progress_interval"`
}

/*
NewConfig returns the configuration of the full structure-persistence batch:
8 subsystems split 4+4, 100 trials per family, σ = 0.1 and seed 42.
*/
func NewConfig() *Config {
	return &Config{
		Mode:                   ModeBatch,
		Qubits:                 8,
		QubitsA:                4,
		QubitsB:                4,
		CircuitDepth:           12,
		RotationLayers:         6,
		EntanglingLayers:       3,
		RandomTrials:           100,
		ExperimentTrials:       100,
		ReversalFraction:       0.33,
		PerturbationSigma:      0.1,
		RandomSeed:             42,
		SeedOffset:             10000,
		PerturbationSeedOffset: 1000,
		ApplyNoise:             false,
		P1Error:                0.001,
		P2Error:                0.01,
		Workers:                runtime.NumCPU(),
		ProgressInterval:       25,
	}
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Partition returns the A/B split described by the configuration.
func (c *Config) Partition() (Partition, error) {
	return NewPartition(c.Qubits, c.QubitsA, c.QubitsB)
}

/*
ReversalLayers is the number of final entangling layers the perturbation
re-applies: ⌊reversal_fraction × circuit_depth⌋.
*/
func (c *Config) ReversalLayers() int {
	return int(math.Floor(c.ReversalFraction*float64(c.CircuitDepth) + 1e-9))
}

// Validate rejects configurations that would make any trial meaningless.
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeTrace {
		return fmt.Errorf("%w: mode %q", ErrConfig, c.Mode)
	}
	if c.Qubits <= 0 || c.Qubits > MaxQubits {
		return fmt.Errorf("%w: n_qubits=%d not in [1, %d]", ErrConfig, c.Qubits, MaxQubits)
	}
	if _, err := c.Partition(); err != nil {
		return err
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{c.CircuitDepth > 0, "circuit_depth must be positive"},
		{c.RotationLayers >= 0, "rotation_layers must not be negative"},
		{c.EntanglingLayers >= 0, "entangling_layers must not be negative"},
		{c.RandomTrials >= 0, "n_random_trials must not be negative"},
		{c.ExperimentTrials >= 0, "n_experiment_trials must not be negative"},
		{c.ReversalFraction >= 0 && c.ReversalFraction <= 1, "reversal_fraction must be in [0, 1]"},
		{c.PerturbationSigma >= 0, "perturbation_sigma must not be negative"},
		{c.SeedOffset > 0, "seed_offset must be positive"},
		{int64(c.RandomTrials) <= c.SeedOffset && int64(c.ExperimentTrials) <= c.SeedOffset,
			"trial counts must not exceed seed_offset or family seed ranges overlap"},
		{c.P1Error >= 0 && c.P1Error <= 1, "p1_error must be in [0, 1]"},
		{c.P2Error >= 0 && c.P2Error <= 1, "p2_error must be in [0, 1]"},
		{!c.IncludeSelfReferential || min(c.QubitsA, c.QubitsB) >= 2,
			"include_self_referential needs two Bell pairs"},
		{c.Workers >= 0, "workers must not be negative"},
		{c.ProgressInterval >= 0, "progress_interval must not be negative"},
	}

	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrConfig, check.msg)
		}
	}

	if c.ApplyNoise {
		errnie.Warn("apply_noise is set but the simulator applies no gate noise (p1=%v p2=%v)", c.P1Error, c.P2Error)
	}
	return nil
}

// Settings flattens the configuration into viper-style keys.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"mode":                     c.Mode,
		"n_qubits":                 c.Qubits,
		"n_qubits_a":               c.QubitsA,
		"n_qubits_b":               c.QubitsB,
		"circuit_depth":            c.CircuitDepth,
		"rotation_layers":          c.RotationLayers,
		"entangling_layers":        c.EntanglingLayers,
		"n_random_trials":          c.RandomTrials,
		"n_experiment_trials":      c.ExperimentTrials,
		"include_self_referential": c.IncludeSelfReferential,
		"reversal_fraction":        c.ReversalFraction,
		"perturbation_sigma":       c.PerturbationSigma,
		"random_seed":              c.RandomSeed,
		"seed_offset":              c.SeedOffset,
		"perturbation_seed_offset": c.PerturbationSeedOffset,
		"apply_noise":              c.ApplyNoise,
		"p1_error":                 c.P1Error,
		"p2_error":                 c.P2Error,
		"workers":                  c.Workers,
		"progress_interval":        c.ProgressInterval,
	}
}

/*
LoadConfig resolves a configuration from, in rising precedence: the base
configuration, the optional file at path, QPERSIST_* environment variables and
any flags the caller changed. Flags are matched to keys by name with dashes
read as underscores, so --n-random-trials sets n_random_trials.
*/
func LoadConfig(base *Config, path string, flags *pflag.FlagSet) (*Config, error) {
	if base == nil {
		base = NewConfig()
	}

	v := viper.New()
	for key, value := range base.Settings() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("QPERSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
		}
		errnie.Debug("loaded configuration from %s", v.ConfigFileUsed())
	}

	if flags != nil {
		known := base.Settings()
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := known[key]; !ok || !f.Changed {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

/*
Partition is the fixed split of the register into halves A and B.
*/
type Partition struct {
	A []int `json:"A" yaml:"A"`
	B []int `json:"B" yaml:"B"`
}

// NewPartition returns A = {0..sizeA-1}, B = {sizeA..n-1}.
func NewPartition(n, sizeA, sizeB int) (Partition, error) {
	if sizeA <= 0 || sizeB <= 0 || sizeA+sizeB != n {
		return Partition{}, fmt.Errorf("%w: sizes %d+%d do not split %d subsystems", ErrPartition, sizeA, sizeB, n)
	}

	p := Partition{A: make([]int, sizeA), B: make([]int, sizeB)}
	for i := range p.A {
		p.A[i] = i
	}
	for i := range p.B {
		p.B[i] = sizeA + i
	}
	return p, nil
}

// Validate checks that A and B are disjoint and together cover n subsystems.
func (p Partition) Validate(n int) error {
	if len(p.A) == 0 || len(p.B) == 0 || len(p.A)+len(p.B) != n {
		return fmt.Errorf("%w: |A|=%d |B|=%d for %d subsystems", ErrPartition, len(p.A), len(p.B), n)
	}

	seen := make([]bool, n)
	for _, q := range append(append([]int{}, p.A...), p.B...) {
		if q < 0 || q >= n {
			return fmt.Errorf("%w: partition references subsystem %d of %d", ErrQubitRange, q, n)
		}
		if seen[q] {
			return fmt.Errorf("%w: subsystem %d appears twice", ErrPartition, q)
		}
		seen[q] = true
	}
	return nil
}

// Side reports which half q belongs to: 'A', 'B', or 0.
func (p Partition) Side(q int) byte {
	for _, a := range p.A {
		if a == q {
			return 'A'
		}
	}
	for _, b := range p.B {
		if b == q {
			return 'B'
		}
	}
	return 0
}

// Crosses reports whether a gate touches both halves.
func (p Partition) Crosses(g Gate) bool {
	var sides [2]bool
	for _, q := range g.Qubits() {
		switch p.Side(q) {
		case 'A':
			sides[0] = true
		case 'B':
			sides[1] = true
		}
	}
	return sides[0] && sides[1]
}
