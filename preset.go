package qpersist

import (
	"fmt"
	"sort"
)

/*
presets map a name to a configuration. The debug and sanity presets trace a
single register stage by stage; full runs the complete two-family batch.
*/
var presets = map[string]func() *Config{
	"debug": func() *Config {
		cfg := NewConfig()
		cfg.Mode = ModeTrace
		cfg.Qubits, cfg.QubitsA, cfg.QubitsB = 2, 1, 1
		cfg.RotationLayers = 1
		cfg.EntanglingLayers = 1
		cfg.ExperimentTrials, cfg.RandomTrials = 1, 1
		return cfg
	},
	"sanity": func() *Config {
		cfg := NewConfig()
		cfg.Mode = ModeTrace
		cfg.RotationLayers = 1
		cfg.ExperimentTrials, cfg.RandomTrials = 1, 1
		return cfg
	},
	"full": NewConfig,
}

// Preset returns a fresh copy of the named configuration.
func Preset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return build(), nil
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
