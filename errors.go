package qpersist

import "errors"

var (
	// ErrConfig is returned when a configuration value fails validation.
	ErrConfig = errors.New("invalid configuration")

	// ErrPartition is returned when the two halves of a partition do not
	// cover the register exactly once.
	ErrPartition = errors.New("invalid partition")

	// ErrQubitRange is returned when a gate or subset references a subsystem
	// or classical bit that the register does not have.
	ErrQubitRange = errors.New("subsystem index out of range")

	// ErrGate is returned for structurally malformed gates.
	ErrGate = errors.New("malformed gate")

	// ErrAsymmetricEntropy signals that S(A) and S(B) disagree on a register
	// that should be pure.
	ErrAsymmetricEntropy = errors.New("bipartite entropies disagree")

	// ErrUnknownFamily is returned for a circuit family tag with no generator.
	ErrUnknownFamily = errors.New("unknown circuit family")

	// ErrUnknownPreset is returned for a preset name that is not registered.
	ErrUnknownPreset = errors.New("unknown preset")
)
