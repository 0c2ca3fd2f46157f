package qpersist

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// MaxQubits bounds the register size so the amplitude buffer stays in memory.
const MaxQubits = 24

/*
Register is the state vector of n two-level subsystems together with the
classical bits written by measurements.

Bit i of a basis index is subsystem i, subsystem 0 being least significant.
Reduce uses the same convention.
*/
type Register struct {
	n      int
	amps   []complex128
	clbits []bool
}

// NewRegister returns |0...0⟩ over n subsystems with clbits classical bits.
func NewRegister(n, clbits int) (*Register, error) {
	if n <= 0 || n > MaxQubits {
		return nil, fmt.Errorf("%w: register size %d not in [1, %d]", ErrConfig, n, MaxQubits)
	}
	if clbits < 0 {
		return nil, fmt.Errorf("%w: negative classical bit count %d", ErrConfig, clbits)
	}

	amps := make([]complex128, 1<<n)
	amps[0] = 1

	return &Register{
		n:      n,
		amps:   amps,
		clbits: make([]bool, clbits),
	}, nil
}

/*
Simulate runs the circuit on a fresh register. Measurement outcomes are drawn
from a source seeded with the circuit's seed, so the same circuit always
produces the same amplitudes.
*/
func Simulate(c *Circuit) (*Register, error) {
	reg, err := NewRegister(c.Qubits(), c.Clbits())
	if err != nil {
		return nil, err
	}

	rng := measurementSource(c.Seed())
	for i, g := range c.gates {
		if err := reg.Apply(g, rng); err != nil {
			return nil, fmt.Errorf("gate %d (%s): %w", i, g, err)
		}
	}
	return reg, nil
}

func (r *Register) Qubits() int { return r.n }

// Amplitudes returns a copy of the state vector.
func (r *Register) Amplitudes() []complex128 {
	out := make([]complex128, len(r.amps))
	copy(out, r.amps)
	return out
}

// Outcomes returns a copy of the classical store.
func (r *Register) Outcomes() []bool {
	out := make([]bool, len(r.clbits))
	copy(out, r.clbits)
	return out
}

// Norm returns the L2 norm of the state vector.
func (r *Register) Norm() float64 {
	var sum float64
	for _, a := range r.amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

/*
Apply performs one gate. rng is only consulted by measurements and may be nil
for circuits without them.
*/
func (r *Register) Apply(g Gate, rng *rand.Rand) error {
	if err := g.Validate(r.n, len(r.clbits)); err != nil {
		return err
	}

	switch g.Op {
	case OpBarrier:
		return nil
	case OpRotation, OpHadamard, OpPauli:
		u, err := g.Matrix()
		if err != nil {
			return err
		}
		r.applySingle(g.Target, u)
	case OpCX:
		r.applyCX(g.Control, g.Target)
	case OpCZ:
		r.applyCZ(g.Control, g.Target)
	case OpMeasure:
		if rng == nil {
			return fmt.Errorf("%w: measurement needs a random source", ErrGate)
		}
		r.clbits[g.Clbit] = r.measure(g.Target, rng) == 1
	case OpConditional:
		if r.clbits[g.Clbit] != g.Expect {
			return nil
		}
		return r.Apply(*g.Inner, rng)
	}
	return nil
}

// applySingle updates every amplitude pair (i, i|bit) in place.
func (r *Register) applySingle(q int, u Unitary) {
	bit := 1 << q
	for i := range r.amps {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a0, a1 := r.amps[i], r.amps[j]
		r.amps[i] = u[0][0]*a0 + u[0][1]*a1
		r.amps[j] = u[1][0]*a0 + u[1][1]*a1
	}
}

func (r *Register) applyCX(control, target int) {
	cbit := 1 << control
	tbit := 1 << target
	for i := range r.amps {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			r.amps[i], r.amps[j] = r.amps[j], r.amps[i]
		}
	}
}

func (r *Register) applyCZ(control, target int) {
	mask := 1<<control | 1<<target
	for i := range r.amps {
		if i&mask == mask {
			r.amps[i] = -r.amps[i]
		}
	}
}

// Probability returns the Born-rule probability that subsystem q reads 1.
func (r *Register) Probability(q int) float64 {
	bit := 1 << q
	var p float64
	for i, a := range r.amps {
		if i&bit != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

/*
Fidelity returns |⟨a|b⟩|² clamped to [0, 1]. Registers of different size have
fidelity 0.
*/
func Fidelity(a, b *Register) float64 {
	if a.n != b.n {
		return 0
	}

	var overlap complex128
	for i := range a.amps {
		overlap += cmplx.Conj(a.amps[i]) * b.amps[i]
	}

	f := real(overlap)*real(overlap) + imag(overlap)*imag(overlap)
	return math.Min(1, math.Max(0, f))
}
