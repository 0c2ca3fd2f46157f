package qpersist

import (
	"fmt"
	"strings"
)

// Family tags the construction a circuit came from.
type Family string

const (
	FamilyStructured      Family = "structured"
	FamilyRandomized      Family = "randomised"
	FamilySelfReferential Family = "self_referential"
	FamilyCustom          Family = "custom"
)

/*
Circuit is an immutable, ordered sequence of gates over a fixed number of
subsystems and classical bits.

A Circuit remembers the seed it was generated from. The engine seeds its
measurement source from it, so a circuit and every extension of it sample the
same mid-circuit outcomes.
*/
type Circuit struct {
	qubits int
	clbits int
	seed   int64
	family Family
	gates  []Gate
}

func (c *Circuit) Qubits() int    { return c.qubits }
func (c *Circuit) Clbits() int    { return c.clbits }
func (c *Circuit) Seed() int64    { return c.seed }
func (c *Circuit) Family() Family { return c.family }
func (c *Circuit) Len() int       { return len(c.gates) }

// Gates returns a copy of the gate sequence.
func (c *Circuit) Gates() []Gate {
	out := make([]Gate, len(c.gates))
	copy(out, c.gates)
	return out
}

// TwoQubitCount returns the number of CX and CZ gates.
func (c *Circuit) TwoQubitCount() int {
	count := 0
	for _, g := range c.gates {
		if g.IsTwoQubit() {
			count++
		}
	}
	return count
}

/*
Layers splits the circuit at its barriers. Empty segments (two barriers in a
row, or a leading/trailing barrier) are dropped.
*/
func (c *Circuit) Layers() [][]Gate {
	layers := make([][]Gate, 0)
	current := make([]Gate, 0)

	for _, g := range c.gates {
		if g.Op == OpBarrier {
			if len(current) > 0 {
				layers = append(layers, current)
				current = make([]Gate, 0)
			}
			continue
		}
		current = append(current, g)
	}

	if len(current) > 0 {
		layers = append(layers, current)
	}
	return layers
}

/*
Extend returns a new circuit made of c followed by gates. The receiver is left
untouched and the result keeps c's seed and family.
*/
func (c *Circuit) Extend(gates ...Gate) (*Circuit, error) {
	out := &Circuit{
		qubits: c.qubits,
		clbits: c.clbits,
		seed:   c.seed,
		family: c.family,
		gates:  make([]Gate, 0, len(c.gates)+len(gates)),
	}
	out.gates = append(out.gates, c.gates...)
	out.gates = append(out.gates, gates...)

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks every gate against the circuit's register shape.
func (c *Circuit) Validate() error {
	if c.qubits <= 0 {
		return fmt.Errorf("%w: circuit needs at least one subsystem", ErrConfig)
	}
	for i, g := range c.gates {
		if err := g.Validate(c.qubits, c.clbits); err != nil {
			return fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return nil
}

func (c *Circuit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit %s (qubits=%d clbits=%d seed=%d)\n", c.family, c.qubits, c.clbits, c.seed)
	for _, g := range c.gates {
		sb.WriteString("  ")
		sb.WriteString(g.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

/*
Builder accumulates gates for a Circuit. Build validates and freezes the
result; the builder may not be reused afterwards.
*/
type Builder struct {
	circuit *Circuit
}

// NewBuilder starts a circuit over qubits subsystems and clbits classical bits.
func NewBuilder(qubits, clbits int) *Builder {
	return &Builder{
		circuit: &Circuit{
			qubits: qubits,
			clbits: clbits,
			family: FamilyCustom,
			gates:  make([]Gate, 0),
		},
	}
}

// WithSeed records the seed the circuit is generated from.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.circuit.seed = seed
	return b
}

// WithFamily tags the circuit.
func (b *Builder) WithFamily(family Family) *Builder {
	b.circuit.family = family
	return b
}

// Add appends arbitrary gates.
func (b *Builder) Add(gates ...Gate) *Builder {
	b.circuit.gates = append(b.circuit.gates, gates...)
	return b
}

func (b *Builder) H(q int) *Builder                 { return b.Add(H(q)) }
func (b *Builder) X(q int) *Builder                 { return b.Add(X(q)) }
func (b *Builder) Z(q int) *Builder                 { return b.Add(Z(q)) }
func (b *Builder) RX(q int, theta float64) *Builder { return b.Add(RX(q, theta)) }
func (b *Builder) RY(q int, theta float64) *Builder { return b.Add(RY(q, theta)) }
func (b *Builder) RZ(q int, theta float64) *Builder { return b.Add(RZ(q, theta)) }
func (b *Builder) CX(control, target int) *Builder  { return b.Add(CX(control, target)) }
func (b *Builder) CZ(control, target int) *Builder  { return b.Add(CZ(control, target)) }
func (b *Builder) Measure(q, clbit int) *Builder    { return b.Add(Measure(q, clbit)) }
func (b *Builder) Barrier() *Builder                { return b.Add(Barrier()) }

// If appends a classically-conditioned single-subsystem gate.
func (b *Builder) If(clbit int, expect bool, inner Gate) *Builder {
	return b.Add(If(clbit, expect, inner))
}

// Build validates and returns the circuit.
func (b *Builder) Build() (*Circuit, error) {
	if err := b.circuit.Validate(); err != nil {
		return nil, err
	}
	c := b.circuit
	b.circuit = nil
	return c, nil
}
