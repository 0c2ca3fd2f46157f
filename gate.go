package qpersist

import (
	"fmt"
)

// Op tags the kind of operation a Gate performs.
type Op uint8

const (
	OpRotation Op = iota
	OpHadamard
	OpPauli
	OpCX
	OpCZ
	OpMeasure
	OpConditional
	OpBarrier
)

var opNames = map[Op]string{
	OpRotation:    "r",
	OpHadamard:    "h",
	OpPauli:       "pauli",
	OpCX:          "cx",
	OpCZ:          "cz",
	OpMeasure:     "measure",
	OpConditional: "c_if",
	OpBarrier:     "barrier",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Axis selects the Pauli axis of a rotation or Pauli gate.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

/*
Gate is a single tagged operation in a Circuit.

Only the fields relevant to Op are meaningful:
  - Rotation: Axis, Angle, Target
  - Hadamard: Target
  - Pauli: Axis, Target
  - CX / CZ: Control, Target
  - Measure: Target, Clbit
  - Conditional: Clbit, Expect, Inner (a single-subsystem gate)
  - Barrier: nothing

Gates are values; a Conditional shares its Inner gate, which is never mutated.
*/
type Gate struct {
	Op      Op
	Axis    Axis
	Angle   float64
	Target  int
	Control int
	Clbit   int
	Expect  bool
	Inner   *Gate
}

func RX(q int, theta float64) Gate { return Gate{Op: OpRotation, Axis: AxisX, Angle: theta, Target: q} }
func RY(q int, theta float64) Gate { return Gate{Op: OpRotation, Axis: AxisY, Angle: theta, Target: q} }
func RZ(q int, theta float64) Gate { return Gate{Op: OpRotation, Axis: AxisZ, Angle: theta, Target: q} }
func H(q int) Gate                 { return Gate{Op: OpHadamard, Target: q} }
func X(q int) Gate                 { return Gate{Op: OpPauli, Axis: AxisX, Target: q} }
func Z(q int) Gate                 { return Gate{Op: OpPauli, Axis: AxisZ, Target: q} }
func CX(control, target int) Gate  { return Gate{Op: OpCX, Control: control, Target: target} }
func CZ(control, target int) Gate  { return Gate{Op: OpCZ, Control: control, Target: target} }
func Measure(q, clbit int) Gate    { return Gate{Op: OpMeasure, Target: q, Clbit: clbit} }
func Barrier() Gate                { return Gate{Op: OpBarrier} }

// If wraps a single-subsystem gate so it only fires when clbit reads expect.
func If(clbit int, expect bool, inner Gate) Gate {
	return Gate{Op: OpConditional, Clbit: clbit, Expect: expect, Inner: &inner}
}

// IsSingle reports whether the gate acts on exactly one subsystem unitarily.
func (g Gate) IsSingle() bool {
	return g.Op == OpRotation || g.Op == OpHadamard || g.Op == OpPauli
}

// IsTwoQubit reports whether the gate couples two subsystems.
func (g Gate) IsTwoQubit() bool {
	return g.Op == OpCX || g.Op == OpCZ
}

/*
Qubits returns the subsystem indices the gate touches. A Conditional reports
the subsystems of its payload; a Barrier touches nothing.
*/
func (g Gate) Qubits() []int {
	switch {
	case g.IsTwoQubit():
		return []int{g.Control, g.Target}
	case g.Op == OpBarrier:
		return nil
	case g.Op == OpConditional:
		if g.Inner == nil {
			return nil
		}
		return g.Inner.Qubits()
	default:
		return []int{g.Target}
	}
}

// Matrix returns the 2x2 unitary of a single-subsystem gate.
func (g Gate) Matrix() (Unitary, error) {
	switch g.Op {
	case OpRotation:
		return Rotation(g.Axis, g.Angle), nil
	case OpHadamard:
		return Hadamard(), nil
	case OpPauli:
		return Pauli(g.Axis), nil
	}
	return Unitary{}, fmt.Errorf("%w: %s has no single-subsystem matrix", ErrGate, g.Op)
}

/*
Validate checks the gate against a register of n subsystems and clbits
classical bits.
*/
func (g Gate) Validate(n, clbits int) error {
	inRange := func(q int) error {
		if q < 0 || q >= n {
			return fmt.Errorf("%w: %s references subsystem %d of %d", ErrQubitRange, g, q, n)
		}
		return nil
	}

	switch g.Op {
	case OpBarrier:
		return nil
	case OpRotation, OpHadamard, OpPauli:
		return inRange(g.Target)
	case OpCX, OpCZ:
		if err := inRange(g.Control); err != nil {
			return err
		}
		if err := inRange(g.Target); err != nil {
			return err
		}
		if g.Control == g.Target {
			return fmt.Errorf("%w: %s uses subsystem %d twice", ErrGate, g.Op, g.Target)
		}
		return nil
	case OpMeasure:
		if err := inRange(g.Target); err != nil {
			return err
		}
	case OpConditional:
		if g.Inner == nil || !g.Inner.IsSingle() {
			return fmt.Errorf("%w: conditional payload must be a single-subsystem gate", ErrGate)
		}
		if err := g.Inner.Validate(n, clbits); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown op %d", ErrGate, uint8(g.Op))
	}

	if g.Clbit < 0 || g.Clbit >= clbits {
		return fmt.Errorf("%w: %s references classical bit %d of %d", ErrQubitRange, g.Op, g.Clbit, clbits)
	}
	return nil
}

func (g Gate) String() string {
	switch g.Op {
	case OpRotation:
		return fmt.Sprintf("r%s(%.6f) q%d", g.Axis, g.Angle, g.Target)
	case OpHadamard:
		return fmt.Sprintf("h q%d", g.Target)
	case OpPauli:
		return fmt.Sprintf("%s q%d", g.Axis, g.Target)
	case OpCX, OpCZ:
		return fmt.Sprintf("%s q%d,q%d", g.Op, g.Control, g.Target)
	case OpMeasure:
		return fmt.Sprintf("measure q%d -> c%d", g.Target, g.Clbit)
	case OpConditional:
		expect := 0
		if g.Expect {
			expect = 1
		}
		if g.Inner == nil {
			return fmt.Sprintf("c_if(c%d==%d) <nil>", g.Clbit, expect)
		}
		return fmt.Sprintf("%s c_if(c%d==%d)", g.Inner, g.Clbit, expect)
	case OpBarrier:
		return "barrier"
	}
	return g.Op.String()
}
