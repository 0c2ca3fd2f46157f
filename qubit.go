package qpersist

import (
	"math"
	"math/cmplx"
)

/*
Unitary is a 2x2 single-subsystem operator in the computational basis,
indexed as [row][column] with row 0 being |0⟩.
*/
type Unitary [2][2]complex128

// Hadamard returns H = 1/√2 * [1 1; 1 -1].
func Hadamard() Unitary {
	h := complex(1/math.Sqrt2, 0)
	return Unitary{{h, h}, {h, -h}}
}

/*
Rotation returns exp(-iθσ/2) for the Pauli operator σ selected by axis.
*/
func Rotation(axis Axis, theta float64) Unitary {
	c := math.Cos(theta / 2)
	s := math.Sin(theta / 2)

	switch axis {
	case AxisX:
		return Unitary{
			{complex(c, 0), complex(0, -s)},
			{complex(0, -s), complex(c, 0)},
		}
	case AxisY:
		return Unitary{
			{complex(c, 0), complex(-s, 0)},
			{complex(s, 0), complex(c, 0)},
		}
	default:
		return Unitary{
			{cmplx.Exp(complex(0, -theta/2)), 0},
			{0, cmplx.Exp(complex(0, theta/2))},
		}
	}
}

// Pauli returns the bare Pauli matrix for axis.
func Pauli(axis Axis) Unitary {
	switch axis {
	case AxisX:
		return Unitary{{0, 1}, {1, 0}}
	case AxisY:
		return Unitary{{0, -1i}, {1i, 0}}
	default:
		return Unitary{{1, 0}, {0, -1}}
	}
}

// Dagger returns the conjugate transpose.
func (u Unitary) Dagger() Unitary {
	return Unitary{
		{cmplx.Conj(u[0][0]), cmplx.Conj(u[1][0])},
		{cmplx.Conj(u[0][1]), cmplx.Conj(u[1][1])},
	}
}

// Mul returns the product u*v.
func (u Unitary) Mul(v Unitary) Unitary {
	var out Unitary
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = u[i][0]*v[0][j] + u[i][1]*v[1][j]
		}
	}
	return out
}
