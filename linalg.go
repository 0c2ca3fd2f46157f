package qpersist

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

/*
DensityMatrix is a dense, row-major complex matrix describing the state of a
subset of subsystems.
*/
type DensityMatrix struct {
	dim  int
	data []complex128
}

func newDensityMatrix(dim int) *DensityMatrix {
	return &DensityMatrix{dim: dim, data: make([]complex128, dim*dim)}
}

func (d *DensityMatrix) Dim() int                   { return d.dim }
func (d *DensityMatrix) At(i, j int) complex128     { return d.data[i*d.dim+j] }
func (d *DensityMatrix) add(i, j int, v complex128) { d.data[i*d.dim+j] += v }

// Trace returns the sum of the diagonal.
func (d *DensityMatrix) Trace() complex128 {
	var tr complex128
	for i := 0; i < d.dim; i++ {
		tr += d.At(i, i)
	}
	return tr
}

// IsHermitian reports whether d equals its conjugate transpose within tol.
func (d *DensityMatrix) IsHermitian(tol float64) bool {
	for i := 0; i < d.dim; i++ {
		for j := i; j < d.dim; j++ {
			if cmplx.Abs(d.At(i, j)-cmplx.Conj(d.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

/*
Eigenvalues returns the eigenvalues of the Hermitian matrix in ascending order.

A Hermitian H = A + iB has the same spectrum as the real symmetric matrix
[[A, -B], [B, A]], with every eigenvalue doubled. gonum factorizes the real
embedding and adjacent pairs are averaged back into one value each.
*/
func (d *DensityMatrix) Eigenvalues() ([]float64, error) {
	n := d.dim
	embed := mat.NewSymDense(2*n, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			hij, hji := d.At(i, j), d.At(j, i)
			if j >= i {
				re := (real(hij) + real(hji)) / 2
				embed.SetSym(i, j, re)
				embed.SetSym(i+n, j+n, re)
			}
			embed.SetSym(i+n, j, (imag(hij)-imag(hji))/2)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(embed, false); !ok {
		return nil, fmt.Errorf("eigen decomposition of %dx%d reduced state did not converge", n, n)
	}

	doubled := es.Values(nil)
	sort.Float64s(doubled)

	values := make([]float64, n)
	for k := 0; k < n; k++ {
		values[k] = (doubled[2*k] + doubled[2*k+1]) / 2
	}
	return values, nil
}

// clipUnit clamps roundoff outside [0, 1] back onto the interval.
func clipUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
