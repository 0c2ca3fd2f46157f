package qpersist

import (
	"fmt"
	"math"
)

const (
	// EigenFloor is the numerical-noise floor below which an eigenvalue
	// counts as exactly zero.
	EigenFloor = 1e-12

	// SymmetryTolerance bounds |S(A) - S(B)| for a pure bipartite register.
	SymmetryTolerance = 1e-6
)

/*
Correlation holds the bipartite entropies of a pure register and the mutual
information they imply.
*/
type Correlation struct {
	EntropyA          float64 `json:"s_a" yaml:"s_a"`
	EntropyB          float64 `json:"s_b" yaml:"s_b"`
	MutualInformation float64 `json:"mi" yaml:"mi"`
}

/*
Reduce traces out every subsystem not in subset and returns the reduced
density matrix. Bit k of a reduced index is subset[k].
*/
func Reduce(r *Register, subset []int) (*DensityMatrix, error) {
	seen := make([]bool, r.n)
	for _, q := range subset {
		if q < 0 || q >= r.n {
			return nil, fmt.Errorf("%w: subset references subsystem %d of %d", ErrQubitRange, q, r.n)
		}
		if seen[q] {
			return nil, fmt.Errorf("%w: subsystem %d listed twice", ErrPartition, q)
		}
		seen[q] = true
	}

	env := make([]int, 0, r.n-len(subset))
	for q := 0; q < r.n; q++ {
		if !seen[q] {
			env = append(env, q)
		}
	}

	sys := scatter(subset)
	rest := scatter(env)
	rho := newDensityMatrix(len(sys))

	for _, e := range rest {
		for i, si := range sys {
			ai := r.amps[si|e]
			if ai == 0 {
				continue
			}
			for j, sj := range sys {
				aj := r.amps[sj|e]
				rho.add(i, j, ai*complex(real(aj), -imag(aj)))
			}
		}
	}
	return rho, nil
}

/*
scatter maps every local index over qubits to the full-register index that
carries the same bits at those subsystem positions.
*/
func scatter(qubits []int) []int {
	out := make([]int, 1<<len(qubits))
	for local := range out {
		full := 0
		for k, q := range qubits {
			if local&(1<<k) != 0 {
				full |= 1 << q
			}
		}
		out[local] = full
	}
	return out
}

/*
Entropy returns the von Neumann entropy of rho in bits. Eigenvalues are clipped
to [0, 1], renormalized to sum to 1, and those at or below EigenFloor are
skipped. Renormalizing keeps degenerate spectra exact, so a maximally mixed
state of d levels reports exactly log2(d).
*/
func Entropy(rho *DensityMatrix) (float64, error) {
	values, err := rho.Eigenvalues()
	if err != nil {
		return 0, err
	}

	var total float64
	for i, v := range values {
		values[i] = clipUnit(v)
		total += values[i]
	}
	if total <= EigenFloor {
		return 0, nil
	}

	var s float64
	for _, v := range values {
		v /= total
		if v <= EigenFloor {
			continue
		}
		s -= v * math.Log2(v)
	}
	return math.Max(0, s), nil
}

/*
MutualInformation returns I(A;B) = S(A) + S(B) for a pure register split into
a and b. The joint entropy of a pure state is zero and is not estimated.
*/
func MutualInformation(r *Register, a, b []int) (float64, error) {
	c, err := Correlate(r, Partition{A: a, B: b})
	if err != nil {
		return 0, err
	}
	return c.MutualInformation, nil
}

// Correlate computes S(A), S(B) and I(A;B) for the partition.
func Correlate(r *Register, p Partition) (Correlation, error) {
	if err := p.Validate(r.n); err != nil {
		return Correlation{}, err
	}

	sa, err := subsetEntropy(r, p.A)
	if err != nil {
		return Correlation{}, err
	}
	sb, err := subsetEntropy(r, p.B)
	if err != nil {
		return Correlation{}, err
	}

	if math.Abs(sa-sb) > SymmetryTolerance {
		return Correlation{}, fmt.Errorf("%w: S(A)=%.9f S(B)=%.9f", ErrAsymmetricEntropy, sa, sb)
	}

	return Correlation{EntropyA: sa, EntropyB: sb, MutualInformation: sa + sb}, nil
}

func subsetEntropy(r *Register, subset []int) (float64, error) {
	rho, err := Reduce(r, subset)
	if err != nil {
		return 0, err
	}
	return Entropy(rho)
}
