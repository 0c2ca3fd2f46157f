package qpersist

import (
	"fmt"
	"math"
	"math/rand/v2"
)

/*
Generator builds a circuit from a configuration and a seed. Generators are pure
functions of their arguments: the same (cfg, seed) always yields the same gates.
*/
type Generator func(cfg *Config, seed int64) (*Circuit, error)

// GeneratorFor returns the generator registered for a family.
func GeneratorFor(family Family) (Generator, error) {
	switch family {
	case FamilyStructured:
		return Structured, nil
	case FamilyRandomized:
		return Randomized, nil
	case FamilySelfReferential:
		return SelfReferential, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
}

/*
BellPairs entangles A[i] with its partner A[i]+|A| for every i below
min(|A|, |B|), then places a barrier.
*/
func BellPairs(cfg *Config) (*Circuit, error) {
	p, err := cfg.Partition()
	if err != nil {
		return nil, err
	}
	b := NewBuilder(cfg.Qubits, 0).WithFamily(FamilyStructured)
	bellPairs(b, p)
	return b.Build()
}

/*
Structured builds Bell pairs across the partition, then only ever acts inside A
or inside B: RotationLayers layers of RY/RZ on every subsystem followed by
EntanglingLayers layers of CZ chains within each half.
*/
func Structured(cfg *Config, seed int64) (*Circuit, error) {
	p, err := cfg.Partition()
	if err != nil {
		return nil, err
	}
	rng := newSource(seed)

	b := NewBuilder(cfg.Qubits, 0).WithSeed(seed).WithFamily(FamilyStructured)
	bellPairs(b, p)
	localTail(b, cfg, p, rng)
	return b.Build()
}

/*
Randomized matches Structured in depth and two-subsystem gate count, but draws
every two-subsystem gate from random pairings of all subsystems, so some of
them cross the partition.
*/
func Randomized(cfg *Config, seed int64) (*Circuit, error) {
	p, err := cfg.Partition()
	if err != nil {
		return nil, err
	}
	rng := newSource(seed)
	n := cfg.Qubits

	b := NewBuilder(n, 0).WithSeed(seed).WithFamily(FamilyRandomized)

	rotationLayer(b, n, rng)
	pairs := newPairDraw(n, rng)
	for k := 0; k < pairCount(p); k++ {
		control, target := pairs.next()
		b.CX(control, target)
	}
	b.Barrier()

	for layer := 0; layer < cfg.RotationLayers; layer++ {
		rotationLayer(b, n, rng)
		b.Barrier()
	}

	perLayer := len(intraChain(p))
	for layer := 0; layer < cfg.EntanglingLayers; layer++ {
		pairs := newPairDraw(n, rng)
		for k := 0; k < perLayer; k++ {
			control, target := pairs.next()
			b.CZ(control, target)
		}
		b.Barrier()
	}

	return b.Build()
}

/*
SelfReferential inserts mid-circuit feed-forward after the Bell pairs: A[0] and
A[1] are measured into c0 and c1, A[0]'s partner receives X when c0 = 1 and
A[1]'s partner receives Z when c1 = 1. The structured local tail follows.
*/
func SelfReferential(cfg *Config, seed int64) (*Circuit, error) {
	p, err := cfg.Partition()
	if err != nil {
		return nil, err
	}
	if pairCount(p) < 2 {
		return nil, fmt.Errorf("%w: self-referential circuit needs two Bell pairs, partition has %d", ErrConfig, pairCount(p))
	}
	rng := newSource(seed)

	b := NewBuilder(cfg.Qubits, 2).WithSeed(seed).WithFamily(FamilySelfReferential)
	bellPairs(b, p)

	b.Measure(p.A[0], 0).Measure(p.A[1], 1)
	b.If(0, true, X(p.B[0]))
	b.If(1, true, Z(p.B[1]))
	b.Barrier()

	localTail(b, cfg, p, rng)
	return b.Build()
}

func pairCount(p Partition) int {
	return min(len(p.A), len(p.B))
}

func bellPairs(b *Builder, p Partition) {
	for i := 0; i < pairCount(p); i++ {
		b.H(p.A[i]).CX(p.A[i], p.B[i])
	}
	b.Barrier()
}

func localTail(b *Builder, cfg *Config, p Partition, rng *rand.Rand) {
	for layer := 0; layer < cfg.RotationLayers; layer++ {
		rotationLayer(b, cfg.Qubits, rng)
		b.Barrier()
	}

	chain := intraChain(p)
	for layer := 0; layer < cfg.EntanglingLayers; layer++ {
		b.Add(chain...)
		b.Barrier()
	}
}

/*
rotationLayer draws all RY angles for the layer, then all RZ angles, and
emits RY/RZ per subsystem.
*/
func rotationLayer(b *Builder, n int, rng *rand.Rand) {
	ys := make([]float64, n)
	zs := make([]float64, n)
	for q := range ys {
		ys[q] = rng.Float64() * 2 * math.Pi
	}
	for q := range zs {
		zs[q] = rng.Float64() * 2 * math.Pi
	}
	for q := 0; q < n; q++ {
		b.RY(q, ys[q]).RZ(q, zs[q])
	}
}

// intraChain is the nearest-neighbour CZ chain inside A followed by inside B.
func intraChain(p Partition) []Gate {
	chain := make([]Gate, 0, len(p.A)+len(p.B))
	for _, half := range [][]int{p.A, p.B} {
		for i := 0; i+1 < len(half); i++ {
			chain = append(chain, CZ(half[i], half[i+1]))
		}
	}
	return chain
}

/*
pairDraw hands out disjoint pairs from a random shuffle of all subsystems,
reshuffling once a pairing is exhausted.
*/
type pairDraw struct {
	n     int
	rng   *rand.Rand
	order []int
	pos   int
}

func newPairDraw(n int, rng *rand.Rand) *pairDraw {
	d := &pairDraw{n: n, rng: rng}
	d.shuffle()
	return d
}

func (d *pairDraw) shuffle() {
	d.order = make([]int, d.n)
	for i := range d.order {
		d.order[i] = i
	}
	d.rng.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
	d.pos = 0
}

func (d *pairDraw) next() (int, int) {
	if d.pos+1 >= len(d.order) {
		d.shuffle()
	}
	a, b := d.order[d.pos], d.order[d.pos+1]
	d.pos += 2
	return a, b
}
