package qpersist

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZFloor is the randomized-family spread below which the z-score is 0.
const ZFloor = 1e-10

// Summary is the mean and population standard deviation of one quantity.
type Summary struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	N    int     `json:"n" yaml:"n"`
}

// FamilyStats summarizes every trial of one family.
type FamilyStats struct {
	MIPre     Summary `json:"mi_pre" yaml:"mi_pre"`
	MIPost    Summary `json:"mi_post" yaml:"mi_post"`
	Retention Summary `json:"R" yaml:"R"`
	Fidelity  Summary `json:"F" yaml:"F"`
}

/*
Statistics is the aggregate over a batch. ZScore compares post-perturbation
mutual information of the structured family against the randomized baseline.
*/
type Statistics struct {
	Structured      FamilyStats  `json:"structured" yaml:"structured"`
	Randomized      FamilyStats  `json:"randomised" yaml:"randomised"`
	SelfReferential *FamilyStats `json:"self_referential,omitempty" yaml:"self_referential,omitempty"`
	ZScore          float64      `json:"z_score" yaml:"z_score"`
}

/*
Summarize returns the mean and population standard deviation of xs. An empty
slice summarizes to zeros.
*/
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, variance := stat.PopMeanVariance(xs, nil)
	return Summary{Mean: mean, Std: math.Sqrt(math.Max(0, variance)), N: len(xs)}
}

// SummarizeTrials aggregates one family's trials.
func SummarizeTrials(trials []Trial) FamilyStats {
	pre := make([]float64, len(trials))
	post := make([]float64, len(trials))
	ret := make([]float64, len(trials))
	fid := make([]float64, len(trials))

	for i, t := range trials {
		pre[i], post[i], ret[i], fid[i] = t.MIPre, t.MIPost, t.Retention, t.Fidelity
	}

	return FamilyStats{
		MIPre:     Summarize(pre),
		MIPost:    Summarize(post),
		Retention: Summarize(ret),
		Fidelity:  Summarize(fid),
	}
}

// ZScore returns (structured.Mean - randomized.Mean) / randomized.Std, or 0.
func ZScore(structured, randomized Summary) float64 {
	if randomized.Std < ZFloor {
		return 0
	}
	return (structured.Mean - randomized.Mean) / randomized.Std
}

/*
ComputeStatistics aggregates a batch. The reduction only depends on the set of
trials per family, never on the order they completed in.
*/
func ComputeStatistics(b *Batch) Statistics {
	s := Statistics{
		Structured: SummarizeTrials(b.Structured),
		Randomized: SummarizeTrials(b.Randomized),
	}
	if len(b.SelfReferential) > 0 {
		self := SummarizeTrials(b.SelfReferential)
		s.SelfReferential = &self
	}
	s.ZScore = ZScore(s.Structured.MIPost, s.Randomized.MIPost)
	return s
}
