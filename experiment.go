package qpersist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

/*
Batch is the complete record of one experiment run: the configuration it ran
with, every trial per family in seed order, and the aggregate statistics.
*/
type Batch struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Config          *Config
	Structured      []Trial
	Randomized      []Trial
	SelfReferential []Trial
	Stats           Statistics
	Pool            MetricsSnapshot
}

/*
TrialSpec is one planned trial. Seeds are assigned when the plan is built,
never from execution order.
*/
type TrialSpec struct {
	Family Family
	Round  int
	Seed   int64
}

func (ts TrialSpec) ID() string {
	return fmt.Sprintf("%s-%d", ts.Family, ts.Seed)
}

// Experiment drives the seeded trials of every family through the worker pool.
type Experiment struct {
	cfg      *Config
	progress *BroadcastGroup
}

// ExperimentOption configures an Experiment.
type ExperimentOption func(*Experiment)

// WithProgress publishes progress to an existing broadcast group.
func WithProgress(group *BroadcastGroup) ExperimentOption {
	return func(e *Experiment) {
		e.progress = group
	}
}

// NewExperiment validates cfg and prepares an experiment over a private copy of it.
func NewExperiment(cfg *Config, opts ...ExperimentOption) (*Experiment, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Experiment{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(e)
	}
	if e.progress == nil {
		e.progress = NewBroadcastGroup("progress")
	}
	return e, nil
}

// Progress returns the group progress notifications are sent to.
func (e *Experiment) Progress() *BroadcastGroup {
	return e.progress
}

// Rounds is the number of seed indices the plan walks through.
func (e *Experiment) Rounds() int {
	return max(e.cfg.ExperimentTrials, e.cfg.RandomTrials)
}

/*
Plan lists every trial in round order. Within a round the structured trial
comes first, then the randomized one, then the optional self-referential one.
Each family draws seeds from its own range, SeedOffset apart.
*/
func (e *Experiment) Plan() []TrialSpec {
	cfg := e.cfg
	plan := make([]TrialSpec, 0, cfg.ExperimentTrials*2+cfg.RandomTrials)

	for i := 0; i < e.Rounds(); i++ {
		if i < cfg.ExperimentTrials {
			plan = append(plan, TrialSpec{FamilyStructured, i, cfg.RandomSeed + int64(i)})
		}
		if i < cfg.RandomTrials {
			plan = append(plan, TrialSpec{FamilyRandomized, i, cfg.RandomSeed + cfg.SeedOffset + int64(i)})
		}
		if cfg.IncludeSelfReferential && i < cfg.ExperimentTrials {
			plan = append(plan, TrialSpec{FamilySelfReferential, i, cfg.RandomSeed + 2*cfg.SeedOffset + int64(i)})
		}
	}
	return plan
}

/*
Run executes the plan on a worker pool and aggregates the results. Trials run
in any order; results are written back to their planned slot, so the batch is
identical for any worker count.
*/
func (e *Experiment) Run(ctx context.Context) (*Batch, error) {
	cfg := e.cfg
	plan := e.Plan()

	batch := &Batch{
		ID:         uuid.NewString(),
		StartedAt:  time.Now(),
		Config:     cfg.Clone(),
		Structured: make([]Trial, cfg.ExperimentTrials),
		Randomized: make([]Trial, cfg.RandomTrials),
	}
	if cfg.IncludeSelfReferential {
		batch.SelfReferential = make([]Trial, cfg.ExperimentTrials)
	}

	errnie.Info("starting %d trials over %d rounds (run %s)", len(plan), e.Rounds(), batch.ID)

	q := NewQ(ctx, cfg.Workers)
	defer q.Close()

	scheduled := make(chan chan Result, len(plan))
	go func() {
		for _, planned := range plan {
			scheduled <- q.Schedule(planned.ID(), func() (any, error) {
				return RunTrial(planned.Family, cfg, planned.Seed)
			})
		}
	}()

	for i, planned := range plan {
		var result Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ch := <-scheduled:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case result = <-ch:
			}
		}

		if result.Error != nil {
			return nil, fmt.Errorf("trial %s: %w", planned.ID(), result.Error)
		}
		trial, ok := result.Value.(Trial)
		if !ok {
			return nil, fmt.Errorf("trial %s returned %T", planned.ID(), result.Value)
		}
		batch.slot(planned)[planned.Round] = trial

		if i+1 == len(plan) || plan[i+1].Round != planned.Round {
			e.reportRound(planned.Round+1, batch.StartedAt)
		}
	}

	batch.FinishedAt = time.Now()
	batch.Stats = ComputeStatistics(batch)
	batch.Pool = q.Metrics()

	errnie.Info(
		"finished in %s: structured mi_post %.3f, randomised mi_post %.3f, z %.3f",
		batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond),
		batch.Stats.Structured.MIPost.Mean,
		batch.Stats.Randomized.MIPost.Mean,
		batch.Stats.ZScore,
	)
	return batch, nil
}

func (e *Experiment) reportRound(completed int, started time.Time) {
	interval := e.cfg.ProgressInterval
	if interval <= 0 {
		return
	}
	if completed%interval != 0 && completed != e.Rounds() {
		return
	}
	e.progress.Send(Progress{
		Completed: completed,
		Total:     e.Rounds(),
		Elapsed:   time.Since(started),
	})
}

func (b *Batch) slot(planned TrialSpec) []Trial {
	switch planned.Family {
	case FamilyStructured:
		return b.Structured
	case FamilyRandomized:
		return b.Randomized
	default:
		return b.SelfReferential
	}
}
