package qpersist

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func smallConfig(trials int) *Config {
	cfg := NewConfig()
	cfg.ExperimentTrials = trials
	cfg.RandomTrials = trials
	cfg.ProgressInterval = 1
	return cfg
}

func TestPlan(t *testing.T) {
	Convey("Given an experiment with every family enabled", t, func() {
		cfg := smallConfig(5)
		cfg.RandomTrials = 7
		cfg.IncludeSelfReferential = true

		experiment, err := NewExperiment(cfg)
		So(err, ShouldBeNil)
		plan := experiment.Plan()

		Convey("It should plan one trial per family and index", func() {
			So(experiment.Rounds(), ShouldEqual, 7)
			So(len(plan), ShouldEqual, 5+7+5)
		})

		Convey("Each family should draw from its own seed range", func() {
			seeds := map[int64]Family{}
			for _, planned := range plan {
				_, dup := seeds[planned.Seed]
				So(dup, ShouldBeFalse)
				seeds[planned.Seed] = planned.Family

				switch planned.Family {
				case FamilyStructured:
					So(planned.Seed, ShouldEqual, cfg.RandomSeed+int64(planned.Round))
				case FamilyRandomized:
					So(planned.Seed, ShouldEqual, cfg.RandomSeed+10000+int64(planned.Round))
				case FamilySelfReferential:
					So(planned.Seed, ShouldEqual, cfg.RandomSeed+20000+int64(planned.Round))
				}
			}
		})

		Convey("Rounds should never go backwards", func() {
			for i := 1; i < len(plan); i++ {
				So(plan[i].Round, ShouldBeGreaterThanOrEqualTo, plan[i-1].Round)
			}
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := NewConfig()
		cfg.QubitsA = 3

		Convey("The experiment should not be created", func() {
			_, err := NewExperiment(cfg)
			So(errors.Is(err, ErrPartition), ShouldBeTrue)

			_, err = NewExperiment(nil)
			So(errors.Is(err, ErrConfig), ShouldBeTrue)
		})
	})
}

func TestExperimentRun(t *testing.T) {
	Convey("Given a small batch", t, func() {
		cfg := smallConfig(6)
		cfg.IncludeSelfReferential = true

		run := func(workers int) *Batch {
			c := cfg.Clone()
			c.Workers = workers
			experiment, err := NewExperiment(c)
			So(err, ShouldBeNil)

			batch, err := experiment.Run(context.Background())
			So(err, ShouldBeNil)
			return batch
		}

		Convey("Results should not depend on the number of workers", func() {
			serial := run(1)
			parallel := run(4)

			So(parallel.Structured, ShouldResemble, serial.Structured)
			So(parallel.Randomized, ShouldResemble, serial.Randomized)
			So(parallel.SelfReferential, ShouldResemble, serial.SelfReferential)
			So(parallel.Stats, ShouldResemble, serial.Stats)
			So(parallel.ID, ShouldNotEqual, serial.ID)
		})

		Convey("Trials should sit in seed order", func() {
			batch := run(3)
			for i, trial := range batch.Structured {
				So(trial.Seed, ShouldEqual, cfg.RandomSeed+int64(i))
				So(trial.Family, ShouldEqual, FamilyStructured)
			}
			for i, trial := range batch.Randomized {
				So(trial.Seed, ShouldEqual, cfg.RandomSeed+cfg.SeedOffset+int64(i))
			}
			So(batch.Stats.SelfReferential, ShouldNotBeNil)
			So(batch.Pool.Jobs, ShouldEqual, int64(18))
		})
	})

	Convey("Given a progress subscriber", t, func() {
		cfg := smallConfig(3)
		group := NewBroadcastGroup("test-progress")
		updates := group.Subscribe("test", 8)

		experiment, err := NewExperiment(cfg, WithProgress(group))
		So(err, ShouldBeNil)
		So(experiment.Progress(), ShouldEqual, group)

		_, err = experiment.Run(context.Background())
		So(err, ShouldBeNil)
		group.Close()

		Convey("It should see one update per round ending in completion", func() {
			received := make([]Progress, 0)
			for p := range updates {
				received = append(received, p)
			}
			So(len(received), ShouldEqual, 3)
			So(received[2].Completed, ShouldEqual, 3)
			So(received[2].Fraction(), ShouldEqual, 1.0)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		experiment, _ := NewExperiment(smallConfig(50))

		Convey("Run should stop with the context error", func() {
			done := make(chan error, 1)
			go func() {
				_, err := experiment.Run(ctx)
				done <- err
			}()

			select {
			case <-time.After(testTimeout):
				t.Fatal("run did not stop")
			case err := <-done:
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			}
		})
	})
}

func TestStructurePersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("full batch")
	}

	Convey("Given the full default batch", t, func() {
		experiment, err := NewExperiment(NewConfig())
		So(err, ShouldBeNil)

		batch, err := experiment.Run(context.Background())
		So(err, ShouldBeNil)
		stats := batch.Stats

		Convey("Structured circuits should hold 8 bits before and after", func() {
			So(stats.Structured.MIPre.Mean, ShouldAlmostEqual, 8, entropyTolerance)
			So(stats.Structured.MIPost.Mean, ShouldAlmostEqual, 8, entropyTolerance)
			So(stats.Structured.Retention.Mean, ShouldAlmostEqual, 1, entropyTolerance)
		})

		Convey("Randomized circuits should fall measurably short", func() {
			So(stats.Randomized.MIPost.Mean, ShouldBeLessThan, stats.Structured.MIPost.Mean)
			So(stats.Randomized.MIPost.Std, ShouldBeGreaterThan, ZFloor)
			So(stats.ZScore, ShouldBeGreaterThan, 2)
		})
	})
}

func TestStatistics(t *testing.T) {
	Convey("Given a handful of values", t, func() {
		s := Summarize([]float64{1, 2, 3, 4})

		Convey("It should report the population mean and deviation", func() {
			So(s.Mean, ShouldAlmostEqual, 2.5, tolerance)
			So(s.Std, ShouldAlmostEqual, math.Sqrt(1.25), tolerance)
			So(s.N, ShouldEqual, 4)
		})

		Convey("An empty set should summarize to zeros", func() {
			So(Summarize(nil), ShouldResemble, Summary{})
		})
	})

	Convey("Given a degenerate randomized baseline", t, func() {
		structured := Summary{Mean: 8, Std: 0, N: 3}

		Convey("The z-score should be 0", func() {
			So(ZScore(structured, Summary{Mean: 5, Std: 0, N: 3}), ShouldEqual, 0.0)
			So(ZScore(structured, Summary{Mean: 5, Std: ZFloor / 2, N: 3}), ShouldEqual, 0.0)
		})

		Convey("A real spread should give the standardized difference", func() {
			So(ZScore(structured, Summary{Mean: 6, Std: 0.5, N: 3}), ShouldAlmostEqual, 4, tolerance)
		})
	})

	Convey("Given a batch assembled out of order", t, func() {
		trials := []Trial{
			{Family: FamilyStructured, MIPre: 8, MIPost: 8, Retention: 1, Fidelity: 0.9},
			{Family: FamilyStructured, MIPre: 8, MIPost: 8, Retention: 1, Fidelity: 0.7},
		}
		reversed := []Trial{trials[1], trials[0]}

		Convey("The aggregate should not depend on the order", func() {
			a := ComputeStatistics(&Batch{Structured: trials, Randomized: trials})
			b := ComputeStatistics(&Batch{Structured: reversed, Randomized: reversed})
			So(a.Structured.Fidelity.Mean, ShouldAlmostEqual, b.Structured.Fidelity.Mean, tolerance)
			So(a.Structured.Fidelity.Std, ShouldAlmostEqual, b.Structured.Fidelity.Std, tolerance)
			So(a.SelfReferential, ShouldBeNil)
			So(a.ZScore, ShouldEqual, 0.0)
		})
	})
}
