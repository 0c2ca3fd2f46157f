package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qpersist"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "qpersist:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	flags := pflag.NewFlagSet("qpersist", pflag.ContinueOnError)
	preset := flags.StringP("preset", "p", "full", fmt.Sprintf("configuration preset %v", qpersist.PresetNames()))
	configPath := flags.StringP("config", "c", "", "YAML, JSON or TOML configuration file")
	output := flags.StringP("output", "o", "experiment_results.json", "artifact path")
	format := flags.String("format", "", "artifact format: json or yaml (default from the output extension)")
	csvPath := flags.String("csv", "", "also write per-trial rows to this CSV file")
	includeTrials := flags.Bool("include-trials", false, "embed every trial in the artifact")

	defaults := qpersist.NewConfig()
	flags.Int("n-experiment-trials", defaults.ExperimentTrials, "structured trials")
	flags.Int("n-random-trials", defaults.RandomTrials, "randomised trials")
	flags.Bool("include-self-referential", false, "also run the feed-forward family")
	flags.Float64("perturbation-sigma", defaults.PerturbationSigma, "standard deviation of the noise rotations")
	flags.Float64("reversal-fraction", defaults.ReversalFraction, "fraction of circuit depth re-applied as reversal")
	flags.Int64("random-seed", defaults.RandomSeed, "base seed")
	flags.Int("workers", defaults.Workers, "parallel trial workers")
	flags.Int("progress-interval", defaults.ProgressInterval, "rounds between progress reports")

	if err := flags.Parse(args); err != nil {
		return err
	}

	base, err := qpersist.Preset(*preset)
	if err != nil {
		return err
	}
	cfg, err := qpersist.LoadConfig(base, *configPath, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Mode == qpersist.ModeTrace {
		_, err := qpersist.Trace(cfg, cfg.RandomSeed)
		return err
	}

	experiment, err := qpersist.NewExperiment(cfg)
	if err != nil {
		return err
	}

	progress := experiment.Progress().Subscribe("cli", 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			errnie.Info("  %d/%d done (%.0f%%, %s)", p.Completed, p.Total, 100*p.Fraction(), p.Elapsed.Round(time.Millisecond))
		}
	}()

	batch, err := experiment.Run(ctx)
	experiment.Progress().Close()
	<-done
	if err != nil {
		return err
	}

	errnie.Info("Structured MI: %.3f bits", batch.Stats.Structured.MIPost.Mean)
	errnie.Info("Randomised MI: %.3f bits", batch.Stats.Randomized.MIPost.Mean)
	errnie.Info("Z-score:       %.3f", batch.Stats.ZScore)

	artifactFormat := qpersist.Format(*format)
	if artifactFormat == "" {
		artifactFormat = qpersist.FormatFromPath(*output)
	}
	if err := qpersist.WriteArtifact(*output, qpersist.NewArtifact(batch, *includeTrials), artifactFormat); err != nil {
		return err
	}
	errnie.Info("wrote %s (%s)", *output, qpersist.ShortFingerprint(cfg))

	if *csvPath != "" {
		if err := writeCSV(*csvPath, batch); err != nil {
			return err
		}
		errnie.Info("wrote %s", *csvPath)
	}
	return nil
}

func writeCSV(path string, batch *qpersist.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := qpersist.WriteTrialsCSV(f, batch.Structured, batch.Randomized, batch.SelfReferential); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
