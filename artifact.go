package qpersist

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format selects the serialization of the output artifact.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// IsValid reports whether the format is supported.
func (f Format) IsValid() bool {
	return f == FormatJSON || f == FormatYAML
}

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// RunInfo identifies a run and how it executed.
type RunInfo struct {
	ID          string          `json:"id" yaml:"id"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time       `json:"finished_at" yaml:"finished_at"`
	Fingerprint string          `json:"fingerprint" yaml:"fingerprint"`
	Algorithm   string          `json:"algorithm" yaml:"algorithm"`
	Pool        MetricsSnapshot `json:"pool" yaml:"pool"`
}

// TrialSet carries the raw per-family trials when they are requested.
type TrialSet struct {
	Structured      []Trial `json:"structured" yaml:"structured"`
	Randomized      []Trial `json:"randomised" yaml:"randomised"`
	SelfReferential []Trial `json:"self_referential,omitempty" yaml:"self_referential,omitempty"`
}

/*
Artifact is the single document persisted per run: the aggregate statistics
and the configuration that produced them.
*/
type Artifact struct {
	Run    RunInfo    `json:"run" yaml:"run"`
	Stats  Statistics `json:"stats" yaml:"stats"`
	Config *Config    `json:"cfg" yaml:"cfg"`
	Trials *TrialSet  `json:"trials,omitempty" yaml:"trials,omitempty"`
}

// NewArtifact builds the output document for a finished batch.
func NewArtifact(b *Batch, includeTrials bool) *Artifact {
	a := &Artifact{
		Run: RunInfo{
			ID:          b.ID,
			StartedAt:   b.StartedAt.UTC(),
			FinishedAt:  b.FinishedAt.UTC(),
			Fingerprint: Fingerprint(b.Config),
			Algorithm:   FingerprintAlgorithm,
			Pool:        b.Pool,
		},
		Stats:  b.Stats,
		Config: b.Config,
	}

	if includeTrials {
		a.Trials = &TrialSet{
			Structured:      b.Structured,
			Randomized:      b.Randomized,
			SelfReferential: b.SelfReferential,
		}
	}
	return a
}

// Encode serializes the artifact to w.
func (a *Artifact) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported artifact format %q", format)
}

/*
WriteArtifact writes the artifact to path through a temporary file in the same
directory and renames it into place, so a failed write never leaves a partial
document behind. Any failure is returned.
*/
func WriteArtifact(path string, a *Artifact, format Format) error {
	if !format.IsValid() {
		return fmt.Errorf("unsupported artifact format %q", format)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating artifact in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := a.Encode(tmp, format); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting artifact permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

// CSVHeader is the column order of WriteTrialsCSV.
var CSVHeader = []string{"type", "seed", "mi_pre", "mi_post", "R", "F"}

// WriteTrialsCSV writes one row per trial with six decimal places.
func WriteTrialsCSV(w io.Writer, families ...[]Trial) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

	for _, trials := range families {
		for _, t := range trials {
			row := []string{
				string(t.Family),
				strconv.FormatInt(t.Seed, 10),
				f(t.MIPre),
				f(t.MIPost),
				f(t.Retention),
				f(t.Fidelity),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
