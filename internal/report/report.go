// Package report writes a YAML summary of one wrapper run.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilePermissions is the permission used for summary files.
const DefaultFilePermissions = 0o644

// errSummaryIsNotSet is returned when a nil summary is provided.
var errSummaryIsNotSet = errors.New("summary is not set")

// Summary describes the outcome of a run.
type Summary struct {
	// Constraint is the requested version constraint.
	Constraint string `yaml:"constraint"`
	// Release is the resolved release tag; empty when resolution failed.
	Release string `yaml:"release,omitempty"`
	// ReleaseName is the display name of the resolved release.
	ReleaseName string `yaml:"release_name,omitempty"`
	// Asset is the selected asset file name.
	Asset string `yaml:"asset,omitempty"`
	// Platform is the descriptor used to select the asset, e.g. "Linux/x64".
	Platform string `yaml:"platform"`
	// Verification is the method the asset was verified with.
	Verification string `yaml:"verification,omitempty"`
	// ExitCode is the status the wrapper exits with.
	ExitCode int `yaml:"exit_code"`
	// Error holds the failure kind and message for runs that failed before the scan.
	Error *Failure `yaml:"error,omitempty"`
	// StartedAt is when the run began.
	StartedAt time.Time `yaml:"started_at"`
	// Durations of the individual steps.
	Timings Timings `yaml:"timings"`
}

// Failure is a classified error.
type Failure struct {
	Kind    string `yaml:"kind"`
	Message string `yaml:"message"`
}

// Timings records how long each step took.
type Timings struct {
	Catalog  time.Duration `yaml:"catalog,omitempty"`
	Download time.Duration `yaml:"download,omitempty"`
	Scan     time.Duration `yaml:"scan,omitempty"`
	Total    time.Duration `yaml:"total"`
}

// Save writes the summary to path, creating parent directories.
func Save(path string, s *Summary) error {
	if s == nil {
		return errSummaryIsNotSet
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

// Load reads a summary written by Save.
func Load(path string) (*Summary, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}

	var s Summary
	if err := yaml.Unmarshal(contents, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}

	return &s, nil
}
