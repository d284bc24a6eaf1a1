// Package config holds the run manifest: everything that selects behavior
// around the pipeline core.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest configures one coverage run. Fields left zero fall back to the
// defaults applied by ApplyDefaults.
type Manifest struct {
	// WorkList is the path to the newline-separated PR identifiers.
	WorkList string `yaml:"work_list"`

	// OutputRoot is the directory under which coverage/ and diffs/ live.
	OutputRoot string `yaml:"output_root"`

	// Project tags the per-unit images ("<project>-pr-<unit>") and selects
	// the in-image artifact location.
	Project string `yaml:"project"`

	// DockerfileDir is the docker build context; defaults to
	// docker/<project>/full_test_suite.
	DockerfileDir string `yaml:"dockerfile_dir"`

	// Workers bounds the number of in-flight unit pipelines.
	Workers int `yaml:"workers"`

	// MaxUnits caps how many work-list entries are processed; 0 means all.
	MaxUnits int `yaml:"max_units"`

	// RelevanceCommand is the external relevance tool invocation prefix.
	RelevanceCommand []string `yaml:"relevance_command"`

	// FullyCoveredExit is the tool's reserved "fully covered" exit status.
	FullyCoveredExit int `yaml:"fully_covered_exit"`

	// MinFreeGB triggers a builder-cache prune when the output filesystem
	// drops below it. An explicit 0 disables the guard; leaving the field
	// unset selects DefaultMinFreeGB.
	MinFreeGB *int `yaml:"min_free_gb"`

	// KeepStorageGB is the cache size the prune keeps.
	KeepStorageGB int `yaml:"keep_storage_gb"`

	// LogFile overrides the run log location; defaults to
	// <output_root>/change-cover.log.
	LogFile string `yaml:"log_file"`
}

// Defaults mirroring the reference deployment.
const (
	DefaultWorkers          = 1
	DefaultFullyCoveredExit = 255
	DefaultMinFreeGB        = 70
	DefaultKeepStorageGB    = 20
)

// DefaultRelevanceCommand invokes the relevance tool shipped alongside the
// pipeline.
var DefaultRelevanceCommand = []string{"python3", "-m", "approach.coverage.get_relevance"}

// Default returns a manifest populated with the stock settings.
func Default() Manifest {
	var m Manifest
	m.ApplyDefaults()
	return m
}

// Load reads a yaml manifest from path and applies defaults to any field the
// file leaves unset.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	m.ApplyDefaults()
	return m, nil
}

// ApplyDefaults fills zero-valued fields with the stock settings.
func (m *Manifest) ApplyDefaults() {
	if m.Workers == 0 {
		m.Workers = DefaultWorkers
	}
	if m.FullyCoveredExit == 0 {
		m.FullyCoveredExit = DefaultFullyCoveredExit
	}
	if m.MinFreeGB == nil {
		minFree := DefaultMinFreeGB
		m.MinFreeGB = &minFree
	}
	if m.KeepStorageGB == 0 {
		m.KeepStorageGB = DefaultKeepStorageGB
	}
	if len(m.RelevanceCommand) == 0 {
		m.RelevanceCommand = append([]string(nil), DefaultRelevanceCommand...)
	}
	m.DeriveDockerfileDir()
}

// DeriveDockerfileDir fills the build context from the project when unset.
// Separate from ApplyDefaults so callers merging overrides on top of an
// already-defaulted manifest can derive it without re-stamping defaults over
// explicit values.
func (m *Manifest) DeriveDockerfileDir() {
	if m.DockerfileDir == "" && m.Project != "" {
		m.DockerfileDir = filepath.Join("docker", m.Project, "full_test_suite")
	}
}

// MinFree reports the guard threshold, treating an unset field as the
// default.
func (m Manifest) MinFree() int {
	if m.MinFreeGB == nil {
		return DefaultMinFreeGB
	}
	return *m.MinFreeGB
}

// Validate reports the first configuration error. Called before any unit is
// dispatched so configuration failures abort the whole run up front.
func (m Manifest) Validate() error {
	if m.WorkList == "" {
		return errors.New("work list path is required")
	}
	if m.OutputRoot == "" {
		return errors.New("output root is required")
	}
	if m.Project == "" {
		return errors.New("project is required")
	}
	if m.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", m.Workers)
	}
	if m.MaxUnits < 0 {
		return fmt.Errorf("max units must not be negative, got %d", m.MaxUnits)
	}
	if m.MinFreeGB != nil && *m.MinFreeGB < 0 {
		return fmt.Errorf("min free GB must not be negative, got %d", *m.MinFreeGB)
	}
	if len(m.RelevanceCommand) == 0 {
		return errors.New("relevance command is required")
	}
	return nil
}
