// Package workspace computes the on-disk layout shared by all pipeline
// stages: one artifact directory per unit under coverage/ and one diff file
// per unit under diffs/, both rooted at the configured output directory.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	coverageDirName = "coverage"
	diffsDirName    = "diffs"

	// ArtifactFileName is the well-known name of the coverage artifact
	// extracted from the per-unit image.
	ArtifactFileName = "coverage_all.xml"

	// RelevanceFileName is the report the relevance computation writes next
	// to the artifact.
	RelevanceFileName = "relevance.json"

	logFileName = "change-cover.log"
)

// UnitPaths holds the deterministic output locations for one unit.
type UnitPaths struct {
	ArtifactDir   string
	ArtifactFile  string
	DiffFile      string
	RelevanceFile string
}

// Layout derives per-unit paths from an output root. The same root and unit
// identifier always yield the same paths.
type Layout struct {
	OutputRoot string
}

// Paths computes the unit's paths without touching the filesystem.
func (l Layout) Paths(unitID string) UnitPaths {
	artifactDir := filepath.Join(l.OutputRoot, coverageDirName, unitID)
	return UnitPaths{
		ArtifactDir:   artifactDir,
		ArtifactFile:  filepath.Join(artifactDir, ArtifactFileName),
		DiffFile:      filepath.Join(l.OutputRoot, diffsDirName, unitID+".diff"),
		RelevanceFile: filepath.Join(artifactDir, RelevanceFileName),
	}
}

// For computes the unit's paths and ensures its artifact directory exists,
// creating parents as needed. Safe to call concurrently for distinct units;
// this is the only place the pipeline creates directories.
func (l Layout) For(unitID string) (UnitPaths, error) {
	if unitID == "" {
		return UnitPaths{}, errors.New("unit identifier is required")
	}

	paths := l.Paths(unitID)
	if err := os.MkdirAll(paths.ArtifactDir, 0o755); err != nil {
		return UnitPaths{}, fmt.Errorf("create artifact directory %s: %w", paths.ArtifactDir, err)
	}
	return paths, nil
}

// Prepare creates the coverage and diffs directories under the output root.
// Called once before dispatch so an unwritable root fails the run before any
// unit starts.
func (l Layout) Prepare() error {
	if l.OutputRoot == "" {
		return errors.New("output root is required")
	}

	for _, dir := range []string{
		filepath.Join(l.OutputRoot, coverageDirName),
		filepath.Join(l.OutputRoot, diffsDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogFile returns the default location of the durable run log.
func (l Layout) LogFile() string {
	return filepath.Join(l.OutputRoot, logFileName)
}
