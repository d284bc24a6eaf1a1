package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/UCLA-SEAL/Change-Cover/internal/workspace"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubDriver records every image operation and optionally fails them. On a
// successful ExtractArtifact it writes the artifact file, like the real
// container run does.
type stubDriver struct {
	mu sync.Mutex

	buildErr   error
	extractErr error
	removeErr  error
	pruneErr   error

	builds   []string
	extracts []string
	removes  []string
	prunes   []int
}

func (d *stubDriver) Build(_ context.Context, tag, unitID string) error {
	d.mu.Lock()
	d.builds = append(d.builds, tag)
	d.mu.Unlock()
	return d.buildErr
}

func (d *stubDriver) ExtractArtifact(_ context.Context, tag, hostDir string) error {
	d.mu.Lock()
	d.extracts = append(d.extracts, tag)
	d.mu.Unlock()
	if d.extractErr != nil {
		return d.extractErr
	}
	return os.WriteFile(filepath.Join(hostDir, workspace.ArtifactFileName), []byte("<coverage/>"), 0o644)
}

func (d *stubDriver) Remove(_ context.Context, tag string) error {
	d.mu.Lock()
	d.removes = append(d.removes, tag)
	d.mu.Unlock()
	return d.removeErr
}

func (d *stubDriver) PruneBuildCache(_ context.Context, keepStorageGB int) error {
	d.mu.Lock()
	d.prunes = append(d.prunes, keepStorageGB)
	d.mu.Unlock()
	return d.pruneErr
}

func (d *stubDriver) buildCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.builds)
}

func (d *stubDriver) removeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.removes)
}

// stubRunner records relevance evaluations. On success it writes the report
// file, like the real tool does.
type stubRunner struct {
	mu sync.Mutex

	relevance Relevance
	err       error

	calls []string
}

func (r *stubRunner) Evaluate(_ context.Context, diffPath, artifactPath, outputPath string) (Relevance, error) {
	r.mu.Lock()
	r.calls = append(r.calls, diffPath)
	r.mu.Unlock()

	if r.err != nil {
		return "", r.err
	}
	if err := os.WriteFile(outputPath, []byte("{}"), 0o644); err != nil {
		return "", err
	}
	if r.relevance == "" {
		return RelevancePartial, nil
	}
	return r.relevance, nil
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
