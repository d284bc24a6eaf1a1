package pipeline

import (
	"context"
	"log/slog"
	"os"
)

// Collector is the first pipeline stage: build the unit's image and extract
// the coverage artifact from it. It never fails the run; errors surface as
// the returned outcome and log entries only.
type Collector struct {
	Logger *slog.Logger
	Driver ImageDriver
}

// Collect produces the unit's coverage artifact. If the artifact is already
// on disk the whole stage is skipped, which is what makes re-running the
// pipeline over the same output root safe.
func (c *Collector) Collect(ctx context.Context, unit Unit, tag string) StageOutcome {
	logger := c.logger().With("stage", "collect")

	if fileExists(unit.Paths.ArtifactFile) {
		logger.Info("artifact already present, skipping build", "artifact", unit.Paths.ArtifactFile)
		return OutcomeSkipped
	}

	if err := c.Driver.Build(ctx, tag, unit.ID); err != nil {
		logger.Error("image build failed", "image", tag, "error", err)
		return OutcomeFailed
	}
	logger.Info("image built", "image", tag)

	if err := c.Driver.ExtractArtifact(ctx, tag, unit.Paths.ArtifactDir); err != nil {
		logger.Error("artifact extraction failed", "image", tag, "error", err)
		return OutcomeFailed
	}

	logger.Info("artifact collected", "artifact", unit.Paths.ArtifactFile)
	return OutcomeSucceeded
}

func (c *Collector) logger() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
