package pipeline

import (
	"context"
	"log/slog"
)

// Reclaimer decides whether a unit's image is still needed once evaluation
// has concluded. Only the fully-covered classification releases the image;
// every other outcome, failures included, retains it so follow-on work can
// still run tests against the same build.
type Reclaimer struct {
	Logger *slog.Logger
	Driver ImageDriver
}

// Reclaim removes the unit's image when evaluation reported full coverage.
// It returns true only when the image was actually removed; a failed removal
// wastes disk space but never fails the unit.
func (r *Reclaimer) Reclaim(ctx context.Context, tag string, evaluation StageOutcome) bool {
	logger := r.logger().With("stage", "reclaim")

	if evaluation != OutcomeFullyCovered {
		return false
	}

	if err := r.Driver.Remove(ctx, tag); err != nil {
		logger.Warn("image removal failed", "image", tag, "error", err)
		return false
	}

	logger.Info("image removed", "image", tag)
	return true
}

func (r *Reclaimer) logger() *slog.Logger {
	if r != nil && r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
