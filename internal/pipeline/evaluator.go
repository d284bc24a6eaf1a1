package pipeline

import (
	"context"
	"log/slog"
)

// Evaluator is the second pipeline stage: run the external relevance
// computation over the unit's diff and collected artifact. It only
// classifies; it never deletes anything.
type Evaluator struct {
	Logger *slog.Logger
	Runner RelevanceRunner
}

// Evaluate classifies the unit's patch against its coverage artifact. The
// stage is skipped when its report already exists, mirroring the collector's
// resumability contract.
func (e *Evaluator) Evaluate(ctx context.Context, unit Unit) StageOutcome {
	logger := e.logger().With("stage", "evaluate")

	if fileExists(unit.Paths.RelevanceFile) {
		logger.Info("relevance report already present, skipping", "report", unit.Paths.RelevanceFile)
		return OutcomeSkipped
	}

	if !fileExists(unit.Paths.DiffFile) {
		logger.Error("diff file missing", "diff", unit.Paths.DiffFile)
		return OutcomeFailed
	}

	relevance, err := e.Runner.Evaluate(ctx, unit.Paths.DiffFile, unit.Paths.ArtifactFile, unit.Paths.RelevanceFile)
	if err != nil {
		logger.Error("relevance computation failed", "error", err)
		return OutcomeFailed
	}

	if relevance == RelevanceFullyCovered {
		logger.Info("patch fully covered by existing tests", "report", unit.Paths.RelevanceFile)
		return OutcomeFullyCovered
	}

	logger.Info("patch has uncovered lines", "report", unit.Paths.RelevanceFile)
	return OutcomePartial
}

func (e *Evaluator) logger() *slog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
