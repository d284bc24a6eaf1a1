package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

// Reporter tallies per-unit outcomes and writes the start and completion
// banners to the shared log. Safe for concurrent Observe calls from all
// in-flight pipelines.
type Reporter struct {
	logger *slog.Logger

	mu        sync.Mutex
	startedAt time.Time
	processed int
	collected map[StageOutcome]int
	evaluated map[StageOutcome]int
	reclaimed int
}

// NewReporter returns a Reporter writing banners through logger.
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:    logger,
		collected: make(map[StageOutcome]int),
		evaluated: make(map[StageOutcome]int),
	}
}

// Start records the start banner.
func (r *Reporter) Start(project string, total int) {
	r.mu.Lock()
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("starting coverage computation", "project", project, "units", total)
}

// Observe records one completed pipeline run.
func (r *Reporter) Observe(run PipelineRun) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed++
	r.collected[run.Collect]++
	if run.Evaluate != OutcomeNotStarted {
		r.evaluated[run.Evaluate]++
	}
	if run.Reclaimed {
		r.reclaimed++
	}
}

// Summarize records the completion banner with the outcome tally. Called
// exactly once, after every in-flight pipeline has finished.
func (r *Reporter) Summarize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Without a Start call there is no reference point, so report zero
	// elapsed rather than a duration measured from the zero time.
	var elapsed time.Duration
	if !r.startedAt.IsZero() {
		elapsed = time.Since(r.startedAt).Round(time.Second)
	}

	r.logger.Info("coverage computation completed",
		"processed", r.processed,
		"collect_succeeded", r.collected[OutcomeSucceeded],
		"collect_skipped", r.collected[OutcomeSkipped],
		"collect_failed", r.collected[OutcomeFailed],
		"fully_covered", r.evaluated[OutcomeFullyCovered],
		"partially_covered", r.evaluated[OutcomePartial],
		"evaluate_skipped", r.evaluated[OutcomeSkipped],
		"evaluate_failed", r.evaluated[OutcomeFailed],
		"images_reclaimed", r.reclaimed,
		"elapsed", elapsed,
	)
}
