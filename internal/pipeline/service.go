package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/UCLA-SEAL/Change-Cover/internal/diskspace"
	"github.com/UCLA-SEAL/Change-Cover/internal/workspace"
)

// Service runs the fixed per-unit chain: resolve paths, collect the
// artifact, evaluate relevance, then decide whether the image is reclaimed.
// Stage errors never escape a unit; the chain simply stops early and the
// outcome lands in the log and the reporter.
type Service struct {
	Logger   *slog.Logger
	Layout   workspace.Layout
	Project  string
	Reporter *Reporter

	// Disk guard: when MinFreeGB > 0 and the output filesystem has less
	// available, the builder cache is pruned down to KeepStorageGB before the
	// unit's build starts. Guard failures are logged and ignored.
	MinFreeGB     int
	KeepStorageGB int

	driver    ImageDriver
	runner    RelevanceRunner
	freeSpace func(path string) (float64, error)
}

// NewService wires the three stages around the provided driver and runner.
func NewService(
	logger *slog.Logger,
	layout workspace.Layout,
	project string,
	driver ImageDriver,
	runner RelevanceRunner,
	reporter *Reporter,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Logger:    logger,
		Layout:    layout,
		Project:   project,
		Reporter:  reporter,
		driver:    driver,
		runner:    runner,
		freeSpace: diskspace.FreeGB,
	}
}

// Process runs one unit through the pipeline and returns its concluded run
// state. It never returns an error: per-unit failures are isolated by
// design.
func (s *Service) Process(ctx context.Context, unitID string) PipelineRun {
	run := PipelineRun{
		ID:       uuid.NewString(),
		ImageTag: ImageTag(s.Project, unitID),
		Collect:  OutcomeNotStarted,
		Evaluate: OutcomeNotStarted,
	}

	logger := s.Logger.With("unit", unitID, "run_id", run.ID)
	logger.Info("processing unit")

	s.guardDiskSpace(ctx, logger)

	paths, err := s.Layout.For(unitID)
	if err != nil {
		logger.Error("failed to prepare unit directories", "error", err)
		run.Collect = OutcomeFailed
		s.observe(run)
		return run
	}
	run.Unit = Unit{ID: unitID, Paths: paths}

	collector := &Collector{Logger: logger, Driver: s.driver}
	run.Collect = collector.Collect(ctx, run.Unit, run.ImageTag)
	if !run.Collect.ArtifactPresent() {
		logger.Warn("unit stopped after collection", "outcome", string(run.Collect))
		s.observe(run)
		return run
	}

	evaluator := &Evaluator{Logger: logger, Runner: s.runner}
	run.Evaluate = evaluator.Evaluate(ctx, run.Unit)

	reclaimer := &Reclaimer{Logger: logger, Driver: s.driver}
	run.Reclaimed = reclaimer.Reclaim(ctx, run.ImageTag, run.Evaluate)

	logger.Info("unit processed",
		"collect", string(run.Collect),
		"evaluate", string(run.Evaluate),
		"image_reclaimed", run.Reclaimed,
	)
	s.observe(run)
	return run
}

func (s *Service) observe(run PipelineRun) {
	if s.Reporter != nil {
		s.Reporter.Observe(run)
	}
}

func (s *Service) guardDiskSpace(ctx context.Context, logger *slog.Logger) {
	if s.MinFreeGB <= 0 || s.driver == nil {
		return
	}

	free, err := s.freeSpace(s.Layout.OutputRoot)
	if err != nil {
		logger.Warn("disk space probe failed", "error", err)
		return
	}
	if free >= float64(s.MinFreeGB) {
		return
	}

	logger.Info("low disk space, pruning builder cache",
		"free_gb", free, "min_free_gb", s.MinFreeGB, "keep_storage_gb", s.KeepStorageGB)
	if err := s.driver.PruneBuildCache(ctx, s.KeepStorageGB); err != nil {
		logger.Warn("builder cache prune failed", "error", err)
	}
}
