package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// UnitProcessor runs one unit's pipeline to completion. Implementations
// must isolate their own failures; Process never reports an error.
type UnitProcessor interface {
	Process(ctx context.Context, unitID string) PipelineRun
}

// Dispatcher admits units into a fixed-size worker pool in input order and
// joins on every in-flight pipeline before returning. It carries no business
// logic beyond admission control.
type Dispatcher struct {
	Logger    *slog.Logger
	Processor UnitProcessor
	Limit     int
}

// Run processes units with at most Limit pipelines in flight. Admission
// blocks while the pool is full, so units enter in list order even though
// they may finish in any order. Cancelling ctx stops admitting new units;
// already-admitted pipelines observe the cancellation through their external
// process contexts.
func (d *Dispatcher) Run(ctx context.Context, units []string) {
	limit := d.Limit
	if limit < 1 {
		limit = 1
	}

	logger := d.logger()
	logger.Info("dispatching units", "count", len(units), "workers", limit)

	var group errgroup.Group
	group.SetLimit(limit)

	for _, unitID := range units {
		if ctx.Err() != nil {
			logger.Warn("dispatch interrupted", "error", ctx.Err())
			break
		}

		unitID := unitID
		group.Go(func() error {
			d.Processor.Process(ctx, unitID)
			return nil
		})
	}

	// Join barrier: every admitted pipeline finishes before Run returns.
	_ = group.Wait()
}

func (d *Dispatcher) logger() *slog.Logger {
	if d != nil && d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
