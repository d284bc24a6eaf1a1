package pipeline

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/UCLA-SEAL/Change-Cover/internal/logging"
)

// syncBuffer lets the test read what the shared log sink received.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReporterSummaryTallies(t *testing.T) {
	var buf syncBuffer
	reporter := NewReporter(logging.NewCLI(&buf, slog.LevelInfo))

	reporter.Start("pandas", 3)
	reporter.Observe(PipelineRun{Collect: OutcomeSucceeded, Evaluate: OutcomeFullyCovered, Reclaimed: true})
	reporter.Observe(PipelineRun{Collect: OutcomeSkipped, Evaluate: OutcomePartial})
	reporter.Observe(PipelineRun{Collect: OutcomeFailed, Evaluate: OutcomeNotStarted})
	reporter.Summarize()

	output := buf.String()
	for _, want := range []string{
		"starting coverage computation",
		"project=pandas",
		"units=3",
		"coverage computation completed",
		"processed=3",
		"collect_succeeded=1",
		"collect_skipped=1",
		"collect_failed=1",
		"fully_covered=1",
		"partially_covered=1",
		"images_reclaimed=1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q:\n%s", want, output)
		}
	}
}

func TestReporterSummarizeWithoutStartReportsZeroElapsed(t *testing.T) {
	var buf syncBuffer
	reporter := NewReporter(logging.NewCLI(&buf, slog.LevelInfo))

	reporter.Observe(PipelineRun{Collect: OutcomeFailed, Evaluate: OutcomeNotStarted})
	reporter.Summarize()

	output := buf.String()
	if !strings.Contains(output, "elapsed=0s") {
		t.Fatalf("log output missing elapsed=0s:\n%s", output)
	}
}

func TestReporterObserveIsConcurrencySafe(t *testing.T) {
	reporter := NewReporter(discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reporter.Observe(PipelineRun{Collect: OutcomeSucceeded, Evaluate: OutcomePartial})
		}()
	}
	wg.Wait()

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if reporter.processed != 32 {
		t.Fatalf("processed = %d, want 32", reporter.processed)
	}
}
