// Package relevance adapts the external relevance computation to the
// pipeline. The tool's exit-status encoding is mapped to a classification
// here and nowhere else, so the reserved status can change without touching
// the orchestrator.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/UCLA-SEAL/Change-Cover/internal/pipeline"
)

// Ensure Runner satisfies the pipeline's relevance interface.
var _ pipeline.RelevanceRunner = (*Runner)(nil)

// DefaultFullyCoveredExit is the reserved exit status meaning no modified
// line is left uncovered. The reference tool exits -1, which the OS reports
// as 255.
const DefaultFullyCoveredExit = 255

// Runner invokes the relevance tool as a subprocess.
type Runner struct {
	Logger *slog.Logger

	// Command is the tool invocation prefix; the diff, coverage, and output
	// paths are appended as the tool's options.
	Command []string

	// FullyCoveredExit is the reserved status; DefaultFullyCoveredExit when
	// zero.
	FullyCoveredExit int

	// run executes the composed command and reports its exit status; tests
	// replace it.
	run func(ctx context.Context, name string, args ...string) (int, []byte, error)
}

// NewRunner returns a Runner for the given tool invocation.
func NewRunner(logger *slog.Logger, command []string) *Runner {
	return &Runner{
		Logger:           logger,
		Command:          append([]string(nil), command...),
		FullyCoveredExit: DefaultFullyCoveredExit,
	}
}

// Evaluate runs the tool over the unit's diff and coverage artifact and
// classifies its exit status. An error means the computation itself failed;
// the report at outputPath is only trusted on a nil error.
func (r *Runner) Evaluate(ctx context.Context, diffPath, artifactPath, outputPath string) (pipeline.Relevance, error) {
	if len(r.Command) == 0 {
		return "", errors.New("relevance command is not configured")
	}

	name := r.Command[0]
	args := append([]string(nil), r.Command[1:]...)
	args = append(args,
		"--diff_path", diffPath,
		"--coverage_path", artifactPath,
		"--output_path", outputPath,
	)

	r.logger().Debug("running relevance command", "command", name+" "+strings.Join(args, " "))

	runCommand := r.run
	if runCommand == nil {
		runCommand = runWithExitStatus
	}

	status, output, err := runCommand(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("run relevance tool: %w", err)
	}
	return r.classify(status, output)
}

// classify maps the tool's exit status to a relevance classification. The
// reserved status wins over the ordinary zero/nonzero convention.
func (r *Runner) classify(status int, output []byte) (pipeline.Relevance, error) {
	sentinel := r.FullyCoveredExit
	if sentinel == 0 {
		sentinel = DefaultFullyCoveredExit
	}

	switch status {
	case sentinel:
		return pipeline.RelevanceFullyCovered, nil
	case 0:
		return pipeline.RelevancePartial, nil
	default:
		return "", fmt.Errorf("relevance tool exited with status %d: %s",
			status, strings.TrimSpace(string(output)))
	}
}

func (r *Runner) logger() *slog.Logger {
	if r != nil && r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// runWithExitStatus executes the command, separating "the tool ran and
// exited nonzero" from "the tool could not be run at all".
func runWithExitStatus(ctx context.Context, name string, args ...string) (int, []byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return 0, output, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), output, nil
	}
	return 0, output, err
}
