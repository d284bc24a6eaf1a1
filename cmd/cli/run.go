package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/UCLA-SEAL/Change-Cover/internal/config"
	"github.com/UCLA-SEAL/Change-Cover/internal/logging"
	"github.com/UCLA-SEAL/Change-Cover/internal/pipeline"
	"github.com/UCLA-SEAL/Change-Cover/internal/pipeline/adapters/docker"
	"github.com/UCLA-SEAL/Change-Cover/internal/pipeline/adapters/relevance"
	"github.com/UCLA-SEAL/Change-Cover/internal/worklist"
	"github.com/UCLA-SEAL/Change-Cover/internal/workspace"
)

type manifestFlags struct {
	configPath       string
	workList         string
	outputRoot       string
	project          string
	dockerfileDir    string
	workers          int
	maxUnits         int
	relevanceCommand []string
	fullyCoveredExit int
	minFreeGB        int
	keepStorageGB    int
	logFile          string
}

func (f *manifestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to a yaml run manifest")
	flags.StringVar(&f.workList, "pr-list", "", "Path to the newline-separated PR list")
	flags.StringVar(&f.outputRoot, "output-dir", "", "Directory for coverage/, diffs/, and the run log")
	flags.StringVar(&f.project, "project", "", "Project tag used for image names and artifact paths")
	flags.StringVar(&f.dockerfileDir, "dockerfile-dir", "", "Docker build context (default docker/<project>/full_test_suite)")
	flags.IntVar(&f.workers, "workers", config.DefaultWorkers, "Number of concurrent unit pipelines")
	flags.IntVar(&f.maxUnits, "max-units", 0, "Process at most this many PRs (0 = all)")
	flags.StringSliceVar(&f.relevanceCommand, "relevance-cmd", nil, "Relevance tool invocation prefix")
	flags.IntVar(&f.fullyCoveredExit, "fully-covered-exit", config.DefaultFullyCoveredExit, "Exit status the relevance tool reserves for full coverage")
	flags.IntVar(&f.minFreeGB, "min-free-gb", config.DefaultMinFreeGB, "Prune the builder cache below this free space (0 disables)")
	flags.IntVar(&f.keepStorageGB, "keep-storage-gb", config.DefaultKeepStorageGB, "Builder cache size kept by the prune")
	flags.StringVar(&f.logFile, "log-file", "", "Run log location (default <output-dir>/change-cover.log)")
}

// resolve merges the manifest file, if any, with explicitly set flags. Flags
// win over the file; defaults fill the rest.
func (f *manifestFlags) resolve(cmd *cobra.Command) (config.Manifest, error) {
	manifest := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Manifest{}, err
		}
		manifest = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("pr-list") {
		manifest.WorkList = f.workList
	}
	if flags.Changed("output-dir") {
		manifest.OutputRoot = f.outputRoot
	}
	if flags.Changed("project") {
		manifest.Project = f.project
	}
	if flags.Changed("dockerfile-dir") {
		manifest.DockerfileDir = f.dockerfileDir
	}
	if flags.Changed("workers") {
		manifest.Workers = f.workers
	}
	if flags.Changed("max-units") {
		manifest.MaxUnits = f.maxUnits
	}
	if flags.Changed("relevance-cmd") {
		manifest.RelevanceCommand = f.relevanceCommand
	}
	if flags.Changed("fully-covered-exit") {
		manifest.FullyCoveredExit = f.fullyCoveredExit
	}
	if flags.Changed("min-free-gb") {
		manifest.MinFreeGB = &f.minFreeGB
	}
	if flags.Changed("keep-storage-gb") {
		manifest.KeepStorageGB = f.keepStorageGB
	}
	if flags.Changed("log-file") {
		manifest.LogFile = f.logFile
	}

	// Defaults were already applied by Default or Load; only the
	// project-dependent build context may still need deriving. Re-applying
	// defaults here would stamp over explicit zero values such as
	// --min-free-gb 0.
	manifest.DeriveDockerfileDir()
	if err := manifest.Validate(); err != nil {
		return config.Manifest{}, err
	}
	return manifest, nil
}

func newRunCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	flags := &manifestFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the coverage pipeline over the PR list",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), logger, levelVar, manifest)
		},
	}

	flags.register(cmd)
	return cmd
}

func runPipeline(ctx context.Context, logger *slog.Logger, levelVar *slog.LevelVar, manifest config.Manifest) error {
	layout := workspace.Layout{OutputRoot: manifest.OutputRoot}
	if err := layout.Prepare(); err != nil {
		return err
	}

	units, err := worklist.LoadFile(manifest.WorkList)
	if err != nil {
		return err
	}
	units = worklist.Cap(units, manifest.MaxUnits)

	logPath := manifest.LogFile
	if logPath == "" {
		logPath = layout.LogFile()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log %s: %w", logPath, err)
	}
	defer logFile.Close()

	// One serialized sink shared by every stage of every unit: records land
	// in the durable log and on stderr in the same write.
	runLogger := logging.NewCLI(io.MultiWriter(logFile, os.Stderr), levelVar)

	driver := docker.NewDriver(runLogger.With("driver", "docker"), manifest.DockerfileDir, manifest.Project)
	runner := relevance.NewRunner(runLogger.With("driver", "relevance"), manifest.RelevanceCommand)
	runner.FullyCoveredExit = manifest.FullyCoveredExit

	reporter := pipeline.NewReporter(runLogger)
	service := pipeline.NewService(runLogger, layout, manifest.Project, driver, runner, reporter)
	service.MinFreeGB = manifest.MinFree()
	service.KeepStorageGB = manifest.KeepStorageGB

	dispatcher := pipeline.Dispatcher{
		Logger:    runLogger,
		Processor: service,
		Limit:     manifest.Workers,
	}

	logger.Info("run log", "path", logPath)
	reporter.Start(manifest.Project, len(units))
	dispatcher.Run(ctx, units)
	reporter.Summarize()

	return ctx.Err()
}

func newPlanCommand(logger *slog.Logger) *cobra.Command {
	flags := &manifestFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Report which PRs would skip each stage, without executing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return planPipeline(logger, manifest)
		},
	}

	flags.register(cmd)
	return cmd
}

func planPipeline(logger *slog.Logger, manifest config.Manifest) error {
	layout := workspace.Layout{OutputRoot: manifest.OutputRoot}

	units, err := worklist.LoadFile(manifest.WorkList)
	if err != nil {
		return err
	}
	units = worklist.Cap(units, manifest.MaxUnits)

	var pending, resumable, done int
	for _, unitID := range units {
		paths := layout.Paths(unitID)

		artifactPresent := fileExists(paths.ArtifactFile)
		reportPresent := fileExists(paths.RelevanceFile)
		switch {
		case reportPresent:
			done++
		case artifactPresent:
			resumable++
		default:
			pending++
		}

		logger.Info("plan",
			"unit", unitID,
			"artifact_present", artifactPresent,
			"report_present", reportPresent,
			"diff_present", fileExists(paths.DiffFile),
		)
	}

	logger.Info("plan summary",
		"units", len(units),
		"pending", pending,
		"resumable", resumable,
		"done", done,
	)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
