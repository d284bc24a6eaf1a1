// Package docker adapts the docker CLI to the pipeline's image driver
// interface. Every operation is an opaque synchronous subprocess; cancelling
// the context kills the underlying process.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UCLA-SEAL/Change-Cover/internal/pipeline"
)

// Ensure Driver satisfies the pipeline's image driver interface.
var _ pipeline.ImageDriver = (*Driver)(nil)

// artifactImageDir roots the in-image artifact location; the full-test-suite
// image leaves its coverage report at /opt/<project>/coverage_all.xml.
const artifactImageDir = "/opt"

// mountPoint is where the unit's artifact directory is mounted in the
// extraction container.
const mountPoint = "/mnt"

// Driver shells out to the docker CLI.
type Driver struct {
	Logger *slog.Logger

	// Binary is the docker executable, "docker" by default.
	Binary string

	// DockerfileDir is the build context containing the project's
	// full-test-suite Dockerfile.
	DockerfileDir string

	// Project names the repository under test; it selects the in-image
	// artifact location /opt/<project>/coverage_all.xml.
	Project string

	// BuildUID and BuildGID are passed as build args so files created inside
	// the image belong to the caller. They default to the current process.
	BuildUID string
	BuildGID string

	// run executes the composed command; tests replace it.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDriver returns a Driver for the given build context and project,
// parameterized by the calling user's identity.
func NewDriver(logger *slog.Logger, dockerfileDir, project string) *Driver {
	return &Driver{
		Logger:        logger,
		Binary:        "docker",
		DockerfileDir: dockerfileDir,
		Project:       project,
		BuildUID:      strconv.Itoa(os.Getuid()),
		BuildGID:      strconv.Itoa(os.Getgid()),
	}
}

// Build runs `docker build` for the unit's deterministic tag, passing the
// unit identifier and caller identity as build args.
func (d *Driver) Build(ctx context.Context, tag, unitID string) error {
	args := []string{
		"build",
		"--build-arg", "UID=" + d.BuildUID,
		"--build-arg", "GID=" + d.BuildGID,
		"--build-arg", "PR_NUMBER=" + unitID,
		"-t", tag,
		d.DockerfileDir,
	}
	return d.execute(ctx, args)
}

// ExtractArtifact runs the built image with hostDir mounted and copies the
// coverage artifact out of the container filesystem.
func (d *Driver) ExtractArtifact(ctx context.Context, tag, hostDir string) error {
	absDir, err := filepath.Abs(hostDir)
	if err != nil {
		return fmt.Errorf("resolve artifact directory %s: %w", hostDir, err)
	}

	source := filepath.ToSlash(filepath.Join(artifactImageDir, d.Project, "coverage_all.xml"))
	copyCommand := fmt.Sprintf("cp %s %s/coverage_all.xml", source, mountPoint)

	args := []string{
		"run", "--rm",
		"-v", absDir + ":" + mountPoint,
		tag,
		"/bin/bash", "-c", copyCommand,
	}
	return d.execute(ctx, args)
}

// Remove deletes the unit's image.
func (d *Driver) Remove(ctx context.Context, tag string) error {
	return d.execute(ctx, []string{"rmi", tag})
}

// PruneBuildCache trims the builder cache down to roughly keepStorageGB.
func (d *Driver) PruneBuildCache(ctx context.Context, keepStorageGB int) error {
	args := []string{
		"builder", "prune",
		"--keep-storage", fmt.Sprintf("%dGB", keepStorageGB),
		"-f",
	}
	return d.execute(ctx, args)
}

func (d *Driver) execute(ctx context.Context, args []string) error {
	binary := d.Binary
	if binary == "" {
		binary = "docker"
	}

	d.logger().Debug("running docker command", "command", binary+" "+strings.Join(args, " "))

	runCommand := d.run
	if runCommand == nil {
		runCommand = runCombined
	}

	output, err := runCommand(ctx, binary, args...)
	if err != nil {
		return &CommandError{
			Command: append([]string{binary}, args...),
			Output:  strings.TrimSpace(string(output)),
			Err:     err,
		}
	}
	return nil
}

func (d *Driver) logger() *slog.Logger {
	if d != nil && d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandError reports a failed docker invocation together with its captured
// output.
type CommandError struct {
	Command []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", strings.Join(e.Command, " "), e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", strings.Join(e.Command, " "), e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
