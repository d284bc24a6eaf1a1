package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/UCLA-SEAL/Change-Cover/internal/config"
)

func resolveWithArgs(t *testing.T, args []string) (config.Manifest, error) {
	t.Helper()

	flags := &manifestFlags{}
	cmd := &cobra.Command{Use: "run"}
	flags.register(cmd)

	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags.resolve(cmd)
}

func TestResolveKeepsExplicitZeroMinFree(t *testing.T) {
	manifest, err := resolveWithArgs(t, []string{
		"--pr-list", "prs.txt",
		"--output-dir", "/data/out",
		"--project", "pandas",
		"--min-free-gb", "0",
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got := manifest.MinFree(); got != 0 {
		t.Fatalf("MinFree() = %d after explicit --min-free-gb 0, want 0 (guard disabled)", got)
	}
}

func TestResolveAppliesDefaultsWhenFlagsUnset(t *testing.T) {
	manifest, err := resolveWithArgs(t, []string{
		"--pr-list", "prs.txt",
		"--output-dir", "/data/out",
		"--project", "pandas",
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got := manifest.MinFree(); got != config.DefaultMinFreeGB {
		t.Errorf("MinFree() = %d, want default %d", got, config.DefaultMinFreeGB)
	}
	if got := manifest.Workers; got != config.DefaultWorkers {
		t.Errorf("Workers = %d, want default %d", got, config.DefaultWorkers)
	}
	if want := filepath.Join("docker", "pandas", "full_test_suite"); manifest.DockerfileDir != want {
		t.Errorf("DockerfileDir = %s, want %s", manifest.DockerfileDir, want)
	}
}

func TestResolveFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
work_list: prs.txt
output_root: /data/out
project: pandas
workers: 4
min_free_gb: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := resolveWithArgs(t, []string{
		"--config", path,
		"--workers", "2",
		"--min-free-gb", "0",
	})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if manifest.Workers != 2 {
		t.Errorf("Workers = %d, want flag override 2", manifest.Workers)
	}
	if got := manifest.MinFree(); got != 0 {
		t.Errorf("MinFree() = %d, want flag override 0", got)
	}
	if manifest.Project != "pandas" {
		t.Errorf("Project = %s, want pandas from config file", manifest.Project)
	}
}
