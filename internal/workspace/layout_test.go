package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestPathsAreDeterministic(t *testing.T) {
	layout := Layout{OutputRoot: "/data/pandas"}

	first := layout.Paths("123")
	second := layout.Paths("123")
	if first != second {
		t.Fatalf("paths differ across calls: %#v vs %#v", first, second)
	}

	if want := filepath.Join("/data/pandas", "coverage", "123"); first.ArtifactDir != want {
		t.Errorf("ArtifactDir = %s, want %s", first.ArtifactDir, want)
	}
	if want := filepath.Join("/data/pandas", "coverage", "123", "coverage_all.xml"); first.ArtifactFile != want {
		t.Errorf("ArtifactFile = %s, want %s", first.ArtifactFile, want)
	}
	if want := filepath.Join("/data/pandas", "diffs", "123.diff"); first.DiffFile != want {
		t.Errorf("DiffFile = %s, want %s", first.DiffFile, want)
	}
	if want := filepath.Join("/data/pandas", "coverage", "123", "relevance.json"); first.RelevanceFile != want {
		t.Errorf("RelevanceFile = %s, want %s", first.RelevanceFile, want)
	}
}

func TestForCreatesArtifactDirectory(t *testing.T) {
	layout := Layout{OutputRoot: t.TempDir()}

	paths, err := layout.For("42")
	if err != nil {
		t.Fatalf("For returned error: %v", err)
	}

	info, err := os.Stat(paths.ArtifactDir)
	if err != nil {
		t.Fatalf("artifact directory missing: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", paths.ArtifactDir)
	}
}

func TestForRejectsEmptyUnit(t *testing.T) {
	layout := Layout{OutputRoot: t.TempDir()}
	if _, err := layout.For(""); err == nil {
		t.Fatal("expected error for empty unit identifier")
	}
}

func TestForIsSafeForConcurrentUnits(t *testing.T) {
	layout := Layout{OutputRoot: t.TempDir()}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := layout.For(fmt.Sprintf("%d", n)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent For failed: %v", err)
	}
}

func TestPrepareCreatesSharedDirectories(t *testing.T) {
	root := t.TempDir()
	layout := Layout{OutputRoot: filepath.Join(root, "out")}

	if err := layout.Prepare(); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(root, "out", "coverage"),
		filepath.Join(root, "out", "diffs"),
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}

func TestPrepareRequiresOutputRoot(t *testing.T) {
	if err := (Layout{}).Prepare(); err == nil {
		t.Fatal("expected error for empty output root")
	}
}
