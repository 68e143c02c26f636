package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneKeepsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.add(t, "TypeA", "Foo")

	if _, _, err := env.run(t, "build"); err != nil {
		t.Fatalf("build: %v", err)
	}
	runs, err := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "*"))
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run directory, got %v (%v)", runs, err)
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(runs[0], old, old); err != nil {
		t.Fatalf("set time: %v", err)
	}

	out, _, err := env.run(t, "prune")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "No runs to prune")

	out, _, err = env.run(t, "prune", "--keep", "0", "--dry-run")
	if err != nil {
		t.Fatalf("prune dry run: %v", err)
	}
	requireContains(t, out, "Would remove run "+filepath.Base(runs[0]))

	out, _, err = env.run(t, "prune", "--keep", "0")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Removed run "+filepath.Base(runs[0]))
	if _, err := os.Stat(runs[0]); !os.IsNotExist(err) {
		t.Fatal("run directory should be gone")
	}
	logs, _ := filepath.Glob(filepath.Join(env.cfg.JobLogDir(), "*.yaml"))
	if len(logs) != 0 {
		t.Fatalf("job logs should be gone, found %v", logs)
	}
}
