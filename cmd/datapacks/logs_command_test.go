package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datapacks/internal/logging"
)

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	content := `{"ts":"2026-03-01T10:00:00Z","level":"warn","msg":"referenced file missing","component":"expand","run_id":"r1","datapack_key":"TypeA/Foo"}
{"ts":"2026-03-01T10:05:00Z","level":"error","msg":"build failed","component":"cli","run_id":"r2"}
`
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := env.run(t, "logs", "--run", "r1")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "WARN expand: [TypeA/Foo] referenced file missing")
	if strings.Contains(out, "build failed") {
		t.Fatalf("unexpected entry from another run:\n%s", out)
	}

	out, _, err = env.run(t, "logs", "--run", "missing")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No matching log entries")

	if _, _, err := env.run(t, "logs", "--level", "loud"); err == nil {
		t.Fatal("expected invalid level to fail")
	}
}
