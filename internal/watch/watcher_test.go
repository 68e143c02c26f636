package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"datapacks/internal/datapack"
	"datapacks/internal/logging"
	"datapacks/internal/watch"
)

func TestNewWatchesEveryDirectory(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"Product2/Widget", "VlocityUITemplate/card"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	w, err := watch.New(root, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	dirs := w.Dirs()
	for _, want := range []string{root, filepath.Join(root, "Product2", "Widget"), filepath.Join(root, "VlocityUITemplate")} {
		if !slices.Contains(dirs, want) {
			t.Fatalf("expected %s to be watched, got %v", want, dirs)
		}
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	if _, err := watch.New(filepath.Join(t.TempDir(), "missing"), logging.NewNop()); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestRunDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	packDir := filepath.Join(root, "Product2", "Widget")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := watch.New(root, logging.NewNop(), watch.WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changes := make(chan watch.Change, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, c watch.Change) error {
			changes <- c
			return nil
		})
	}()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(packDir, "Widget_DataPack.json"), []byte(`{"Name":"Widget"}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case c := <-changes:
		if !slices.Contains(c.Paths, "Product2/Widget/Widget_DataPack.json") {
			t.Fatalf("unexpected paths %v", c.Paths)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunStopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	w, err := watch.New(root, logging.NewNop(), watch.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stop := errors.New("stop")
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context, watch.Change) error { return stop })
	}()

	// A new directory counts as a change.
	if err := os.MkdirAll(filepath.Join(root, "OmniScript"), 0o755); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, stop) {
			t.Fatalf("Run returned %v, want stop", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for Run to stop")
	}
}

func TestChangeKeys(t *testing.T) {
	c := watch.Change{Paths: []string{
		"Product2/Widget/Widget_DataPack.json",
		"Product2/Widget/Widget_Attributes.json",
		"VlocityUITemplate/card/card.scss",
	}}
	keys, all := c.Keys()
	if all {
		t.Fatal("file changes below records should not affect every key")
	}
	want := []datapack.Key{"Product2/Widget", "VlocityUITemplate/card"}
	if !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	if _, all := (watch.Change{Paths: []string{"OmniScript"}}).Keys(); !all {
		t.Fatal("a type directory change should affect every key")
	}
	if _, all := (watch.Change{Paths: []string{"."}}).Keys(); !all {
		t.Fatal("a root change should affect every key")
	}
}
