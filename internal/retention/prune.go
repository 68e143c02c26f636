package retention

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"datapacks/internal/logging"
)

// Run describes one per-run output directory.
type Run struct {
	ID      string
	Path    string
	ModTime time.Time
	Size    int64
}

// Result contains the outcome of a prune.
type Result struct {
	Removed []string
	Freed   int64
	Errors  []PruneError
}

// PruneError pairs a path with its removal error.
type PruneError struct {
	Path  string
	Error error
}

// Options selects which runs to prune.
type Options struct {
	OutputDir string
	JobLogDir string
	MaxAge    time.Duration
	// Keep lists run ids that are never removed, such as the latest run.
	Keep   map[string]struct{}
	DryRun bool
}

// ListRuns returns the run directories under outputDir, oldest first.
func ListRuns(outputDir string) ([]Run, error) {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var runs []Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		size, _ := dirSize(path)
		runs = append(runs, Run{ID: entry.Name(), Path: path, ModTime: info.ModTime(), Size: size})
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].ModTime.Before(runs[j].ModTime) })
	return runs, nil
}

// Prune removes run directories older than opts.MaxAge together with their
// job logs. With DryRun set it only reports what would be removed.
func Prune(ctx context.Context, opts Options, logger *slog.Logger) Result {
	result := Result{}
	runs, err := ListRuns(opts.OutputDir)
	if err != nil {
		result.Errors = append(result.Errors, PruneError{Path: opts.OutputDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-opts.MaxAge)
	for _, run := range runs {
		if ctx.Err() != nil {
			break
		}
		if _, keep := opts.Keep[run.ID]; keep || !run.ModTime.Before(cutoff) {
			continue
		}
		if opts.DryRun {
			result.Removed = append(result.Removed, run.ID)
			result.Freed += run.Size
			continue
		}
		if err := os.RemoveAll(run.Path); err != nil {
			result.Errors = append(result.Errors, PruneError{Path: run.Path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove run output",
					logging.String("path", run.Path),
					logging.Error(err),
				)
			}
			continue
		}
		if opts.JobLogDir != "" {
			logPath := filepath.Join(opts.JobLogDir, run.ID+".yaml")
			if err := os.Remove(logPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				result.Errors = append(result.Errors, PruneError{Path: logPath, Error: err})
			}
		}
		result.Removed = append(result.Removed, run.ID)
		result.Freed += run.Size
		if logger != nil {
			logger.Info("removed run output",
				logging.String(logging.FieldRunID, run.ID),
				logging.Duration("age", time.Since(run.ModTime)),
			)
		}
	}
	return result
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
