package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"datapacks/internal/datapack"
	"datapacks/internal/fileutil"
	"datapacks/internal/logging"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// Change is one debounced group of file system events.
type Change struct {
	// Paths lists the changed paths relative to the root, slash separated.
	Paths []string
	At    time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher watches every directory below a root.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
	fs       *fsnotify.Watcher
}

// New registers root and each of its subdirectories with fsnotify.
func New(root string, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		logger:   logging.NewComponentLogger(logger, "watch"),
		fs:       fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Dirs lists the watched directories.
func (w *Watcher) Dirs() []string {
	dirs := w.fs.WatchList()
	slices.Sort(dirs)
	return dirs
}

func (w *Watcher) addTree(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	subdirs, err := fileutil.WalkDirs(dir)
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	for _, rel := range subdirs {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	return nil
}

// Run delivers debounced changes to onChange until ctx ends. An error from
// onChange stops the loop and is returned.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Change) error) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.logger.Info("watching project", logging.String("root", w.root), logging.Int("directories", len(w.fs.WatchList())))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			rel, keep := w.accept(event)
			if !keep {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch event overflow; treating tree as changed")
				pending["."] = struct{}{}
				timer.Reset(w.debounce)
				continue
			}
			w.logger.Warn("watch error", logging.Error(err))
		case at := <-timer.C:
			if len(pending) == 0 {
				continue
			}
			change := Change{At: at}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			slices.Sort(change.Paths)
			clear(pending)
			w.logger.Debug("project changed", logging.Strings("paths", change.Paths))
			if err := onChange(ctx, change); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) accept(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".datapacks-") {
		return "", false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory failed", logging.String("path", event.Name), logging.Error(err))
			}
		}
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	return filepath.ToSlash(rel), true
}

// Keys maps the changed paths to DataPack keys. A path directly below a type
// directory names its key. all is true when a change reaches the root or a
// type directory itself, in which case every key may be affected.
func (c Change) Keys() (keys []datapack.Key, all bool) {
	seen := make(map[datapack.Key]bool)
	for _, p := range c.Paths {
		parts := strings.Split(strings.Trim(p, "/"), "/")
		if len(parts) < 2 || parts[0] == "." || parts[0] == ".." {
			all = true
			continue
		}
		key := datapack.NewKey(parts[0], parts[1])
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, all
}
