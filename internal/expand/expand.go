// Package expand inlines the sibling files a record's metadata refers to.
//
// Which fields reference files, and how, comes from the expanded definition:
// scalar fields take the raw file content, object and list fields are parsed
// as child records and expanded recursively, and compiled fields queue a
// compile job whose output lands in a second field once the queue drains.
package expand

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"datapacks/internal/canonical"
	"datapacks/internal/compile"
	"datapacks/internal/datapack"
	"datapacks/internal/filecache"
	"datapacks/internal/fileutil"
	"datapacks/internal/logging"
	"datapacks/internal/schema"
	"datapacks/internal/services"
)

// Expander resolves file references against a populated file cache.
type Expander struct {
	defs           *schema.Definitions
	cache          *filecache.Cache
	queue          *compile.Queue
	compileOnBuild bool
	logger         *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithCompileOnBuild queues compiled fields instead of inlining their output
// file.
func WithCompileOnBuild(enabled bool) Option {
	return func(e *Expander) { e.compileOnBuild = enabled }
}

// New constructs an Expander. queue may be nil when compiling on build is off.
func New(defs *schema.Definitions, cache *filecache.Cache, queue *compile.Queue, logger *slog.Logger, opts ...Option) *Expander {
	e := &Expander{
		defs:   defs,
		cache:  cache,
		queue:  queue,
		logger: logging.NewComponentLogger(logger, "expand"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand inlines every file reference in raw, which is a decoded metadata
// value: a single record or a list of records. dir is the record directory
// file names resolve against, and section names the definition section that
// applies (the record sub-type at the top level, the parent field below it).
//
// The result is always a list. A missing referenced file drops its field and
// logs a warning; malformed child JSON is returned as an error.
func (e *Expander) Expand(ctx context.Context, raw any, dir, dataPackType, section string) ([]datapack.Record, error) {
	w := walker{
		Expander: e,
		logger:   logging.WithContext(ctx, e.logger),
		dir:      dir,
		typ:      dataPackType,
		active:   map[string]bool{},
	}
	return w.expand(raw, section)
}

type walker struct {
	*Expander
	logger *slog.Logger
	dir    string
	typ    string
	// active holds the child files currently being expanded.
	active map[string]bool
}

func (w *walker) expand(raw any, section string) ([]datapack.Record, error) {
	records, err := asRecords(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrMetadata, "expand", section, "", err)
	}
	fields, ok := w.defs.Fields(w.typ, section)
	if !ok {
		return records, nil
	}
	jsonFields := w.defs.JSONFields(w.typ, section)
	compiledFields := w.defs.CompiledFields(w.typ, section)

	for _, rec := range records {
		if _, ok := rec[datapack.FieldType]; ok {
			rec[datapack.FieldIsIncluded] = true
		}
		for _, field := range slices.Sorted(maps.Keys(rec)) {
			spec, ok := fields[field]
			if !ok {
				continue
			}
			if err := w.resolveField(rec, field, spec, section, compiledFields); err != nil {
				return nil, err
			}
		}
		for _, field := range jsonFields {
			value, ok := rec[field]
			if !ok || value == "" {
				continue
			}
			stable, err := stableJSON(value)
			if err != nil {
				return nil, services.Wrap(services.ErrMetadata, "expand", field, "serialize json field", err)
			}
			rec[field] = stable
		}
	}
	return records, nil
}

func (w *walker) resolveField(rec datapack.Record, field string, spec schema.FieldSpec, section string, compiledFields []string) error {
	if names, ok := rec[field].([]any); ok && spec.Kind == schema.KindObject {
		var children []any
		for _, item := range names {
			name, ok := item.(string)
			if !ok {
				continue
			}
			expanded, found, err := w.child(name, field)
			if err != nil {
				return err
			}
			if !found {
				w.missing(field, name)
				continue
			}
			children = append(children, expanded...)
		}
		if children == nil {
			children = []any{}
		}
		rec[field] = children
		return nil
	}

	name, ok := rec[field].(string)
	if !ok {
		return nil
	}
	path := filepath.Join(w.dir, name)
	entry, found := w.cache.Get(path)
	if !found {
		w.missing(field, name)
		delete(rec, field)
		return nil
	}

	switch {
	case spec.Kind == schema.KindList || spec.Kind == schema.KindObject:
		expanded, _, err := w.child(name, field)
		if err != nil {
			return err
		}
		rec[field] = expanded
	case spec.Kind == schema.KindCompiled && w.compileOnBuild:
		w.enqueue(rec, path, spec, entry.Content)
		rec[field] = entry.Content
	case w.compileOnBuild && slices.Contains(compiledFields, field):
		// Filled by the compile job of the matching source field.
		delete(rec, field)
	default:
		rec[field] = entry.Content
	}
	return nil
}

// child parses and expands the JSON file name, reporting whether it exists.
func (w *walker) child(name, field string) ([]any, bool, error) {
	path := filepath.Join(w.dir, name)
	entry, ok := w.cache.Get(path)
	if !ok {
		return nil, false, nil
	}
	key := filecache.Key(path)
	if w.active[key] {
		return nil, true, services.Wrap(services.ErrMetadata, "expand", field, "cyclic file reference "+name, nil)
	}
	w.active[key] = true
	defer delete(w.active, key)

	decoded, err := canonical.Decode(entry.Content)
	if err != nil {
		return nil, true, services.Wrap(services.ErrMetadata, "expand", field, "parse "+name, err)
	}
	records, err := w.expand(decoded, field)
	if err != nil {
		return nil, true, err
	}
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = rec
	}
	return out, true, nil
}

func (w *walker) enqueue(rec datapack.Record, path string, spec schema.FieldSpec, source string) {
	if w.queue == nil {
		return
	}
	includePaths, err := siblingDirs(w.dir)
	if err != nil {
		w.logger.Warn("failed to list include paths", logging.String("file", path), logging.Error(err))
	}
	target := spec.CompiledField
	w.queue.Push(compile.Job{
		Filename: path,
		Language: spec.FileType,
		Source:   source,
		Options:  compile.Options{IncludePaths: includePaths},
		Callback: func(compiled string, err error) {
			if err != nil {
				return
			}
			rec[target] = compiled
		},
	})
	w.logger.Debug("queued compile job",
		logging.String("file", path),
		logging.String("language", spec.FileType),
		logging.String("target", target),
	)
}

func (w *walker) missing(field, name string) {
	w.logger.Warn("referenced file does not exist",
		logging.String("field", field),
		logging.String("file", filepath.Join(w.dir, name)),
	)
}

// siblingDirs lists the record directories next to dir, dir included, each
// with a trailing separator.
func siblingDirs(dir string) ([]string, error) {
	parent := filepath.Dir(dir)
	names, err := fileutil.ListDirs(parent)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(parent, name)+string(filepath.Separator))
	}
	return paths, nil
}

func asRecords(raw any) ([]datapack.Record, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %T", raw)
	}
	records := make([]datapack.Record, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not an object", i, item)
		}
		records = append(records, rec)
	}
	return records, nil
}

// stableJSON re-serializes a JSON field. Text holding JSON is rewritten into
// its stable form; other text is kept; structured values are serialized.
func stableJSON(value any) (string, error) {
	if text, ok := value.(string); ok {
		return canonical.CanonicalString(text), nil
	}
	return canonical.Stringify(value)
}
