package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"datapacks/internal/canonical"
	"datapacks/internal/compile"
	"datapacks/internal/datapack"
	"datapacks/internal/discovery"
	"datapacks/internal/expand"
	"datapacks/internal/filecache"
	"datapacks/internal/logging"
	"datapacks/internal/schema"
	"datapacks/internal/services"
	"datapacks/internal/status"
)

// Builder owns the run-scoped file cache, discovery index and compile queue.
// A Builder serves one job at a time; BuildImport calls are serialized.
type Builder struct {
	defs   *schema.Definitions
	base   *slog.Logger
	logger *slog.Logger

	mu      sync.Mutex
	cache   *filecache.Cache
	queue   *compile.Queue
	index   discovery.Index
	scanned bool
}

// New constructs a Builder. compiler handles compiled fields when a job
// compiles on build; it may be nil otherwise.
func New(defs *schema.Definitions, compiler compile.Compiler, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		defs:   defs,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "builder"),
		cache:  filecache.New(),
		queue:  compile.NewQueue(compiler, logger),
	}
}

// Reset drops the cached files so the next call rescans the project.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Builder) reset() {
	b.cache.Reset()
	b.queue.Reset()
	b.index = nil
	b.scanned = false
}

// BuildImport assembles the next batch for job. It returns nil when no record
// is eligible. Per-record failures are recorded in job.Status; only
// structural failures (unreadable tree, malformed metadata of a selected
// record) are returned.
func (b *Builder) BuildImport(ctx context.Context, job *Job) (*datapack.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if job.Status == nil {
		job.Status = status.NewMap()
	}
	ctx = services.WithRunID(ctx, job.ID)
	logger := logging.WithContext(ctx, b.logger)

	if job.ResetFileData {
		b.reset()
		job.ResetFileData = false
	}
	if !b.scanned {
		if err := b.initialize(ctx, job); err != nil {
			return nil, err
		}
	}

	expander := expand.New(b.defs, b.cache, b.queue, b.base, expand.WithCompileOnBuild(job.CompileOnBuild))
	sel := newSelection()
	maxSize, maxCount := job.limits()
	batch := &datapack.Batch{}

	for {
		dp, err := b.next(ctx, job, expander, sel)
		if err != nil {
			b.queue.Reset()
			return nil, err
		}
		if dp == nil {
			break
		}
		size, err := encodedSize(dp)
		if err != nil {
			b.queue.Reset()
			return nil, services.Wrap(services.ErrMetadata, "build", "measure batch", dp.Key.String(), err)
		}
		batch.DataPacks = append(batch.DataPacks, dp)
		sel.add(dp, size)

		if job.SingleFile {
			break
		}
		if b.defs.IsSoloDeploy(dp.Type) {
			break
		}
		if sel.size >= maxSize || batch.Len() >= maxCount {
			break
		}
	}

	result := b.queue.Drain(ctx)
	job.recordErrors(result.Errors)

	if batch.Len() == 0 {
		logger.Debug("no eligible records")
		return nil, nil
	}
	batch.Remaining = remaining(job.Status)
	logger.Info("batch assembled",
		logging.Int("records", batch.Len()),
		logging.Int("bytes", sel.size),
		logging.Int("remaining", batch.Remaining),
		logging.Int("compiled", result.Compiled),
		logging.Bool("headers_only", job.HeadersOnly),
	)
	return batch, nil
}

func (b *Builder) initialize(ctx context.Context, job *Job) error {
	scanner := discovery.New(b.defs, b.cache, b.base)
	result, err := scanner.Scan(ctx, discovery.Options{
		Root:     job.ImportPath(),
		Manifest: job.Manifest,
		Workers:  job.DiscoveryWorkers,
	})
	if err != nil {
		return err
	}
	job.PreDeployDataSummary = result.PreDeploySummary
	job.AllDeployDataSummary = result.AllDeploySummary
	job.UnmatchedManifest = result.Unmatched
	result.Seed(job.Status)
	b.index = result.Index()
	b.scanned = true
	return nil
}

// assemble reads and expands the record behind key.
func (b *Builder) assemble(ctx context.Context, expander *expand.Expander, rec discovery.Record, parents []string, headersOnly bool) (*datapack.DataPack, error) {
	path := discovery.MetadataPath(rec.Dir, rec.Label)
	entry, ok := b.cache.Get(path)
	if !ok {
		return nil, services.Wrap(services.ErrDiscovery, "build", "read metadata", path, nil)
	}
	decoded, err := canonical.Decode(entry.Content)
	if err != nil {
		return nil, services.Wrap(services.ErrMetadata, "build", "parse metadata", path, err)
	}
	dataField := datapack.RecordType(firstRecord(decoded))

	built, err := expander.Expand(services.WithDataPackKey(ctx, rec.Key.String()), decoded, rec.Dir, rec.Type, dataField)
	if err != nil {
		return nil, err
	}
	if len(built) > 0 && built[0][datapack.FieldType] == "SObject" {
		if sub := datapack.RecordType(built[0]); sub != "" {
			dataField = sub
		}
	}
	if dataField == "" {
		return nil, services.Wrap(services.ErrMetadata, "build", "parse metadata", path, errors.New("missing "+datapack.FieldRecordType))
	}
	if headersOnly && len(built) > 0 {
		for field, value := range built[0] {
			if _, ok := value.([]any); ok {
				built[0][field] = []any{}
			}
		}
	}

	records := make([]any, len(built))
	for i, r := range built {
		records[i] = r
	}
	return &datapack.DataPack{
		Key:        rec.Key,
		Type:       rec.Type,
		Name:       rec.Name,
		Parents:    parents,
		Status:     string(status.Success),
		IsIncluded: true,
		Data: datapack.Record{
			datapack.FieldKey:        rec.Key.String(),
			datapack.FieldType:       rec.Type,
			datapack.FieldIsIncluded: true,
			dataField:                records,
		},
	}, nil
}

// parentKeys reads the dependency sidecar. A record without one has no parents.
func (b *Builder) parentKeys(rec discovery.Record) ([]string, error) {
	path := discovery.ParentKeysPath(rec.Dir, rec.Label)
	entry, ok := b.cache.Get(path)
	if !ok {
		return nil, nil
	}
	decoded, err := canonical.Decode(entry.Content)
	if err != nil {
		return nil, services.Wrap(services.ErrMetadata, "build", "parse parent keys", path, err)
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, services.Wrap(services.ErrMetadata, "build", "parse parent keys", path, fmt.Errorf("expected array, got %T", decoded))
	}
	parents := make([]string, 0, len(items))
	for _, item := range items {
		if key, ok := item.(string); ok {
			parents = append(parents, key)
		}
	}
	return parents, nil
}

// MarkBatch records the deployment outcome of every record in batch. Header
// stubs keep their status on success so the full record is built later.
func MarkBatch(job *Job, batch *datapack.Batch, outcome status.Status) error {
	if batch == nil {
		return nil
	}
	var errs []error
	for _, key := range batch.Keys() {
		current, _ := job.Status.Get(key)
		if current == status.Header && outcome == status.Success {
			continue
		}
		if err := job.Status.Mark(key, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func firstRecord(decoded any) datapack.Record {
	switch v := decoded.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) > 0 {
			rec, _ := v[0].(map[string]any)
			return rec
		}
	}
	return nil
}

func encodedSize(dp *datapack.DataPack) (int, error) {
	text, err := canonical.Stringify(dp)
	if err != nil {
		return 0, err
	}
	return len(text), nil
}

func remaining(m *status.Map) int {
	count := 0
	for _, e := range m.Entries() {
		if status.IsRemaining(e.Status) && e.Status != status.Added {
			count++
		}
	}
	return count
}
