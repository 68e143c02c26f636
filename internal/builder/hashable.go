package builder

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"datapacks/internal/canonical"
	"datapacks/internal/datapack"
	"datapacks/internal/expand"
	"datapacks/internal/services"
)

// Hashable returns the comparison form of dp: a deep copy without the
// scheduling bookkeeping fields, whose primary records have volatile and
// identity fields stripped and embedded JSON rewritten into stable form.
func (b *Builder) Hashable(dp *datapack.DataPack) (map[string]any, error) {
	tree, err := canonical.ToTree(dp)
	if err != nil {
		return nil, err
	}
	clone, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("datapack %s did not encode as an object", dp.Key)
	}
	clone[datapack.FieldParents] = nil
	clone[datapack.FieldAllRelationships] = nil

	data, _ := clone[datapack.FieldData].(map[string]any)
	field, ok := datapack.PrimaryField(data)
	if !ok {
		return clone, nil
	}
	for _, item := range data[field].([]any) {
		if rec, ok := item.(map[string]any); ok {
			canonical.StripUnhashable(b.defs, dp.Type, rec)
		}
	}
	return clone, nil
}

// Hash returns the hex SHA-256 of the hashable form of dp.
func (b *Builder) Hash(dp *datapack.DataPack) (string, error) {
	hashable, err := b.Hashable(dp)
	if err != nil {
		return "", err
	}
	return canonical.Hash(hashable)
}

// Load builds the fully expanded DataPack for key without touching the job's
// status map. Compiled fields are compiled before it returns. The project is
// scanned first when needed.
func (b *Builder) Load(ctx context.Context, job *Job, key datapack.Key) (*datapack.DataPack, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.scanned {
		if err := b.initialize(ctx, job); err != nil {
			return nil, err
		}
	}
	rec, ok := b.index[key]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "hash", "resolve label", key.String(), nil)
	}
	if rec.Err != nil {
		return nil, rec.Err
	}
	parents, err := b.parentKeys(rec)
	if err != nil {
		return nil, err
	}
	expander := expand.New(b.defs, b.cache, b.queue, b.base, expand.WithCompileOnBuild(job.CompileOnBuild))
	dp, err := b.assemble(ctx, expander, rec, parents, false)
	if err != nil {
		b.queue.Reset()
		return nil, err
	}
	if result := b.queue.Drain(ctx); result.HasErrors() {
		return dp, services.Wrap(services.ErrCompile, "hash", "compile", key.String(), result.Err())
	}
	return dp, nil
}

// Keys lists the discovered keys in sorted order.
func (b *Builder) Keys() []datapack.Key {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Sorted(maps.Keys(b.index))
}

// Scan discovers the project for job unless a scan is already cached. It
// honours ResetFileData like BuildImport.
func (b *Builder) Scan(ctx context.Context, job *Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if job.ResetFileData {
		b.reset()
		job.ResetFileData = false
	}
	if b.scanned {
		return nil
	}
	return b.initialize(ctx, job)
}
