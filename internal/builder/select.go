package builder

import (
	"context"

	"datapacks/internal/datapack"
	"datapacks/internal/expand"
	"datapacks/internal/logging"
	"datapacks/internal/services"
	"datapacks/internal/status"
)

// selection is the in-progress batch as seen by the eligibility rules.
type selection struct {
	keys    map[datapack.Key]bool
	perType map[string]int
	count   int
	size    int
}

func newSelection() *selection {
	return &selection{keys: map[datapack.Key]bool{}, perType: map[string]int{}}
}

func (s *selection) add(dp *datapack.DataPack, size int) {
	s.keys[dp.Key] = true
	s.perType[dp.Type]++
	s.count++
	// Separator between batch entries.
	s.size += size + 1
}

func isCandidate(s status.Status, headersOnly bool) bool {
	return s == status.Ready || (s == status.Header && !headersOnly)
}

// next selects, expands and records the first eligible key, or returns nil.
func (b *Builder) next(ctx context.Context, job *Job, expander *expand.Expander, sel *selection) (*datapack.DataPack, error) {
	for _, key := range job.Status.Keys() {
		current, _ := job.Status.Get(key)
		if !isCandidate(current, job.HeadersOnly) {
			continue
		}
		dataPackType := key.Type()
		logger := b.logger.With(logging.Key(key))

		if !job.SingleFile {
			if b.defs.IsSoloDeploy(dataPackType) && sel.count != 0 {
				continue
			}
			if job.SupportParallel && !b.defs.AllowParallel(dataPackType) {
				continue
			}
			if limit, ok := b.defs.MaxDeploy(dataPackType); ok && limit > 0 && sel.perType[dataPackType] >= limit {
				continue
			}
		}

		rec, ok := b.index[key]
		if !ok {
			b.fail(job, key, services.Wrap(services.ErrDiscovery, "build", "resolve label", "record not found in project", nil))
			continue
		}
		if rec.Err != nil {
			b.fail(job, key, rec.Err)
			continue
		}

		if job.DefaultMaxParallel > 1 && !job.SupportParallel && b.defs.AllowParallel(dataPackType) {
			job.SupportParallelAgain = true
		}

		var parents []string
		if !job.HeadersOnly {
			var err error
			if parents, err = b.parentKeys(rec); err != nil {
				return nil, err
			}
		} else if !b.defs.AllowHeadersOnly(dataPackType) {
			continue
		}

		if !job.SingleFile {
			if pending, blocked := b.pendingParent(job, parents, sel); blocked {
				logger.Debug("waiting on parent", logging.String("parent", pending.String()))
				continue
			}
		}

		dp, err := b.assemble(ctx, expander, rec, parents, job.HeadersOnly)
		if err != nil {
			if services.IsStructural(err) {
				return nil, err
			}
			b.fail(job, key, err)
			continue
		}

		next := status.Added
		if job.HeadersOnly {
			next = status.Header
		}
		if err := job.Status.Transition(key, next); err != nil {
			return nil, err
		}
		target := "deploy"
		if job.SingleFile {
			target = "file"
		}
		logger.Info("adding to "+target, logging.String("status", string(next)))
		return dp, nil
	}
	return nil, nil
}

// pendingParent returns the first parent that is known, not yet deployed or
// stubbed, and not part of the current selection.
func (b *Builder) pendingParent(job *Job, parents []string, sel *selection) (datapack.Key, bool) {
	for _, raw := range parents {
		key := datapack.NormalizeKey(raw)
		if b.defs.IsGuaranteedParentKey(raw) || b.defs.IsGuaranteedParentKey(key.String()) {
			continue
		}
		s, known := job.Status.Get(key)
		if !known || status.SatisfiesDependents(s) || sel.keys[key] {
			continue
		}
		return key, true
	}
	return "", false
}

func (b *Builder) fail(job *Job, key datapack.Key, err error) {
	next := services.FailureStatus(err)
	var setErr error
	if next == status.Error {
		setErr = job.Status.Fail(key, err.Error())
	} else {
		setErr = job.Status.Mark(key, next)
	}
	logger := b.logger.With(logging.Key(key))
	if setErr != nil {
		logger.Warn("failed to record failure", logging.Error(setErr))
		return
	}
	logger.Warn("record failed", logging.String("status", string(next)), logging.Error(err))
}
