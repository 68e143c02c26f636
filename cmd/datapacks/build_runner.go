package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"datapacks/internal/builder"
	"datapacks/internal/config"
	"datapacks/internal/datapack"
	"datapacks/internal/fileutil"
	"datapacks/internal/logging"
	"datapacks/internal/report"
	"datapacks/internal/services"
	"datapacks/internal/status"
	"datapacks/internal/store"
)

// buildRunner drives one or more build runs against a shared Builder so
// watch mode keeps its scan between runs until files change.
type buildRunner struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	builder *builder.Builder
}

type runOptions struct {
	SingleFile    bool
	ResetFileData bool
}

type runResult struct {
	Log     report.JobLog
	Path    string
	Summary report.Summary
}

func newBuildRunner(cfg *config.Config, logger *slog.Logger, st *store.Store) (*buildRunner, error) {
	defs, err := loadDefinitions(cfg)
	if err != nil {
		return nil, err
	}
	return &buildRunner{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "cli"),
		store:   st,
		builder: builder.New(defs, newCompiler(cfg), logger),
	}, nil
}

func (r *buildRunner) project() string {
	return r.cfg.ImportPath()
}

// newJob builds a job from config and restores the saved statuses.
func (r *buildRunner) newJob(ctx context.Context) (*builder.Job, error) {
	job := builder.JobFromConfig(r.cfg)
	entries, err := r.store.LoadStatuses(ctx, r.project())
	if err != nil {
		return nil, err
	}
	if err := job.Status.Restore(resumable(entries)); err != nil {
		return nil, fmt.Errorf("restore statuses: %w", err)
	}
	return job, nil
}

// resumable returns entries with Added statuses put back to Ready. A saved
// Added status means a run stopped before its batch was handed off.
func resumable(entries []status.Entry) []status.Entry {
	out := make([]status.Entry, len(entries))
	for i, e := range entries {
		if e.Status == status.Added {
			e.Status = status.Ready
		}
		out[i] = e
	}
	return out
}

// run builds every eligible batch, writes each to the output directory and
// records the outcome. Statuses and the job log are saved even when the run
// fails part way.
func (r *buildRunner) run(ctx context.Context, opts runOptions) (runResult, error) {
	job, err := r.newJob(ctx)
	if err != nil {
		return runResult{}, err
	}
	if opts.SingleFile {
		job.SingleFile = true
	}
	job.ResetFileData = opts.ResetFileData

	ctx = services.WithRunID(ctx, job.ID)
	logger := logging.WithContext(ctx, r.logger)

	if err := r.store.BeginRun(ctx, job.ID, r.project()); err != nil {
		return runResult{}, err
	}
	log := report.JobLog{RunID: job.ID, StartedAt: time.Now().UTC()}
	outDir := filepath.Join(r.cfg.Paths.OutputDir, job.ID)

	runErr := r.passes(ctx, job, &log, outDir)

	log.FinishedAt = time.Now().UTC()
	for _, err := range job.Errors {
		log.Errors = append(log.Errors, err.Error())
	}
	if runErr != nil {
		log.Errors = append(log.Errors, runErr.Error())
	}
	log.Summary = report.Summarize(job)

	// Persist with a context that outlives cancellation so an interrupted
	// run still records what it handed off.
	saveCtx := context.WithoutCancel(ctx)
	var errs []error
	if err := r.store.SaveStatuses(saveCtx, r.project(), job.Status.Entries()); err != nil {
		errs = append(errs, err)
	}
	if err := r.store.FinishRun(saveCtx, job.ID, len(log.Batches), log.Records(), strings.Join(log.Errors, "\n")); err != nil {
		errs = append(errs, err)
	}
	path, err := report.WriteJobLog(r.cfg.JobLogDir(), log)
	if err != nil {
		errs = append(errs, err)
	}

	logger.Info("build finished",
		logging.Int("batches", len(log.Batches)),
		logging.Int("records", log.Records()),
		logging.Int("remaining", log.Summary.Remaining),
		logging.Int("errors", log.Summary.Errors),
		logging.String("job_log", path),
	)
	if log.Summary.SupportParallelAgain {
		logger.Info("records that allow parallel deployment were found; consider enabling build.support_parallel")
	}

	return runResult{Log: log, Path: path, Summary: log.Summary}, errors.Join(append([]error{runErr}, errs...)...)
}

// passes runs the header pass when configured, then the full pass.
func (r *buildRunner) passes(ctx context.Context, job *builder.Job, log *report.JobLog, outDir string) error {
	if job.HeadersOnly {
		if err := r.drain(services.WithPhase(ctx, "headers"), job, log, outDir); err != nil {
			return err
		}
		job.HeadersOnly = false
	}
	return r.drain(services.WithPhase(ctx, "build"), job, log, outDir)
}

func (r *buildRunner) drain(ctx context.Context, job *builder.Job, log *report.JobLog, outDir string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := r.builder.BuildImport(ctx, job)
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}
		name := fmt.Sprintf("batch-%04d.json", len(log.Batches)+1)
		if err := writeBatch(filepath.Join(outDir, name), batch); err != nil {
			return err
		}
		log.AddBatch(batch, name, job.HeadersOnly)
		if err := builder.MarkBatch(job, batch, status.Success); err != nil {
			return fmt.Errorf("mark batch %s: %w", name, err)
		}
		if err := r.store.SaveStatuses(ctx, r.project(), job.Status.Entries()); err != nil {
			return err
		}
	}
}

func writeBatch(path string, batch *datapack.Batch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}
