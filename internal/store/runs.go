package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded build.
type Run struct {
	ID           string
	Project      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Batches      int
	Records      int
	ErrorMessage string
}

// Finished reports whether the run completed.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// BeginRun records the start of a build.
func (s *Store) BeginRun(ctx context.Context, id, project string) error {
	_, err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, project, started_at) VALUES (?, ?, ?)",
		id, project, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a build.
func (s *Store) FinishRun(ctx context.Context, id string, batches, records int, errorMessage string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, batches = ?, records = ?, error_message = ?
         WHERE id = ?`,
		timestamp(), batches, records, nullableString(errorMessage), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// Runs lists the most recent runs of project, newest first.
func (s *Store) Runs(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, started_at, finished_at, batches, records, error_message
         FROM runs WHERE project = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		project, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished sql.NullString
			errorMessage      sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Project, &started, &finished, &run.Batches, &run.Records, &errorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.ErrorMessage = errorMessage.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRuns removes the history rows of the given runs.
func (s *Store) DeleteRuns(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		deleted = 0
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return deleted, nil
}
