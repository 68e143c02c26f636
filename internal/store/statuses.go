package store

import (
	"context"
	"database/sql"
	"fmt"

	"datapacks/internal/datapack"
	"datapacks/internal/status"
)

// LoadStatuses returns the saved statuses of project in their saved order.
func (s *Store) LoadStatuses(ctx context.Context, project string) ([]status.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT datapack_key, status, reason FROM datapack_status
         WHERE project = ? ORDER BY position`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var entries []status.Entry
	for rows.Next() {
		var (
			key, raw string
			reason   sql.NullString
		)
		if err := rows.Scan(&key, &raw, &reason); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		st, ok := status.Parse(raw)
		if !ok {
			return nil, fmt.Errorf("stored status %q for %s is unknown", raw, key)
		}
		entries = append(entries, status.Entry{Key: datapack.Key(key), Status: st, Reason: reason.String})
	}
	return entries, rows.Err()
}

// SaveStatuses replaces the saved statuses of project with entries.
func (s *Store) SaveStatuses(ctx context.Context, project string, entries []status.Entry) error {
	now := timestamp()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM datapack_status WHERE project = ?", project); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO datapack_status (project, datapack_key, position, status, reason, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, project, e.Key.String(), i, string(e.Status), nullableString(e.Reason), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save statuses: %w", err)
	}
	return nil
}

// RetryErrored moves every Error status of project back to Ready.
func (s *Store) RetryErrored(ctx context.Context, project string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE datapack_status SET status = ?, reason = NULL, updated_at = ?
         WHERE project = ? AND status = ?`,
		string(status.Ready), timestamp(), project, string(status.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("retry errored: %w", err)
	}
	return res.RowsAffected()
}

// Clear forgets every saved status of project.
func (s *Store) Clear(ctx context.Context, project string) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM datapack_status WHERE project = ?", project)
	if err != nil {
		return 0, fmt.Errorf("clear statuses: %w", err)
	}
	return res.RowsAffected()
}

// Requeue moves the given keys of project back to Ready whatever their
// current status. Unknown keys are ignored.
func (s *Store) Requeue(ctx context.Context, project string, keys []datapack.Key) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	var moved int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		moved = 0
		now := timestamp()
		for _, key := range keys {
			res, err := tx.ExecContext(ctx,
				`UPDATE datapack_status SET status = ?, reason = NULL, updated_at = ?
                 WHERE project = ? AND datapack_key = ? AND status != ?`,
				string(status.Ready), now, project, key.String(), string(status.Ready),
			)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			moved += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("requeue statuses: %w", err)
	}
	return moved, nil
}

// RequeueAll moves every status of project back to Ready.
func (s *Store) RequeueAll(ctx context.Context, project string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE datapack_status SET status = ?, reason = NULL, updated_at = ?
         WHERE project = ? AND status != ?`,
		string(status.Ready), timestamp(), project, string(status.Ready),
	)
	if err != nil {
		return 0, fmt.Errorf("requeue statuses: %w", err)
	}
	return res.RowsAffected()
}
