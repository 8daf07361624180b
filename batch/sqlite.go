package batch

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	statusProcessed = "processed"
	statusFailed    = "failed"
)

const checkpointSchema = `CREATE TABLE IF NOT EXISTS checkpoint (
	tender_id TEXT PRIMARY KEY,
	status    TEXT NOT NULL,
	position  INTEGER NOT NULL
)`

// SQLiteCheckpointStore keeps the checkpoint in a single SQLite table, one
// row per ID. Save replaces every row inside one transaction.
type SQLiteCheckpointStore struct {
	db *sql.DB
}

// OpenSQLiteCheckpointStore opens (or creates) the database at path.
func OpenSQLiteCheckpointStore(path string) (*SQLiteCheckpointStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}
	if _, err := db.Exec(checkpointSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint table: %w", err)
	}
	return &SQLiteCheckpointStore{db: db}, nil
}

func (s *SQLiteCheckpointStore) Load(ctx context.Context) (*Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tender_id, status FROM checkpoint ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint: %w", err)
	}
	defer rows.Close()

	var processed, failed []string
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scanning checkpoint row: %w", err)
		}
		switch status {
		case statusProcessed:
			processed = append(processed, id)
		case statusFailed:
			failed = append(failed, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	return NewCheckpoint(processed, failed), nil
}

func (s *SQLiteCheckpointStore) Save(ctx context.Context, c *Checkpoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning checkpoint transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoint`); err != nil {
		return fmt.Errorf("clearing checkpoint: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO checkpoint (tender_id, status, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing checkpoint insert: %w", err)
	}
	defer stmt.Close()

	pos := 0
	for _, group := range []struct {
		status string
		ids    []string
	}{{statusProcessed, c.Processed()}, {statusFailed, c.Failed()}} {
		for _, id := range group.ids {
			if _, err := stmt.ExecContext(ctx, id, group.status, pos); err != nil {
				return fmt.Errorf("saving checkpoint row %s: %w", id, err)
			}
			pos++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpointStore) Close() error { return s.db.Close() }
