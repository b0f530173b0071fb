package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a local SQLite database. It trades a
// heavier dependency for durable writes when the plain JSON file is not
// trusted (network filesystems, crash-heavy CI hosts).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// Empty path means an in-memory database, which only makes sense in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS packages(
		name TEXT PRIMARY KEY,
		pid INTEGER NOT NULL,
		started_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, pid, started_at FROM packages`)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	defer func() { _ = rows.Close() }()
	table := make(map[string]Record)
	for rows.Next() {
		var rec Record
		var started string
		if err := rows.Scan(&rec.Name, &rec.PID, &started); err != nil {
			return nil, fmt.Errorf("scan package row: %w", err)
		}
		// unparsable timestamps load as zero; staleness is checked by pid anyway
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		table[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	return table, nil
}

func (s *SQLiteStore) Save(ctx context.Context, table map[string]Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM packages`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear packages: %w", err)
	}
	for _, rec := range table {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO packages(name, pid, started_at) VALUES(?, ?, ?)`,
			rec.Name, rec.PID, rec.StartedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert package %s: %w", rec.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
