package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/realshak7781/pdfqa-go/internal/store/migrations"
)

// SQLiteStore is a DocumentStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLiteStore at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create %s: %w", dir, err)
			}
		}
	}
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	ddl, err := migrations.SQLite.ReadFile("sqlite/001_init.sql")
	if err != nil {
		return fmt.Errorf("store: read migration: %w", err)
	}
	if _, err := s.db.Exec(string(ddl)); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Save persists a document record.
func (s *SQLiteStore) Save(ctx context.Context, filename, content string, passageCount int) (int64, error) {
	const q = `INSERT INTO documents (filename, content, passage_count, created_at) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, filename, content, passageCount, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("store: save: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: save id: %w", err)
	}
	return id, nil
}

// Get returns the full record for id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Record, error) {
	const q = `SELECT id, filename, content, passage_count, created_at FROM documents WHERE id = ?`
	var (
		r  Record
		ts int64
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.Filename, &r.Content, &r.PassageCount, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	r.Bytes = len(r.Content)
	r.CreatedAt = time.Unix(0, ts)
	return &r, nil
}

// Recent returns up to n records newest-first, without their content.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	const q = `
SELECT id, filename, length(CAST(content AS BLOB)), passage_count, created_at
FROM   documents
ORDER  BY created_at DESC, id DESC
LIMIT  ?`
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.Filename, &r.Bytes, &r.PassageCount, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		r.CreatedAt = time.Unix(0, ts)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
