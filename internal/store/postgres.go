package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver

	"github.com/realshak7781/pdfqa-go/internal/store/migrations"
)

// PostgresStore is a DocumentStore backed by PostgreSQL through pgx.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and runs the schema
// migration.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}

	ddl, err := migrations.Postgres.ReadFile("postgres/001_init.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: read migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Save persists a document record.
func (s *PostgresStore) Save(ctx context.Context, filename, content string, passageCount int) (int64, error) {
	const q = `INSERT INTO documents (filename, content, passage_count) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, filename, content, passageCount).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: save: %w", err)
	}
	return id, nil
}

// Get returns the full record for id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Record, error) {
	const q = `SELECT id, filename, content, passage_count, created_at FROM documents WHERE id = $1`
	var r Record
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.Filename, &r.Content, &r.PassageCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	r.Bytes = len(r.Content)
	return &r, nil
}

// Recent returns up to n records newest-first, without their content.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]Record, error) {
	const q = `
SELECT id, filename, octet_length(content), passage_count, created_at
FROM   documents
ORDER  BY created_at DESC, id DESC
LIMIT  $1`
	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Filename, &r.Bytes, &r.PassageCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
