package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLStore keeps the token in a key/value table. It works with the sqlite3
// and postgres drivers; queries are written with '?' and rebound per driver.
type SQLStore struct {
	DB *sqlx.DB
}

// OpenSQL connects with driver/dsn and ensures the kv table exists.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s token store: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	s := NewSQLStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection. Call Migrate before first use
// unless the table is known to exist.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// Migrate creates the kv table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

// Get returns the stored token.
func (s *SQLStore) Get(ctx context.Context) (string, bool, error) {
	var token string
	err := s.DB.GetContext(ctx, &token, s.DB.Rebind(`SELECT value FROM kv WHERE key = ?`), Key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	return token, token != "", nil
}

// Set upserts the token.
func (s *SQLStore) Set(ctx context.Context, token string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), Key, token)
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear deletes the token row.
func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM kv WHERE key = ?`), Key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *SQLStore) Close() error {
	return s.DB.Close()
}
