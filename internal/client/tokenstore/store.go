// Package tokenstore keeps the client's single bearer token in durable storage.
package tokenstore

import (
	"context"
	"fmt"
	"sync"
)

// Key is the fixed name the token is stored under in every backend.
const Key = "token"

// Store persists at most one bearer token. A missing token is reported with
// ok == false and a nil error.
type Store interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Open returns the backend named by kind ("file", "sqlite", "postgres", "memory").
// path is the session file or sqlite database; dsn is the postgres connection string.
func Open(kind, path, dsn string) (Store, error) {
	switch kind {
	case "file":
		return NewFileStore(path), nil
	case "sqlite":
		return OpenSQL("sqlite3", path)
	case "postgres":
		return OpenSQL("postgres", dsn)
	case "memory":
		return NewMemoryStore(""), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", kind)
	}
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a MemoryStore seeded with token ("" for none).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Get returns the current token.
func (m *MemoryStore) Get(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

// Set replaces the token.
func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear forgets the token.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
