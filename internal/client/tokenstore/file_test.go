package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	tok, ok, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || tok != "" {
		t.Errorf("expected no token, got %q", tok)
	}
}

func TestFileStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	if err := s.Set(ctx, "abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %v; want 0600", perm)
	}

	// a second store on the same path sees the durable value
	tok, ok, err := NewFileStore(path).Get(ctx)
	if err != nil || !ok || tok != "abc" {
		t.Fatalf("Get = %q, %v, %v; want abc", tok, ok, err)
	}

	buf, _ := os.ReadFile(path)
	var doc map[string]string
	if err := json.Unmarshal(buf, &doc); err != nil {
		t.Fatalf("session file is not JSON: %v", err)
	}
	if doc[Key] != "abc" {
		t.Errorf("file content = %v", doc)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx); ok {
		t.Error("token still present after Clear")
	}
	// clearing twice is fine
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not-json"), 0600); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)

	if _, _, err := s.Get(ctx); err == nil {
		t.Error("expected decode error")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on corrupt file failed: %v", err)
	}
	if _, ok, err := s.Get(ctx); err != nil || ok {
		t.Errorf("after Clear: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("seed")
	if tok, ok, _ := m.Get(ctx); !ok || tok != "seed" {
		t.Errorf("Get = %q, %v", tok, ok)
	}
	_ = m.Set(ctx, "next")
	if tok, _, _ := m.Get(ctx); tok != "next" {
		t.Errorf("Get after Set = %q", tok)
	}
	_ = m.Clear(ctx)
	if _, ok, _ := m.Get(ctx); ok {
		t.Error("token present after Clear")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"file", false},
		{"memory", false},
		{"redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			s, err := Open(tt.kind, filepath.Join(dir, "s.json"), "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Open(%q) expected error", tt.kind)
				}
				return
			}
			if err != nil || s == nil {
				t.Fatalf("Open(%q) = %v, %v", tt.kind, s, err)
			}
		})
	}
}
