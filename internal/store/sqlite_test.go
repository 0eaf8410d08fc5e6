package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteGetMissingKey(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	v, ok, err := s.Get(context.Background(), "studentId")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || v != "" {
		t.Errorf("expected missing key, got %q ok=%v", v, ok)
	}
}

func TestSQLiteSetOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLite(t)

	if err := s.Set(ctx, "studentId", "web_user_1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "studentId", "web_user_2"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	v, ok, err := s.Get(ctx, "studentId")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if v != "web_user_2" {
		t.Errorf("expected overwritten value, got %q", v)
	}
}

func TestSQLiteDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLite(t)

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete of missing key failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected key to be gone")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.Set(ctx, "studentId", "web_user_42"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if err := reopened.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	v, ok, err := reopened.Get(ctx, "studentId")
	if err != nil || !ok || v != "web_user_42" {
		t.Errorf("Get after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestIsConflictError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: database busy"), true},
		{errors.New("database is locked"), true},
		{errors.New("no such table"), false},
	}
	for _, tt := range tests {
		if got := isConflictError(tt.err); got != tt.want {
			t.Errorf("isConflictError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected empty store")
	}
	_ = m.Set(ctx, "k", "v")
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("Get = %q ok=%v", v, ok)
	}
	_ = m.Delete(ctx, "k")
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expected key deleted")
	}
}
