package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/tutor-chat/internal/clock"
	"github.com/ashureev/tutor-chat/internal/store"
)

type failingStore struct {
	*store.MemoryStore
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestSessionIDGeneratesAndPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemory()
	clk := clock.NewManual(time.UnixMilli(1700000000123))
	p := NewProvider(kv, clk)

	id, err := p.SessionID(ctx)
	if err != nil {
		t.Fatalf("SessionID failed: %v", err)
	}
	if id != "web_user_1700000000123" {
		t.Errorf("unexpected generated id %q", id)
	}

	stored, ok, _ := kv.Get(ctx, StorageKey)
	if !ok || stored != id {
		t.Errorf("expected id persisted under %q, got %q ok=%v", StorageKey, stored, ok)
	}
}

func TestSessionIDIsStable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.NewManual(time.UnixMilli(1000))
	p := NewProvider(store.NewMemory(), clk)

	first, err := p.SessionID(ctx)
	if err != nil {
		t.Fatalf("SessionID failed: %v", err)
	}
	clk.Advance(time.Minute)
	second, err := p.SessionID(ctx)
	if err != nil {
		t.Fatalf("SessionID failed: %v", err)
	}
	if first != second {
		t.Errorf("expected identical ids, got %q and %q", first, second)
	}
}

func TestSessionIDReturnsOpaqueStoredValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.Set(ctx, StorageKey, "legacy-student-7")

	id, err := NewProvider(kv, nil).SessionID(ctx)
	if err != nil {
		t.Fatalf("SessionID failed: %v", err)
	}
	if id != "legacy-student-7" {
		t.Errorf("expected stored value verbatim, got %q", id)
	}
}

func TestSessionIDRegeneratesEmptyValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.Set(ctx, StorageKey, "")

	id, err := NewProvider(kv, clock.NewManual(time.UnixMilli(5))).SessionID(ctx)
	if err != nil {
		t.Fatalf("SessionID failed: %v", err)
	}
	if id != "web_user_5" {
		t.Errorf("expected regenerated id, got %q", id)
	}
}

func TestResetCreatesNewID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.NewManual(time.UnixMilli(10))
	p := NewProvider(store.NewMemory(), clk)

	first, _ := p.SessionID(ctx)
	if err := p.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	clk.Advance(time.Millisecond)
	second, _ := p.SessionID(ctx)
	if first == second {
		t.Errorf("expected a new id after reset, got %q twice", first)
	}
}

func TestSessionIDStoreErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("disk full")

	p := NewProvider(&failingStore{MemoryStore: store.NewMemory(), getErr: boom}, nil)
	if _, err := p.SessionID(ctx); !errors.Is(err, boom) {
		t.Errorf("expected read error to wrap cause, got %v", err)
	}

	p = NewProvider(&failingStore{MemoryStore: store.NewMemory(), setErr: boom}, nil)
	if _, err := p.SessionID(ctx); !errors.Is(err, boom) {
		t.Errorf("expected persist error to wrap cause, got %v", err)
	}
}
