//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/clock"
	"github.com/ashureev/tutor-chat/internal/domain"
	"github.com/ashureev/tutor-chat/internal/identity"
	"github.com/ashureev/tutor-chat/internal/store"
	"github.com/ashureev/tutor-chat/internal/webview"
	"github.com/go-chi/chi/v5"
)

type staticState struct {
	snap webview.Snapshot
}

func (s staticState) Snapshot() webview.Snapshot { return s.snap }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, db Pinger) (http.Handler, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemory()
	sessions := identity.NewProvider(kv, clock.NewManual(time.UnixMilli(1700000000123)))
	state := staticState{snap: webview.Snapshot{
		Messages: []domain.Message{{ID: "m1", Text: "hi", Sender: domain.SenderUser}},
		State:    chat.UIState{InputEnabled: true, Status: domain.StatusOnline},
	}}
	if db == nil {
		db = kv
	}
	r := chi.NewRouter()
	NewHandler(state, sessions, db, nil).RegisterRoutes(r)
	return r, kv
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestGetState(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got webview.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "hi" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if got.State.Status != domain.StatusOnline || !got.State.InputEnabled {
		t.Errorf("unexpected state %+v", got.State)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	r, kv := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET session: expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body["student_id"] != "web_user_1700000000123" {
		t.Errorf("student_id = %q", body["student_id"])
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE session: expected 204, got %d", w.Code)
	}
	if _, ok, _ := kv.Get(context.Background(), identity.StorageKey); ok {
		t.Error("expected stored id to be removed")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ping     error
		wantCode int
		wantDB   string
	}{
		{name: "reachable", wantCode: http.StatusOK, wantDB: "ok"},
		{name: "unreachable", ping: errors.New("disk gone"), wantCode: http.StatusServiceUnavailable, wantDB: "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := newTestRouter(t, pingFunc(func(context.Context) error { return tt.ping }))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, w.Code)
			}
			var body struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if body.Checks["store"] != tt.wantDB {
				t.Errorf("store check = %q, want %q", body.Checks["store"], tt.wantDB)
			}
		})
	}
}
