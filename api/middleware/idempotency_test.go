package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type recordingStore struct {
	values map[string]string
	gets   int
	sets   int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{values: map[string]string{}}
}

func (s *recordingStore) Get(ctx context.Context, key string) (string, error) {
	s.gets++
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *recordingStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.sets++
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *recordingStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *recordingStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type countingHandler struct {
	calls  int
	status int
	body   string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(h.body))
}

func submitRequest(body, idempotencyKey string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(WithSessionKey(req.Context(), "sess-1"))
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	return req
}

func TestIdempotencyRequiresKeyOnSubmit(t *testing.T) {
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusCreated, body: `{"ok":true}`}
	wrapped := Idempotency(store, nil)(handler)

	resp := httptest.NewRecorder()
	wrapped.ServeHTTP(resp, submitRequest(`{}`, ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key, got %d", resp.Code)
	}
	if handler.calls != 0 {
		t.Fatal("handler must not run without an idempotency key")
	}
}

func TestIdempotencyEngagesWithoutRouting(t *testing.T) {
	// The middleware often runs on a parent router before the subrouter has
	// resolved a pattern; matching must come from the URL path alone.
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusCreated, body: `{"ok":true}`}
	wrapped := Idempotency(store, nil)(handler)

	resp := httptest.NewRecorder()
	wrapped.ServeHTTP(resp, submitRequest(`{"draft":1}`, "key-1"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if store.gets != 1 || store.sets != 1 {
		t.Fatalf("expected one read and one write, got gets=%d sets=%d", store.gets, store.sets)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusCreated, body: `{"order":"MK-1"}`}
	wrapped := Idempotency(store, nil)(handler)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, submitRequest(`{"draft":1}`, "key-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("first submit: expected 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, submitRequest(`{"draft":1}`, "key-1"))

	if handler.calls != 1 {
		t.Fatalf("retry must replay, not resubmit; handler ran %d times", handler.calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d", second.Code)
	}
	replayed, _ := io.ReadAll(second.Body)
	if string(replayed) != `{"order":"MK-1"}` {
		t.Fatalf("replay body = %q", replayed)
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("replay content type = %q", ct)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusCreated, body: `{"ok":true}`}
	wrapped := Idempotency(store, nil)(handler)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, submitRequest(`{"draft":1}`, "key-1"))

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, submitRequest(`{"draft":2}`, "key-1"))

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on body mismatch, got %d", second.Code)
	}
	if handler.calls != 1 {
		t.Fatalf("mismatched retry must not reach the handler, ran %d times", handler.calls)
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusInternalServerError, body: `{"error":"boom"}`}
	wrapped := Idempotency(store, nil)(handler)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, submitRequest(`{"draft":1}`, "key-1"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", first.Code)
	}
	if store.sets != 0 {
		t.Fatal("failed responses must not be persisted")
	}

	// The retry gets a real second attempt.
	handler.status = http.StatusCreated
	handler.body = `{"ok":true}`
	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, submitRequest(`{"draft":1}`, "key-1"))

	if handler.calls != 2 {
		t.Fatalf("retry after failure must reach the handler, ran %d times", handler.calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on retry, got %d", second.Code)
	}
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	store := newRecordingStore()
	handler := &countingHandler{status: http.StatusOK, body: `{}`}
	wrapped := Idempotency(store, nil)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithSessionKey(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	wrapped.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200, got %d", resp.Code)
	}
	if store.gets != 0 || store.sets != 0 {
		t.Fatal("unmatched routes must not touch the store")
	}
}
