package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"planivo/internal/domain/auth"
)

type memoryKeeper struct {
	hashes    map[string]string
	responses map[string]json.RawMessage
}

func newMemoryKeeper() *memoryKeeper {
	return &memoryKeeper{hashes: make(map[string]string), responses: make(map[string]json.RawMessage)}
}

func keeperKey(organizationID, staffID, endpoint, key string) string {
	return organizationID + "|" + staffID + "|" + endpoint + "|" + key
}

func (m *memoryKeeper) Check(_ context.Context, organizationID, staffID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	k := keeperKey(organizationID, staffID, endpoint, key)
	storedHash, ok := m.hashes[k]
	if !ok {
		return nil, false, nil
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return m.responses[k], true, nil
}

func (m *memoryKeeper) Save(_ context.Context, organizationID, staffID, endpoint, key, requestHash string, response json.RawMessage) error {
	k := keeperKey(organizationID, staffID, endpoint, key)
	m.hashes[k] = requestHash
	m.responses[k] = response
	return nil
}

func decideRequest(key string) *http.Request {
	userCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		StaffID:        "head-1",
		OrganizationID: "org-1",
		Role:           "department_head",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacation/plans/p1/decide", strings.NewReader(`{"decision":"approved"}`)).WithContext(userCtx)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryKeeper())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"data":{"planId":"p1"}}`))
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, decideRequest("key-1"))
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to run, got %d", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, decideRequest("key-1"))
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected replay to return 200, got %d", rec2.Code)
	}
	if calls != 1 {
		t.Fatalf("expected the handler to run once, ran %d times", calls)
	}
	if rec2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("expected replay marker header")
	}
	if rec2.Body.String() != rec1.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", rec2.Body.String(), rec1.Body.String())
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentPayload(t *testing.T) {
	keeper := newMemoryKeeper()
	handler := Idempotency(keeper)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), decideRequest("key-2"))

	userCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		StaffID:        "head-1",
		OrganizationID: "org-1",
	})
	other := httptest.NewRequest(http.MethodPost, "/api/v1/vacation/plans/p1/decide", strings.NewReader(`{"decision":"rejected"}`)).WithContext(userCtx)
	other.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with new payload, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "idempotency_conflict") {
		t.Fatalf("expected idempotency_conflict envelope, got %s", rec.Body.String())
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryKeeper())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"success":false}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), decideRequest("key-3"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, decideRequest("key-3"))
	if calls != 2 {
		t.Fatalf("expected a failed attempt to be retried, handler ran %d times", calls)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
}

func TestIdempotencySkipsRequestsWithoutKey(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryKeeper())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), decideRequest(""))
	handler.ServeHTTP(httptest.NewRecorder(), decideRequest(""))
	if calls != 2 {
		t.Fatalf("expected every keyless request to run, handler ran %d times", calls)
	}
}
