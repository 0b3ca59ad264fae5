package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	bridge "vintageshock/bridge"
)

type recordedDispatch struct {
	mu       sync.Mutex
	requests []bridge.ActuationRequest
}

func (r *recordedDispatch) dispatch(req bridge.ActuationRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return true
}

func (r *recordedDispatch) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func newTestHandler(t *testing.T, reload func() error) (*recordedDispatch, nethttp.Handler) {
	t.Helper()
	settings := bridge.DefaultSettings()
	recorder := &recordedDispatch{}
	hub := bridge.NewHub(bridge.HubConfig{
		Settings: bridge.NewSettingsStore(settings),
		Dispatch: recorder.dispatch,
		Logger:   log.New(io.Discard, "", 0),
	})
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{
		Logger: log.New(io.Discard, "", 0),
		Reload: reload,
	})
	return recorder, handler
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	_, handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/health", nil))

	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestObservationEndpointTriggersActuation(t *testing.T) {
	t.Parallel()

	recorder, handler := newTestHandler(t, nil)

	body := `{"type":"damage","damage":5,"currentHealth":15,"maxHealth":20}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/observations", strings.NewReader(body)))

	if rec.Code != nethttp.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if recorder.count() != 1 {
		t.Fatalf("expected one dispatched actuation, got %d", recorder.count())
	}
}

func TestObservationEndpointRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	recorder, handler := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/observations", strings.NewReader("{not json")))
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/observations", strings.NewReader(`{"type":"mystery"}`)))
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/observations", nil))
	if rec.Code != nethttp.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}

	if recorder.count() != 0 {
		t.Fatalf("rejected requests must not dispatch, got %d", recorder.count())
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	t.Parallel()

	_, handler := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/diagnostics", nil))

	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Status     string `json:"status"`
		ServerTime int64  `json:"serverTime"`
		Bridge     struct {
			Enabled bool `json:"enabled"`
		} `json:"bridge"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	if !payload.Bridge.Enabled {
		t.Fatalf("expected bridge enabled in diagnostics")
	}
}

func TestReloadEndpoint(t *testing.T) {
	t.Parallel()

	calls := 0
	_, handler := newTestHandler(t, func() error {
		calls++
		return nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/reload", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected one reload call, got %d", calls)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/reload", nil))
	if rec.Code != nethttp.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}
}
