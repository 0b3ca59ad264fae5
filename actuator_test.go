package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestActuatorSendsControlRequest(t *testing.T) {
	t.Parallel()

	type received struct {
		method string
		path   string
		token  string
		accept string
		agent  string
		body   controlBody
	}
	var got received

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		got = received{
			method: r.Method,
			path:   r.URL.Path,
			token:  r.Header.Get("Open-Shock-Token"),
			accept: r.Header.Get("Accept"),
			agent:  r.Header.Get("User-Agent"),
		}
		if err := json.Unmarshal(data, &got.body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.API.URLBase = server.URL + "/" // trailing slash must be stripped
	settings.API.Token = "secret-token"
	settings.API.DeviceID = "device-1"
	store := NewSettingsStore(settings)

	actuator := NewActuator(store)
	if err := actuator.SendShock(context.Background(), 42, 1500); err != nil {
		t.Fatalf("SendShock failed: %v", err)
	}

	if got.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", got.method)
	}
	if got.path != "/2/shockers/control" {
		t.Fatalf("unexpected path %q", got.path)
	}
	if got.token != "secret-token" {
		t.Fatalf("unexpected token header %q", got.token)
	}
	if got.accept != "application/json" {
		t.Fatalf("unexpected accept header %q", got.accept)
	}
	if !strings.HasPrefix(got.agent, "shockbridge/") {
		t.Fatalf("unexpected user agent %q", got.agent)
	}
	if len(got.body.Shocks) != 1 {
		t.Fatalf("expected one shock entry, got %d", len(got.body.Shocks))
	}
	shock := got.body.Shocks[0]
	if shock.ID != "device-1" || shock.Type != "Shock" || shock.Intensity != 42 || shock.Duration != 1500 {
		t.Fatalf("unexpected shock entry: %+v", shock)
	}
}

func TestActuatorClampsIntensity(t *testing.T) {
	t.Parallel()

	var body controlBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.API.URLBase = server.URL
	settings.API.DeviceID = "device-1"
	actuator := NewActuator(NewSettingsStore(settings))

	if err := actuator.SendShock(context.Background(), 150, 1000); err != nil {
		t.Fatalf("SendShock failed: %v", err)
	}
	if body.Shocks[0].Intensity != 100 {
		t.Fatalf("expected intensity clamped to 100, got %d", body.Shocks[0].Intensity)
	}
}

func TestActuatorIgnoresStatusCodes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.API.URLBase = server.URL
	actuator := NewActuator(NewSettingsStore(settings))

	// Any status is fire-and-forget success; only transport failures error.
	if err := actuator.SendShock(context.Background(), 30, 1000); err != nil {
		t.Fatalf("non-2xx status should not surface an error, got %v", err)
	}
}

func TestActuatorReportsTransportFailure(t *testing.T) {
	t.Parallel()

	settings := DefaultSettings()
	settings.API.URLBase = "http://127.0.0.1:1"
	actuator := NewActuator(NewSettingsStore(settings))

	if err := actuator.SendShock(context.Background(), 30, 1000); err == nil {
		t.Fatalf("expected a transport error for an unreachable endpoint")
	}
}
