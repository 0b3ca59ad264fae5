package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Version is the bridge build version reported in the User-Agent header.
const Version = "0.3.0"

const (
	controlPath    = "/2/shockers/control"
	requestTimeout = 5 * time.Second
)

type controlShock struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Intensity int    `json:"intensity"`
	Duration  int    `json:"duration"`
}

type controlBody struct {
	Shocks []controlShock `json:"shocks"`
}

// Actuator issues control calls against the OpenShock API. It reads the API
// configuration from the settings store on every call so a reload takes
// effect without reconstruction.
type Actuator struct {
	settings *SettingsStore
	client   *http.Client
}

func NewActuator(settings *SettingsStore) *Actuator {
	return &Actuator{
		settings: settings,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// SendShock posts a single Shock command. The response body is discarded and
// any HTTP status counts as done; the returned error only reports transport
// failures so the caller can keep a counter.
func (a *Actuator) SendShock(ctx context.Context, intensity int, durationMillis int) error {
	if a == nil || a.settings == nil {
		return fmt.Errorf("actuator not configured")
	}
	cfg := a.settings.Current().API

	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}
	if durationMillis < 0 {
		durationMillis = 0
	}

	body := controlBody{Shocks: []controlShock{{
		ID:        cfg.DeviceID,
		Type:      "Shock",
		Intensity: intensity,
		Duration:  durationMillis,
	}}}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal control body: %w", err)
	}

	url := strings.TrimRight(cfg.URLBase, "/") + controlPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build control request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Open-Shock-Token", cfg.Token)
	req.Header.Set("User-Agent", "shockbridge/"+Version)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send control request: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
