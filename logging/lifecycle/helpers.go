package lifecycle

import (
	"context"

	"vintageshock/bridge/logging"
)

const (
	// EventStarted is emitted once the bridge is listening.
	EventStarted logging.EventType = "lifecycle.started"
	// EventSettingsReloaded is emitted after a settings snapshot swap.
	EventSettingsReloaded logging.EventType = "lifecycle.settings_reloaded"
	// EventSettingsLoadFailed is emitted when loading fell back to defaults.
	EventSettingsLoadFailed logging.EventType = "lifecycle.settings_load_failed"
)

// StartedPayload records the listen address and build version.
type StartedPayload struct {
	Addr    string `json:"addr"`
	Version string `json:"version"`
}

// ReloadPayload summarizes the active snapshot after a reload.
type ReloadPayload struct {
	Enabled bool   `json:"enabled"`
	Source  string `json:"source,omitempty"`
}

// FailurePayload carries the load error text.
type FailurePayload struct {
	Error string `json:"error"`
}

func systemEvent(eventType logging.EventType, severity logging.Severity, payload any) logging.Event {
	return logging.Event{
		Type:     eventType,
		Subject:  logging.SubjectRef{Kind: logging.SubjectKindSystem},
		Severity: severity,
		Category: logging.CategorySystem,
		Payload:  payload,
	}
}

func Started(ctx context.Context, pub logging.Publisher, payload StartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventStarted, logging.SeverityInfo, payload))
}

func SettingsReloaded(ctx context.Context, pub logging.Publisher, payload ReloadPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSettingsReloaded, logging.SeverityInfo, payload))
}

func SettingsLoadFailed(ctx context.Context, pub logging.Publisher, payload FailurePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSettingsLoadFailed, logging.SeverityWarn, payload))
}
