package triggers

import (
	"context"

	"vintageshock/bridge/logging"
)

const (
	// EventFired is emitted when a classified trigger produces an actuation.
	EventFired logging.EventType = "triggers.fired"
	// EventSuppressed is emitted when a trigger is swallowed by a cooldown.
	EventSuppressed logging.EventType = "triggers.suppressed"
)

// FiredPayload captures the computed actuation parameters for a trigger.
type FiredPayload struct {
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount,omitempty"`
	Intensity  int     `json:"intensity"`
	DurationMs int     `json:"durationMs"`
}

// SuppressedPayload names the cooldown that swallowed a trigger.
type SuppressedPayload struct {
	Kind     string `json:"kind"`
	Cooldown string `json:"cooldown"`
}

// Fired publishes a trigger-fired event.
func Fired(ctx context.Context, pub logging.Publisher, seq uint64, subject logging.SubjectRef, payload FiredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFired,
		Seq:      seq,
		Subject:  subject,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTriggers,
		Payload:  payload,
		Extra:    extra,
	})
}

// Suppressed publishes a cooldown-suppression event at debug severity.
func Suppressed(ctx context.Context, pub logging.Publisher, seq uint64, subject logging.SubjectRef, payload SuppressedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSuppressed,
		Seq:      seq,
		Subject:  subject,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryTriggers,
		Payload:  payload,
		Extra:    extra,
	})
}
