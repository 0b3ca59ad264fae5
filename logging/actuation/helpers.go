package actuation

import (
	"context"

	"vintageshock/bridge/logging"
)

const (
	// EventEnqueued is emitted when an actuation request enters the dispatch queue.
	EventEnqueued logging.EventType = "actuation.enqueued"
	// EventDropped is emitted when the dispatch queue is full and a request is discarded.
	EventDropped logging.EventType = "actuation.dropped"
)

// RequestPayload describes an actuation request.
type RequestPayload struct {
	Kind       string `json:"kind"`
	Intensity  int    `json:"intensity"`
	DurationMs int    `json:"durationMs"`
}

// Enqueued publishes a queue-accepted event at debug severity.
func Enqueued(ctx context.Context, pub logging.Publisher, seq uint64, device logging.SubjectRef, payload RequestPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEnqueued,
		Seq:      seq,
		Subject:  device,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryActuation,
		Payload:  payload,
	})
}

// Dropped publishes a queue-full discard event.
func Dropped(ctx context.Context, pub logging.Publisher, seq uint64, device logging.SubjectRef, payload RequestPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDropped,
		Seq:      seq,
		Subject:  device,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryActuation,
		Payload:  payload,
	})
}
