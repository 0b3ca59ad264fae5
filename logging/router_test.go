package logging_test

import (
	"context"
	"testing"
	"time"

	"vintageshock/bridge/logging"
	"vintageshock/bridge/logging/sinks"
)

func TestRouterDeliversEventsToSinks(t *testing.T) {
	t.Parallel()

	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityDebug

	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{
		Type:     "triggers.fired",
		Seq:      7,
		Subject:  logging.SubjectRef{Kind: logging.SubjectKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTriggers,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Type != "triggers.fired" || events[0].Seq != 7 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router should stamp a time on events without one")
	}

	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	t.Parallel()

	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn

	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "debug-event", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "warn-event", Severity: logging.SeverityWarn})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the warn event, got %d", len(events))
	}
	if events[0].Type != "warn-event" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestRouterAttachesConfiguredFields(t *testing.T) {
	t.Parallel()

	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"instance": "test-1"}

	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "lifecycle.started", Severity: logging.SeverityInfo})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Extra["instance"] != "test-1" {
		t.Fatalf("expected configured field on event, got %+v", events[0].Extra)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	t.Parallel()

	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := len(memory.Events()); got != 0 {
		t.Fatalf("events without a type must be dropped, got %d", got)
	}
}
