package bridge

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"vintageshock/bridge/logging"
	loggingactuation "vintageshock/bridge/logging/actuation"
)

// ActuationRequest is one pending outbound shock.
type ActuationRequest struct {
	Kind           TriggerKind
	Intensity      int
	DurationMillis int
	Seq            uint64
}

// sendFunc is the outbound seam; tests swap it for a recorder.
type sendFunc func(ctx context.Context, req ActuationRequest) error

// Dispatcher is a bounded fire-and-forget queue in front of the actuator.
// Enqueue never blocks: when the queue is full the new request is discarded,
// counted, and warned about at a rate limit. Send outcomes are swallowed
// apart from a telemetry counter.
type Dispatcher struct {
	queue       chan ActuationRequest
	send        sendFunc
	telemetry   *telemetryCounters
	publisher   logging.Publisher
	fallback    *log.Logger
	deviceID    func() string
	cancel      context.CancelFunc
	closed      atomic.Bool
	lastDropLog atomic.Int64
	wg          sync.WaitGroup
}

type dispatcherConfig struct {
	QueueSize int
	Send      sendFunc
	Telemetry *telemetryCounters
	Publisher logging.Publisher
	Fallback  *log.Logger
	DeviceID  func() string
}

func newDispatcher(cfg dispatcherConfig) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	fallback := cfg.Fallback
	if fallback == nil {
		fallback = log.Default()
	}
	deviceID := cfg.DeviceID
	if deviceID == nil {
		deviceID = func() string { return "" }
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:     make(chan ActuationRequest, size),
		send:      cfg.Send,
		telemetry: cfg.Telemetry,
		publisher: cfg.Publisher,
		fallback:  fallback,
		deviceID:  deviceID,
		cancel:    cancel,
	}
	d.wg.Add(1)
	go d.run(ctx)
	return d
}

// Enqueue offers a request to the queue and reports acceptance.
func (d *Dispatcher) Enqueue(req ActuationRequest) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	select {
	case d.queue <- req:
		if d.telemetry != nil {
			d.telemetry.RecordEnqueued(req.Intensity, req.DurationMillis)
		}
		loggingactuation.Enqueued(context.Background(), d.publisher, req.Seq, d.deviceRef(), loggingactuation.RequestPayload{
			Kind:       string(req.Kind),
			Intensity:  req.Intensity,
			DurationMs: req.DurationMillis,
		})
		return true
	default:
		d.handleDrop(req)
		return false
	}
}

func (d *Dispatcher) handleDrop(req ActuationRequest) {
	if d.telemetry != nil {
		d.telemetry.RecordDropped()
	}
	loggingactuation.Dropped(context.Background(), d.publisher, req.Seq, d.deviceRef(), loggingactuation.RequestPayload{
		Kind:       string(req.Kind),
		Intensity:  req.Intensity,
		DurationMs: req.DurationMillis,
	})
	now := time.Now().UnixNano()
	next := d.lastDropLog.Load()
	if next == 0 || now >= next {
		if d.lastDropLog.CompareAndSwap(next, now+(5*time.Second).Nanoseconds()) {
			d.fallback.Printf("actuation queue full, discarding %s request", req.Kind)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case req := <-d.queue:
			d.dispatch(req)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case req := <-d.queue:
			d.dispatch(req)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(req ActuationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	err := d.send(ctx, req)
	cancel()
	if d.telemetry != nil {
		d.telemetry.RecordSendResult(err)
	}
}

// Close stops accepting requests and waits for pending sends to finish.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil || !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.cancel()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deviceRef() logging.SubjectRef {
	return logging.SubjectRef{ID: d.deviceID(), Kind: logging.SubjectKindDevice}
}
