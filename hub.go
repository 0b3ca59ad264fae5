package bridge

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"vintageshock/bridge/logging"
	loggingtriggers "vintageshock/bridge/logging/triggers"
)

const (
	damageCooldown      = 500 * time.Millisecond
	decayTickResolution = time.Second
)

// Hub owns every piece of mutable bridge state: the classifier's death
// cooldown, the damage cooldown, and both ramp channels. All mutation goes
// through its mutex, so inbound observations, the decay driver, and reloads
// never race. Outbound sends happen on the dispatcher's worker and hold no
// Hub lock while in flight.
type Hub struct {
	mu         sync.Mutex
	settings   *SettingsStore
	classifier Classifier
	intensity  rampChannel
	duration   rampChannel
	lastDamage time.Time

	decayRunning bool
	stop         chan struct{}
	stopOnce     sync.Once

	dispatcher *Dispatcher
	dispatch   func(ActuationRequest) bool
	telemetry  *telemetryCounters
	publisher  logging.Publisher
	logger     *log.Logger
	seq        atomic.Uint64
}

type HubConfig struct {
	Settings  *SettingsStore
	Publisher logging.Publisher
	Logger    *log.Logger
	// Dispatch overrides the outbound queue; tests use it to record
	// actuations without a dispatcher.
	Dispatch func(ActuationRequest) bool
}

func NewHub(cfg HubConfig) *Hub {
	settings := cfg.Settings
	if settings == nil {
		settings = NewSettingsStore(DefaultSettings())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	h := &Hub{
		settings:  settings,
		telemetry: newTelemetryCounters(),
		publisher: publisher,
		logger:    logger,
		stop:      make(chan struct{}),
	}

	if cfg.Dispatch != nil {
		h.dispatch = cfg.Dispatch
	} else {
		actuator := NewActuator(settings)
		h.dispatcher = newDispatcher(dispatcherConfig{
			QueueSize: settings.Current().QueueSize,
			Send: func(ctx context.Context, req ActuationRequest) error {
				return actuator.SendShock(ctx, req.Intensity, req.DurationMillis)
			},
			Telemetry: h.telemetry,
			Publisher: publisher,
			Fallback:  logger,
			DeviceID:  func() string { return settings.Current().API.DeviceID },
		})
		h.dispatch = h.dispatcher.Enqueue
	}

	return h
}

// Observe feeds one damage observation through classification and, when a
// trigger results, through the ramp engine into the dispatch queue. Called by
// the shim transports with arbitrary timing.
func (h *Hub) Observe(obs DamageObservation) {
	if h == nil {
		return
	}
	now := obs.At
	if now.IsZero() {
		now = time.Now()
	}
	settings := h.settings.Current()
	seq := h.seq.Add(1)
	h.telemetry.RecordObservation()

	h.mu.Lock()
	evt, ok := h.classifier.Classify(obs, settings, now)
	if !ok {
		h.mu.Unlock()
		return
	}

	// Damage and hurt-other share one cooldown; death has its own, applied
	// during classification. A suppressed trigger must not step the ramp.
	if evt.Kind != TriggerDeath {
		if !h.lastDamage.IsZero() && now.Sub(h.lastDamage) <= damageCooldown {
			h.mu.Unlock()
			h.telemetry.RecordSuppressed()
			loggingtriggers.Suppressed(context.Background(), h.publisher, seq, playerRef(), loggingtriggers.SuppressedPayload{
				Kind:     string(evt.Kind),
				Cooldown: "damage",
			}, nil)
			return
		}
		h.lastDamage = now
	}

	intensityValue := h.intensity.trigger(settings.IntensityRamp, float64(settings.Intensity))
	durationValue := h.duration.trigger(settings.DurationRamp, settings.DurationSeconds)
	h.armDecayLocked()
	h.mu.Unlock()

	intensity := clampIntensity(intensityValue)
	durationMillis := int(math.Round(durationValue * 1000))

	h.telemetry.RecordTrigger(evt.Kind)
	h.dispatch(ActuationRequest{
		Kind:           evt.Kind,
		Intensity:      intensity,
		DurationMillis: durationMillis,
		Seq:            seq,
	})
	loggingtriggers.Fired(context.Background(), h.publisher, seq, playerRef(), loggingtriggers.FiredPayload{
		Kind:       string(evt.Kind),
		Amount:     evt.Amount,
		Intensity:  intensity,
		DurationMs: durationMillis,
	}, nil)
}

// armDecayLocked starts the decay driver when a ramp channel goes above base.
// The driver exits on its own once both channels are idle again, so no
// periodic work runs while nothing is decaying.
func (h *Hub) armDecayLocked() {
	if h.decayRunning {
		return
	}
	if !h.intensity.armed && !h.duration.armed {
		return
	}
	h.decayRunning = true
	go h.runDecay()
}

func (h *Hub) runDecay() {
	ticker := time.NewTicker(decayTickResolution)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.decayRunning = false
			h.mu.Unlock()
			return
		case now := <-ticker.C:
			h.mu.Lock()
			settings := h.settings.Current()
			intensityActive := h.intensity.decayTick(settings.IntensityRamp, float64(settings.Intensity), now)
			durationActive := h.duration.decayTick(settings.DurationRamp, settings.DurationSeconds, now)
			if !intensityActive && !durationActive {
				h.decayRunning = false
				h.mu.Unlock()
				return
			}
			h.mu.Unlock()
		}
	}
}

// Close stops the decay driver and drains the dispatcher.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.stopOnce.Do(func() { close(h.stop) })
	if h.dispatcher != nil {
		return h.dispatcher.Close(ctx)
	}
	return nil
}

// DiagnosticsSnapshot exposes cooldown, ramp, and counter state for the
// diagnostics endpoint.
type DiagnosticsSnapshot struct {
	Enabled           bool              `json:"enabled"`
	RampedIntensity   float64           `json:"rampedIntensity"`
	RampedDurationSec float64           `json:"rampedDurationSec"`
	DecayActive       bool              `json:"decayActive"`
	LastDamageMillis  int64             `json:"lastDamageMillis"`
	Telemetry         telemetrySnapshot `json:"telemetry"`
}

func (h *Hub) Diagnostics() DiagnosticsSnapshot {
	settings := h.settings.Current()

	h.mu.Lock()
	snapshot := DiagnosticsSnapshot{
		Enabled:           settings.Enabled,
		RampedIntensity:   h.intensity.current(settings.IntensityRamp, float64(settings.Intensity)),
		RampedDurationSec: h.duration.current(settings.DurationRamp, settings.DurationSeconds),
		DecayActive:       h.decayRunning,
	}
	if !h.lastDamage.IsZero() {
		snapshot.LastDamageMillis = h.lastDamage.UnixMilli()
	}
	h.mu.Unlock()

	snapshot.Telemetry = h.telemetry.Snapshot()
	return snapshot
}

// ReplaceSettings installs a new snapshot. Ramp channels keep their state;
// values above a lowered ceiling are clamped lazily on the next read.
func (h *Hub) ReplaceSettings(settings Settings) {
	h.settings.Replace(settings)
}

func clampIntensity(value float64) int {
	intensity := int(math.Round(value))
	if intensity < 0 {
		return 0
	}
	if intensity > 100 {
		return 100
	}
	return intensity
}

func playerRef() logging.SubjectRef {
	return logging.SubjectRef{Kind: logging.SubjectKindPlayer}
}
