package bridge

import (
	"fmt"
	"os"
	"sync/atomic"
)

type telemetryCounters struct {
	observationsTotal  atomic.Uint64
	triggersDamage     atomic.Uint64
	triggersHurtOther  atomic.Uint64
	triggersDeath      atomic.Uint64
	cooldownSuppressed atomic.Uint64
	actuationsEnqueued atomic.Uint64
	actuationsDropped  atomic.Uint64
	actuationsSent     atomic.Uint64
	actuationsFailed   atomic.Uint64
	lastIntensity      atomic.Int64
	lastDurationMillis atomic.Int64
	debug              bool
}

type telemetrySnapshot struct {
	ObservationsTotal  uint64 `json:"observationsTotal"`
	TriggersDamage     uint64 `json:"triggersDamage"`
	TriggersHurtOther  uint64 `json:"triggersHurtOther"`
	TriggersDeath      uint64 `json:"triggersDeath"`
	CooldownSuppressed uint64 `json:"cooldownSuppressed"`
	ActuationsEnqueued uint64 `json:"actuationsEnqueued"`
	ActuationsDropped  uint64 `json:"actuationsDropped"`
	ActuationsSent     uint64 `json:"actuationsSent"`
	ActuationsFailed   uint64 `json:"actuationsFailed"`
	LastIntensity      int64  `json:"lastIntensity"`
	LastDurationMillis int64  `json:"lastDurationMillis"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordObservation() {
	t.observationsTotal.Add(1)
}

func (t *telemetryCounters) RecordTrigger(kind TriggerKind) {
	switch kind {
	case TriggerDamage:
		t.triggersDamage.Add(1)
	case TriggerHurtOther:
		t.triggersHurtOther.Add(1)
	case TriggerDeath:
		t.triggersDeath.Add(1)
	}
}

func (t *telemetryCounters) RecordSuppressed() {
	t.cooldownSuppressed.Add(1)
}

func (t *telemetryCounters) RecordEnqueued(intensity, durationMillis int) {
	t.actuationsEnqueued.Add(1)
	t.lastIntensity.Store(int64(intensity))
	t.lastDurationMillis.Store(int64(durationMillis))
	if t.debug {
		fmt.Printf(
			"[telemetry] enqueued intensity=%d duration=%dms total=%d dropped=%d\n",
			intensity,
			durationMillis,
			t.actuationsEnqueued.Load(),
			t.actuationsDropped.Load(),
		)
	}
}

func (t *telemetryCounters) RecordDropped() {
	t.actuationsDropped.Add(1)
}

func (t *telemetryCounters) RecordSendResult(err error) {
	if err != nil {
		t.actuationsFailed.Add(1)
		return
	}
	t.actuationsSent.Add(1)
}

func (t *telemetryCounters) DebugEnabled() bool {
	return t.debug
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		ObservationsTotal:  t.observationsTotal.Load(),
		TriggersDamage:     t.triggersDamage.Load(),
		TriggersHurtOther:  t.triggersHurtOther.Load(),
		TriggersDeath:      t.triggersDeath.Load(),
		CooldownSuppressed: t.cooldownSuppressed.Load(),
		ActuationsEnqueued: t.actuationsEnqueued.Load(),
		ActuationsDropped:  t.actuationsDropped.Load(),
		ActuationsSent:     t.actuationsSent.Load(),
		ActuationsFailed:   t.actuationsFailed.Load(),
		LastIntensity:      t.lastIntensity.Load(),
		LastDurationMillis: t.lastDurationMillis.Load(),
	}
}
