package bridge

import (
	"math"
	"time"
)

// rampChannel tracks the ramped value for one actuation parameter. The value
// is only meaningful while armed; an idle channel always reads as the base.
// Invariant: base <= value <= cfg.Max while armed.
type rampChannel struct {
	value float64
	armed bool
	// lastDecay stays zero until the first decay tick primes it, so arming
	// never produces a spuriously large first decay step.
	lastDecay time.Time
}

// trigger applies one ramp step and returns the value to actuate with.
func (ch *rampChannel) trigger(cfg RampConfig, base float64) float64 {
	if !cfg.Enabled {
		return base
	}
	current := base
	if ch.armed && ch.value > base {
		current = ch.value
	}
	step := cfg.Max * cfg.StepPercent / 100
	current = math.Min(cfg.Max, current+step)
	ch.value = current
	if current > base {
		ch.armed = true
	} else {
		ch.disarm()
	}
	return current
}

// current reads the ramped value without stepping.
func (ch *rampChannel) current(cfg RampConfig, base float64) float64 {
	if !cfg.Enabled || !ch.armed {
		return base
	}
	return math.Max(base, math.Min(cfg.Max, ch.value))
}

// decayTick advances time-based decay. Returns true while the channel still
// needs future ticks; false disarms it until the next trigger.
func (ch *rampChannel) decayTick(cfg RampConfig, base float64, now time.Time) bool {
	if !cfg.Enabled || !ch.armed {
		ch.disarm()
		return false
	}
	if ch.value <= base {
		ch.disarm()
		return false
	}
	if ch.lastDecay.IsZero() {
		ch.lastDecay = now
		return true
	}
	interval := secondsToDuration(cfg.DecayIntervalSeconds)
	if now.Sub(ch.lastDecay) < interval {
		return true
	}
	amount := cfg.Max * cfg.DecayPercent / 100
	ch.value = math.Max(base, ch.value-amount)
	ch.lastDecay = now
	if ch.value <= base {
		ch.disarm()
		return false
	}
	return true
}

func (ch *rampChannel) disarm() {
	ch.armed = false
	ch.lastDecay = time.Time{}
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return time.Second
	}
	return time.Duration(seconds * float64(time.Second))
}
