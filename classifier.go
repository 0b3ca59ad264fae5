package bridge

import "time"

// SubjectRole says who the observed damage belongs to.
type SubjectRole string

const (
	// RoleSelf marks damage taken by the local player.
	RoleSelf SubjectRole = "self"
	// RoleOther marks damage the local player dealt to another actor.
	RoleOther SubjectRole = "other"
)

// DamageObservation is the raw inbound report from the integration shim.
// Health fields are only meaningful for RoleSelf.
type DamageObservation struct {
	Role          SubjectRole
	Damage        float64
	CurrentHealth float64
	MaxHealth     float64
	At            time.Time
}

// TriggerKind tags a classified event.
type TriggerKind string

const (
	TriggerDamage    TriggerKind = "damage"
	TriggerHurtOther TriggerKind = "hurt-other"
	TriggerDeath     TriggerKind = "death"
)

// TriggerEvent is the classifier's output, consumed once by the ramp engine.
type TriggerEvent struct {
	Kind   TriggerKind
	Amount float64
}

const deathCooldown = 2 * time.Second

// Classifier maps damage observations to trigger events. It owns the death
// cooldown so duplicate triggers from post-mortem damage processing are
// swallowed here. Not safe for concurrent use; the Hub serializes access.
type Classifier struct {
	lastDeath time.Time
}

// Classify applies the trigger rules in order and reports whether an event
// was produced. A zero or negative damage amount never classifies, and a
// missing health tree (MaxHealth <= 0 on a self observation) means "cannot
// classify" rather than an error.
func (c *Classifier) Classify(obs DamageObservation, settings *Settings, now time.Time) (TriggerEvent, bool) {
	if c == nil || settings == nil || !settings.Enabled {
		return TriggerEvent{}, false
	}
	if obs.Damage <= 0 {
		return TriggerEvent{}, false
	}

	if obs.Role == RoleOther {
		if !settings.OnHurtOther {
			return TriggerEvent{}, false
		}
		return TriggerEvent{Kind: TriggerHurtOther, Amount: obs.Damage}, true
	}

	if obs.MaxHealth <= 0 {
		return TriggerEvent{}, false
	}

	alive := obs.CurrentHealth > 0
	willDie := alive && obs.CurrentHealth-obs.Damage <= 0
	inDeathCooldown := !c.lastDeath.IsZero() && now.Sub(c.lastDeath) <= deathCooldown

	if willDie {
		if !settings.OnDeath || inDeathCooldown {
			return TriggerEvent{}, false
		}
		c.lastDeath = now
		return TriggerEvent{Kind: TriggerDeath}, true
	}

	// Already dead, or damage landing right after a death: incidental.
	if !alive || inDeathCooldown {
		return TriggerEvent{}, false
	}

	if !settings.OnDamage {
		return TriggerEvent{}, false
	}
	return TriggerEvent{Kind: TriggerDamage, Amount: obs.Damage}, true
}
