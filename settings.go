package bridge

import (
	"strings"
	"sync/atomic"
)

const (
	defaultAPIBase         = "https://api.openshock.app/"
	defaultBaseIntensity   = 30
	defaultBaseDurationSec = 1.0
	defaultQueueSize       = 16
)

// RampConfig tunes one ramping channel (intensity or duration).
type RampConfig struct {
	Enabled              bool    `mapstructure:"enabled" json:"enabled" jsonschema:"description=Whether this channel escalates across successive triggers"`
	StepPercent          float64 `mapstructure:"step_percent" json:"stepPercent" jsonschema:"minimum=0,maximum=100,description=Percent of max added per trigger"`
	DecayPercent         float64 `mapstructure:"decay_percent" json:"decayPercent" jsonschema:"minimum=0,maximum=100,description=Percent of max removed per decay interval"`
	DecayIntervalSeconds float64 `mapstructure:"decay_interval_seconds" json:"decayIntervalSeconds" jsonschema:"minimum=0,description=Seconds between decay steps"`
	Max                  float64 `mapstructure:"max" json:"max" jsonschema:"minimum=0,description=Ceiling for the ramped value"`
}

// APIConfig points the bridge at an OpenShock account and device.
type APIConfig struct {
	URLBase  string `mapstructure:"url_base" json:"urlBase" jsonschema:"description=OpenShock API base URL"`
	Token    string `mapstructure:"token" json:"token" jsonschema:"description=Open-Shock-Token header value"`
	DeviceID string `mapstructure:"device_id" json:"deviceId" jsonschema:"description=Shocker id targeted by control calls"`
}

// Settings is the immutable per-load configuration snapshot shared by the
// classifier and the ramp engine. A reload builds a fresh value and swaps it
// into the SettingsStore; live state never mutates a snapshot.
type Settings struct {
	Enabled     bool `mapstructure:"enabled" json:"enabled" jsonschema:"description=Master switch for the whole bridge"`
	OnDamage    bool `mapstructure:"on_damage" json:"onDamage" jsonschema:"description=Trigger when the player takes non-fatal damage"`
	OnHurtOther bool `mapstructure:"on_hurt_other" json:"onHurtOther" jsonschema:"description=Trigger when the player damages another actor"`
	OnDeath     bool `mapstructure:"on_death" json:"onDeath" jsonschema:"description=Trigger when the player dies"`

	Intensity       int     `mapstructure:"intensity" json:"intensity" jsonschema:"minimum=0,maximum=100,description=Base intensity"`
	DurationSeconds float64 `mapstructure:"duration_seconds" json:"durationSeconds" jsonschema:"minimum=0,description=Base shock duration in seconds"`
	Debug           bool    `mapstructure:"debug" json:"debug" jsonschema:"description=Verbose telemetry output"`

	IntensityRamp RampConfig `mapstructure:"intensity_ramp" json:"intensityRamp"`
	DurationRamp  RampConfig `mapstructure:"duration_ramp" json:"durationRamp"`

	API APIConfig `mapstructure:"api" json:"api"`

	QueueSize int `mapstructure:"queue_size" json:"queueSize" jsonschema:"minimum=1,description=Capacity of the actuation dispatch queue"`
}

// DefaultSettings enables the self-damage triggers with conservative values
// and ramping off. Used whenever a load fails.
func DefaultSettings() Settings {
	return Settings{
		Enabled:         true,
		OnDamage:        true,
		OnDeath:         true,
		Intensity:       defaultBaseIntensity,
		DurationSeconds: defaultBaseDurationSec,
		IntensityRamp:   defaultRamp(100),
		DurationRamp:    defaultRamp(5),
		API:             APIConfig{URLBase: defaultAPIBase},
		QueueSize:       defaultQueueSize,
	}
}

func defaultRamp(max float64) RampConfig {
	return RampConfig{
		StepPercent:          10,
		DecayPercent:         5,
		DecayIntervalSeconds: 1,
		Max:                  max,
	}
}

// Normalized returns a snapshot with defaults applied and every value forced
// into its legal range, as the store would install it.
func (s Settings) Normalized() Settings {
	return s.normalized()
}

// normalized returns a snapshot with defaults applied and every value forced
// into its legal range. The ramp ceiling is raised to at least the base so
// the base <= ramped <= max invariant holds from the first trigger.
func (s Settings) normalized() Settings {
	out := s

	if out.Intensity < 0 {
		out.Intensity = 0
	}
	if out.Intensity > 100 {
		out.Intensity = 100
	}
	if out.DurationSeconds <= 0 {
		out.DurationSeconds = defaultBaseDurationSec
	}
	if out.QueueSize <= 0 {
		out.QueueSize = defaultQueueSize
	}

	out.IntensityRamp = out.IntensityRamp.normalized(float64(out.Intensity))
	out.DurationRamp = out.DurationRamp.normalized(out.DurationSeconds)

	out.API.URLBase = strings.TrimSpace(out.API.URLBase)
	if out.API.URLBase == "" {
		out.API.URLBase = defaultAPIBase
	}
	out.API.Token = strings.TrimSpace(out.API.Token)
	out.API.DeviceID = strings.TrimSpace(out.API.DeviceID)

	return out
}

func (c RampConfig) normalized(base float64) RampConfig {
	out := c
	if out.StepPercent < 0 {
		out.StepPercent = 0
	}
	if out.DecayPercent < 0 {
		out.DecayPercent = 0
	}
	if out.DecayIntervalSeconds <= 0 {
		out.DecayIntervalSeconds = 1
	}
	if out.Max < base {
		out.Max = base
	}
	return out
}

// SettingsStore holds the active snapshot. Replace swaps atomically so
// readers always observe a complete snapshot.
type SettingsStore struct {
	current atomic.Pointer[Settings]
}

func NewSettingsStore(settings Settings) *SettingsStore {
	store := &SettingsStore{}
	store.Replace(settings)
	return store
}

// Current returns the active snapshot. The returned pointer must be treated
// as read-only.
func (s *SettingsStore) Current() *Settings {
	if s == nil {
		return nil
	}
	if snapshot := s.current.Load(); snapshot != nil {
		return snapshot
	}
	fallback := DefaultSettings().normalized()
	return &fallback
}

// Replace normalizes and installs a new snapshot.
func (s *SettingsStore) Replace(settings Settings) {
	if s == nil {
		return
	}
	normalized := settings.normalized()
	s.current.Store(&normalized)
}
