package config

import (
	"errors"

	"github.com/andreyvit/tinyjson"

	"sensornode-go/sleep"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const serviceName = "config"

// ErrNoConfig is returned when no embedded config exists for a device.
// Callers fall back to defaults; a missing config is not fatal.
var ErrNoConfig = errors.New("no embedded config for device")

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Node configuration
// -----------------------------------------------------------------------------

// PhaseBudgets are the per-phase wall-clock ceilings in milliseconds, plus
// the debounce window for coalescing rapid external updates before a redraw
// decision.
type PhaseBudgets struct {
	SensorMs       uint32 `yaml:"sensor_ms"`
	NetworkFetchMs uint32 `yaml:"network_fetch_ms"`
	DisplayMs      uint32 `yaml:"display_ms"`
	PublishMs      uint32 `yaml:"publish_ms"`
	DebounceMs     uint32 `yaml:"debounce_ms"`
}

// RapidReset tunes crash-loop detection. The 3-in-30s default is an
// empirical constant for this hardware, not a derived value.
type RapidReset struct {
	MaxCrashes uint32 `yaml:"max_crashes"`
	WindowSec  int64  `yaml:"window_sec"`
}

type Config struct {
	Phases PhaseBudgets `yaml:"phases"`
	Sleep  sleep.Config `yaml:"sleep"`
	Loop   RapidReset   `yaml:"rapid_reset"`

	// DurableWriteEvery rate-limits flash write-through: the retained state
	// is mirrored to the durable cache every Nth cycle, not every wake.
	DurableWriteEvery uint32 `yaml:"durable_write_every"`

	// SafeModeCeilingMs bounds the safe-mode loop before the forced reboot.
	SafeModeCeilingMs uint32 `yaml:"safe_mode_ceiling_ms"`

	// OverrideSleepSec is an externally-set sleep override (0 = none). It is
	// clamped to the policy safety floor at decision time, not here.
	OverrideSleepSec uint32 `yaml:"override_sleep_sec"`
}

func Default() Config {
	return Config{
		Phases: PhaseBudgets{
			SensorMs:       2500,
			NetworkFetchMs: 15000,
			DisplayMs:      5000,
			PublishMs:      5000,
			DebounceMs:     400,
		},
		Sleep:             sleep.DefaultConfig(),
		Loop:              RapidReset{MaxCrashes: 3, WindowSec: 30},
		DurableWriteEvery: 10,
		SafeModeCeilingMs: 120000,
	}
}

// Load resolves the embedded config for a device and overlays it on the
// defaults. Malformed or missing JSON is treated as absence: the defaults
// come back along with a non-nil error for logging, never a failure that
// halts boot.
func Load(device string) (Config, error) {
	cfg := Default()

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return cfg, ErrNoConfig
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return cfg, errors.New("embedded config is not a JSON object")
	}
	applyMap(&cfg, m)
	return cfg, nil
}

// applyMap overlays recognized keys onto cfg. Unknown keys are ignored;
// wrong-typed values are skipped rather than propagated as errors.
func applyMap(cfg *Config, m map[string]any) {
	if p, ok := obj(m, "phases"); ok {
		setU32(p, "sensor_ms", &cfg.Phases.SensorMs)
		setU32(p, "network_fetch_ms", &cfg.Phases.NetworkFetchMs)
		setU32(p, "display_ms", &cfg.Phases.DisplayMs)
		setU32(p, "publish_ms", &cfg.Phases.PublishMs)
		setU32(p, "debounce_ms", &cfg.Phases.DebounceMs)
	}
	if s, ok := obj(m, "sleep"); ok {
		setU32(s, "normal_sec", &cfg.Sleep.NormalSec)
		setU32(s, "low_battery_sec", &cfg.Sleep.LowBatterySec)
		setU32(s, "critical_sec", &cfg.Sleep.CriticalSec)
		setU32(s, "rapid_update_sec", &cfg.Sleep.RapidUpdateSec)
		setU8(s, "low_threshold_pct", &cfg.Sleep.LowThresholdPct)
		setU8(s, "critical_threshold_pct", &cfg.Sleep.CriticalThresholdPct)
		setF32(s, "rapid_change_threshold", &cfg.Sleep.RapidChangeThreshold)
	}
	if rr, ok := obj(m, "rapid_reset"); ok {
		setU32(rr, "max_crashes", &cfg.Loop.MaxCrashes)
		if v, ok := num(rr, "window_sec"); ok {
			cfg.Loop.WindowSec = int64(v)
		}
	}
	setU32(m, "durable_write_every", &cfg.DurableWriteEvery)
	setU32(m, "safe_mode_ceiling_ms", &cfg.SafeModeCeilingMs)
	setU32(m, "override_sleep_sec", &cfg.OverrideSleepSec)
}

func obj(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

func num(m map[string]any, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func setU32(m map[string]any, key string, dst *uint32) {
	if v, ok := num(m, key); ok && v >= 0 {
		*dst = uint32(v)
	}
}

func setU8(m map[string]any, key string, dst *uint8) {
	if v, ok := num(m, key); ok && v >= 0 && v <= 255 {
		*dst = uint8(v)
	}
}

func setF32(m map[string]any, key string, dst *float32) {
	if v, ok := num(m, key); ok {
		*dst = float32(v)
	}
}
