// Package sleep decides how long the node stays down between wakes. The
// decision is a pure function of configuration, battery state, the retained
// signal from the previous cycle, and an optional remote override — no
// hidden state, so it is testable in isolation.
package sleep

import (
	"sensornode-go/types"
	"sensornode-go/x/mathx"
)

// SafetyFloorSec bounds any external override. A remote misconfiguration
// must not be able to wake the node so often that sensor self-heating or
// battery exhaustion becomes possible.
const SafetyFloorSec = 180

// Config is pure configuration; the only runtime-mutable piece is the
// override, which is passed per call, not stored here.
type Config struct {
	NormalSec      uint32 `yaml:"normal_sec" json:"normal"`
	LowBatterySec  uint32 `yaml:"low_battery_sec" json:"low_battery"`
	CriticalSec    uint32 `yaml:"critical_sec" json:"critical"`
	RapidUpdateSec uint32 `yaml:"rapid_update_sec" json:"rapid_update"`

	LowThresholdPct      uint8 `yaml:"low_threshold_pct" json:"-"`
	CriticalThresholdPct uint8 `yaml:"critical_threshold_pct" json:"-"`

	// RapidChangeThreshold is the absolute signal delta that flags a
	// volatile environment worth sampling faster.
	RapidChangeThreshold float32 `yaml:"rapid_change_threshold" json:"-"`
}

func DefaultConfig() Config {
	return Config{
		NormalSec:            900,
		LowBatterySec:        1800,
		CriticalSec:          3600,
		RapidUpdateSec:       300,
		LowThresholdPct:      25,
		CriticalThresholdPct: 5,
		RapidChangeThreshold: 1.0,
	}
}

// Interval maps the inputs to the next sleep duration in seconds.
// Decision order, first match wins: explicit override (clamped to the safety
// floor), critical battery, low battery, rapid signal change, normal.
// lastSignal comes from the retention store as of call time, supplied by the
// caller — the policy never reads state itself.
func Interval(cfg Config, battery types.BatteryStatus, lastSignal, curSignal float32, overrideSec uint32) uint32 {
	if overrideSec > 0 {
		return mathx.Max(overrideSec, uint32(SafetyFloorSec))
	}
	if battery.Valid() {
		if battery.Percent < int(cfg.CriticalThresholdPct) {
			return cfg.CriticalSec
		}
		if battery.Percent < int(cfg.LowThresholdPct) {
			return cfg.LowBatterySec
		}
	}
	if finite(lastSignal) && finite(curSignal) {
		if mathx.AbsF32(curSignal-lastSignal) > cfg.RapidChangeThreshold {
			return cfg.RapidUpdateSec
		}
	}
	return cfg.NormalSec
}

// finite rejects NaN and infinities without pulling in math (float64).
func finite(f float32) bool {
	if f != f {
		return false
	}
	return f-f == 0
}
