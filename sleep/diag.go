package sleep

import "sensornode-go/types"

// Thresholds mirrors the configured battery cut-offs in the diagnostics
// schema.
type Thresholds struct {
	Low      uint8 `json:"low"`
	Critical uint8 `json:"critical"`
}

// Diag is the stable sleep diagnostics schema. External tooling parses these
// field names; do not rename.
type Diag struct {
	OptimalSec  uint32     `json:"optimal_sec"`
	BatteryPct  int        `json:"battery_pct"`
	Normal      uint32     `json:"normal"`
	LowBattery  uint32     `json:"low_battery"`
	Critical    uint32     `json:"critical"`
	RapidUpdate uint32     `json:"rapid_update"`
	Thresholds  Thresholds `json:"thresholds"`
}

// Diagnostics reports the chosen interval alongside the configuration that
// produced it.
func Diagnostics(cfg Config, battery types.BatteryStatus, chosenSec uint32) Diag {
	return Diag{
		OptimalSec:  chosenSec,
		BatteryPct:  battery.Percent,
		Normal:      cfg.NormalSec,
		LowBattery:  cfg.LowBatterySec,
		Critical:    cfg.CriticalSec,
		RapidUpdate: cfg.RapidUpdateSec,
		Thresholds: Thresholds{
			Low:      cfg.LowThresholdPct,
			Critical: cfg.CriticalThresholdPct,
		},
	}
}
