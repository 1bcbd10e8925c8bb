// config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// A validation failure escalates to safe mode in the cycle controller:
// running with out-of-range budgets risks a stuck always-on loop.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// PHASE BUDGETS
	// ------------------------------------------------------------

	budget := func(name string, ms uint32) error {
		if ms == 0 {
			return fmt.Errorf("phase %q: budget must be > 0 ms", name)
		}
		if ms > 60_000 {
			return fmt.Errorf("phase %q: budget %d ms exceeds 60s ceiling", name, ms)
		}
		return nil
	}
	if err := budget("sensor", cfg.Phases.SensorMs); err != nil {
		return err
	}
	if err := budget("network_fetch", cfg.Phases.NetworkFetchMs); err != nil {
		return err
	}
	if err := budget("display", cfg.Phases.DisplayMs); err != nil {
		return err
	}
	if err := budget("publish", cfg.Phases.PublishMs); err != nil {
		return err
	}
	if cfg.Phases.DebounceMs > cfg.Phases.DisplayMs {
		return fmt.Errorf(
			"debounce window %d ms exceeds display budget %d ms",
			cfg.Phases.DebounceMs, cfg.Phases.DisplayMs,
		)
	}

	// ------------------------------------------------------------
	// SLEEP INTERVALS AND BATTERY THRESHOLDS
	// ------------------------------------------------------------

	interval := func(name string, sec uint32) error {
		if sec == 0 {
			return fmt.Errorf("sleep %q: interval must be > 0 s", name)
		}
		if sec > 86_400 {
			return fmt.Errorf("sleep %q: interval %d s exceeds 24h ceiling", name, sec)
		}
		return nil
	}
	if err := interval("normal", cfg.Sleep.NormalSec); err != nil {
		return err
	}
	if err := interval("low_battery", cfg.Sleep.LowBatterySec); err != nil {
		return err
	}
	if err := interval("critical", cfg.Sleep.CriticalSec); err != nil {
		return err
	}
	if err := interval("rapid_update", cfg.Sleep.RapidUpdateSec); err != nil {
		return err
	}

	if cfg.Sleep.LowThresholdPct > 100 || cfg.Sleep.CriticalThresholdPct > 100 {
		return fmt.Errorf(
			"battery thresholds low=%d critical=%d: must be percentages",
			cfg.Sleep.LowThresholdPct, cfg.Sleep.CriticalThresholdPct,
		)
	}
	if cfg.Sleep.CriticalThresholdPct >= cfg.Sleep.LowThresholdPct {
		return fmt.Errorf(
			"critical threshold %d%% must be below low threshold %d%%",
			cfg.Sleep.CriticalThresholdPct, cfg.Sleep.LowThresholdPct,
		)
	}
	if cfg.Sleep.RapidChangeThreshold <= 0 {
		return fmt.Errorf(
			"rapid_change_threshold %v: must be > 0",
			cfg.Sleep.RapidChangeThreshold,
		)
	}

	// ------------------------------------------------------------
	// LIFECYCLE POLICY
	// ------------------------------------------------------------

	if cfg.Loop.MaxCrashes == 0 {
		return fmt.Errorf("rapid_reset.max_crashes must be > 0")
	}
	if cfg.Loop.WindowSec <= 0 {
		return fmt.Errorf("rapid_reset.window_sec must be > 0")
	}
	if cfg.DurableWriteEvery == 0 {
		return fmt.Errorf("durable_write_every must be >= 1")
	}
	if cfg.SafeModeCeilingMs < 10_000 || cfg.SafeModeCeilingMs > 600_000 {
		return fmt.Errorf(
			"safe_mode_ceiling_ms %d: must be within 10s..10min",
			cfg.SafeModeCeilingMs,
		)
	}

	return nil
}
