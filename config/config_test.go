// config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadOverlaysEmbedded(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "unit" {
			return nil, false
		}
		return []byte(`{
			"phases": {"sensor_ms": 1000},
			"sleep": {"normal_sec": 600, "critical_threshold_pct": 7},
			"durable_write_every": 5
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	cfg, err := Load("unit")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Phases.SensorMs != 1000 {
		t.Errorf("SensorMs = %d, want 1000", cfg.Phases.SensorMs)
	}
	if cfg.Sleep.NormalSec != 600 {
		t.Errorf("NormalSec = %d, want 600", cfg.Sleep.NormalSec)
	}
	if cfg.Sleep.CriticalThresholdPct != 7 {
		t.Errorf("CriticalThresholdPct = %d, want 7", cfg.Sleep.CriticalThresholdPct)
	}
	// Keys not present keep their defaults.
	if cfg.Phases.DisplayMs != Default().Phases.DisplayMs {
		t.Errorf("DisplayMs = %d, want default", cfg.Phases.DisplayMs)
	}
}

func TestLoadMissingDeviceYieldsDefaults(t *testing.T) {
	cfg, err := Load("no-such-device")
	if err == nil {
		t.Error("want ErrNoConfig for unknown device")
	}
	if cfg != Default() {
		t.Error("unknown device must yield defaults")
	}
}

func TestMalformedEmbeddedYieldsDefaults(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) {
		return []byte(`[1, 2, 3]`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	cfg, err := Load("whatever")
	if err == nil {
		t.Error("want error for non-object config")
	}
	if cfg != Default() {
		t.Error("malformed config must yield defaults, not partial state")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sensor budget", func(c *Config) { c.Phases.SensorMs = 0 }},
		{"oversize publish budget", func(c *Config) { c.Phases.PublishMs = 120_000 }},
		{"debounce exceeds display", func(c *Config) { c.Phases.DebounceMs = c.Phases.DisplayMs + 1 }},
		{"zero normal interval", func(c *Config) { c.Sleep.NormalSec = 0 }},
		{"interval above 24h", func(c *Config) { c.Sleep.CriticalSec = 90_000 }},
		{"critical >= low threshold", func(c *Config) { c.Sleep.CriticalThresholdPct = c.Sleep.LowThresholdPct }},
		{"non-positive rapid threshold", func(c *Config) { c.Sleep.RapidChangeThreshold = 0 }},
		{"zero max crashes", func(c *Config) { c.Loop.MaxCrashes = 0 }},
		{"zero durable write period", func(c *Config) { c.DurableWriteEvery = 0 }},
		{"safe mode ceiling too short", func(c *Config) { c.SafeModeCeilingMs = 1000 }},
	}
	for _, c := range cases {
		cfg := Default()
		c.mutate(&cfg)
		if Validate(&cfg) == nil {
			t.Errorf("%s: Validate accepted invalid config", c.name)
		}
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	data := []byte("sleep:\n  normal_sec: 120\nphases:\n  sensor_ms: 800\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("LoadYAMLFile: %v", err)
	}
	if cfg.Sleep.NormalSec != 120 {
		t.Errorf("NormalSec = %d, want 120", cfg.Sleep.NormalSec)
	}
	if cfg.Phases.SensorMs != 800 {
		t.Errorf("SensorMs = %d, want 800", cfg.Phases.SensorMs)
	}

	// Malformed file: defaults plus an error.
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("::::"), 0o644)
	cfg, err = LoadYAMLFile(bad)
	if err == nil {
		t.Error("want parse error for malformed YAML")
	}
	if cfg != Default() {
		t.Error("malformed YAML must yield defaults")
	}
}
