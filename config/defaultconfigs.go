package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPicoNode = `{
  "phases": {
    "sensor_ms": 2500,
    "network_fetch_ms": 15000,
    "display_ms": 5000,
    "publish_ms": 5000,
    "debounce_ms": 400
  },
  "sleep": {
    "normal_sec": 900,
    "low_battery_sec": 1800,
    "critical_sec": 3600,
    "rapid_update_sec": 300,
    "low_threshold_pct": 25,
    "critical_threshold_pct": 5,
    "rapid_change_threshold": 1.0
  },
  "durable_write_every": 10
}`

const cfgSim = `{
  "sleep": {
    "normal_sec": 300
  },
  "durable_write_every": 3
}`

var embeddedConfigs = map[string][]byte{
	"pico-node": []byte(cfgPicoNode),
	"sim":       []byte(cfgSim),
}
