package types

// ------------------------
// Reset classification
// ------------------------

// ResetReason is the raw platform reset cause, as reported by the reset
// controller on boot. Values are stable because they are persisted in the
// retention region and in crash records.
type ResetReason uint8

const (
	ResetPowerOn   ResetReason = 0x01
	ResetExternal  ResetReason = 0x02
	ResetSoftware  ResetReason = 0x03
	ResetWatchdog  ResetReason = 0x04
	ResetPanic     ResetReason = 0x05
	ResetBrownout  ResetReason = 0x06
	ResetDeepSleep ResetReason = 0x07 // wake from deep sleep timer

	ResetUnknown ResetReason = 0xFF
)

func (r ResetReason) String() string {
	switch r {
	case ResetPowerOn:
		return "power_on"
	case ResetExternal:
		return "external"
	case ResetSoftware:
		return "software"
	case ResetWatchdog:
		return "watchdog"
	case ResetPanic:
		return "panic"
	case ResetBrownout:
		return "brownout"
	case ResetDeepSleep:
		return "deep_sleep_wake"
	default:
		return "unknown"
	}
}

// ------------------------
// Environment readings
// ------------------------

// Reading is one temperature/humidity sample in fixed point
// (deci-°C and deci-%RH; the sensor drivers avoid floats on the hot path).
type Reading struct {
	DeciC  int32 `json:"deci_c"`
	DeciRH int32 `json:"deci_rh"`
	TSms   int64 `json:"ts_ms"`
}

// Celsius and RelHumidity are float views for policy code and publishing.
func (r Reading) Celsius() float32     { return float32(r.DeciC) / 10 }
func (r Reading) RelHumidity() float32 { return float32(r.DeciRH) / 10 }

// Outside is fetched over the network rather than measured locally.
type Outside struct {
	Temp     float32 `json:"temp_c"`
	Humidity float32 `json:"rh_pct"`
	Pressure float32 `json:"pressure_hpa"`
	IconID   uint8   `json:"icon_id"`
}

// ------------------------
// Battery
// ------------------------

// BatteryStatus as sampled at wake. Percent is -1 when the gauge could not
// be read; policy code must treat that as "invalid", not as empty.
type BatteryStatus struct {
	Percent int   `json:"pct"`
	MilliV  int32 `json:"mv"`
}

func (b BatteryStatus) Valid() bool { return b.Percent >= 0 && b.Percent <= 100 }

// ------------------------
// Cycle telemetry payloads
// ------------------------

// PhaseEvent is published on the bus at every phase transition.
type PhaseEvent struct {
	Phase     string `json:"phase"`
	Result    string `json:"result"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// SleepEvent is published just before the node goes down.
type SleepEvent struct {
	Seconds uint32 `json:"seconds"`
	Reason  string `json:"reason"`
}
