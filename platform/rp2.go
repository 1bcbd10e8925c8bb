// platform/rp2.go
//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"sensornode-go/types"
)

// ----------------------------- Debug console ----------------------------------

// DebugUART configures UART0 as a secondary debug console (USB CDC stays the
// primary). Pins follow the pico default wiring.
func DebugUART(baud uint32, tx, rx uint8) *uartx.UART {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	})
	return hw
}

// ----------------------------- Retention (rp2) --------------------------------

// ramRetention lives in ordinary RAM. With the current light-sleep Power
// implementation RAM is held through sleep, so the semantics match the
// retention contract: survives sleep, gone on power loss.
type ramRetention struct {
	buf []byte
}

func NewRetention(size int) RetentionRegion {
	return &ramRetention{buf: make([]byte, size)}
}

func (r *ramRetention) Read(dst []byte) int  { return copy(dst, r.buf) }
func (r *ramRetention) Write(src []byte) int { return copy(r.buf, src) }
func (r *ramRetention) Size() int            { return len(r.buf) }

// ----------------------------- Durable cache (rp2) ----------------------------

// ramDurable stands in until a flash-backed store lands.
// TODO: back this with machine.Flash once the write path is validated on
// rp2350.
type ramDurable struct {
	vals map[string]float64
}

func NewDurable() DurableCache { return &ramDurable{vals: map[string]float64{}} }

func (d *ramDurable) GetFloat(key string) (float32, bool) {
	v, ok := d.vals[key]
	return float32(v), ok
}
func (d *ramDurable) SetFloat(key string, v float32) { d.vals[key] = float64(v) }
func (d *ramDurable) GetUint32(key string) (uint32, bool) {
	v, ok := d.vals[key]
	return uint32(v), ok
}
func (d *ramDurable) SetUint32(key string, v uint32) { d.vals[key] = float64(v) }
func (d *ramDurable) GetUint16(key string) (uint16, bool) {
	v, ok := d.vals[key]
	return uint16(v), ok
}
func (d *ramDurable) SetUint16(key string, v uint16) { d.vals[key] = float64(v) }
func (d *ramDurable) GetUint8(key string) (uint8, bool) {
	v, ok := d.vals[key]
	return uint8(v), ok
}
func (d *ramDurable) SetUint8(key string, v uint8) { d.vals[key] = float64(v) }
func (d *ramDurable) Commit() error               { return nil }

// ----------------------------- Reset source (rp2) -----------------------------

type rp2ResetSource struct{}

func NewResetSource() ResetSource { return rp2ResetSource{} }

// Reason is Unknown until the chip-level reset cause register is plumbed
// through; the diagnostics layer treats Unknown conservatively.
func (rp2ResetSource) Reason() types.ResetReason { return types.ResetUnknown }

// ----------------------------- Power (rp2) ------------------------------------

type rp2Power struct{}

func NewPower() Power { return rp2Power{} }

// Sleep is a light sleep: the core idles but RAM and peripherals stay up.
// TODO: switch to DORMANT mode when TinyGo exposes it for rp2040/rp2350.
func (rp2Power) Sleep(d time.Duration) { time.Sleep(d) }

func (rp2Power) Reboot() { machine.CPUReset() }

// ----------------------------- Indicator (rp2) --------------------------------

type ledIndicator struct {
	pin machine.Pin
}

func NewIndicator() Indicator {
	p := machine.LED
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &ledIndicator{pin: p}
}

func (l *ledIndicator) Set(on bool) {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
}

// ----------------------------- Battery (rp2) ----------------------------------

// noBattery reports an unreadable gauge; the sleep policy then skips the
// battery branches.
type noBattery struct{}

func NewBattery() Battery { return noBattery{} }

func (noBattery) Status() types.BatteryStatus {
	return types.BatteryStatus{Percent: -1}
}

// ----------------------------- Clock / heap (rp2) -----------------------------

type mcuClock struct{}

func NewClock() Clock { return mcuClock{} }

func (mcuClock) Now() time.Time        { return time.Now() }
func (mcuClock) Sleep(d time.Duration) { time.Sleep(d) }

type mcuHeap struct{}

func NewHeap() Heap { return mcuHeap{} }

// The TinyGo runtime does not expose heap watermarks on rp2; report zeros.
func (mcuHeap) Free() uint32    { return 0 }
func (mcuHeap) MinFree() uint32 { return 0 }
