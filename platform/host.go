// platform/host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"encoding/json"
	"os"
	"runtime"
	"sync"
	"time"

	"sensornode-go/types"
)

// ----------------------------- Retention (host) -------------------------------

// SimRetention is an in-memory retention region. PowerLoss wipes it, which is
// exactly what a cold boot does to the real thing.
type SimRetention struct {
	buf []byte
}

func NewSimRetention(size int) *SimRetention {
	return &SimRetention{buf: make([]byte, size)}
}

func (r *SimRetention) Read(dst []byte) int  { return copy(dst, r.buf) }
func (r *SimRetention) Write(src []byte) int { return copy(r.buf, src) }
func (r *SimRetention) Size() int            { return len(r.buf) }

// PowerLoss simulates a cold boot: all retained bytes are zeroed.
func (r *SimRetention) PowerLoss() {
	for i := range r.buf {
		r.buf[i] = 0
	}
}

// Corrupt flips one bit, for integrity tests.
func (r *SimRetention) Corrupt(byteIdx int, bit uint) {
	if byteIdx >= 0 && byteIdx < len(r.buf) {
		r.buf[byteIdx] ^= 1 << (bit & 7)
	}
}

// ----------------------------- Durable cache (host) ---------------------------

// FileDurable is a JSON-file-backed DurableCache. A malformed or missing file
// reads as an empty cache; corruption is absence, never an error.
type FileDurable struct {
	path string
	vals map[string]float64
}

func NewFileDurable(path string) *FileDurable {
	d := &FileDurable{path: path, vals: map[string]float64{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return d
	}
	var m map[string]float64
	if json.Unmarshal(raw, &m) == nil && m != nil {
		d.vals = m
	}
	return d
}

func (d *FileDurable) GetFloat(key string) (float32, bool) {
	v, ok := d.vals[key]
	return float32(v), ok
}
func (d *FileDurable) SetFloat(key string, v float32) { d.vals[key] = float64(v) }

func (d *FileDurable) GetUint32(key string) (uint32, bool) {
	v, ok := d.vals[key]
	return uint32(v), ok
}
func (d *FileDurable) SetUint32(key string, v uint32) { d.vals[key] = float64(v) }

func (d *FileDurable) GetUint16(key string) (uint16, bool) {
	v, ok := d.vals[key]
	return uint16(v), ok
}
func (d *FileDurable) SetUint16(key string, v uint16) { d.vals[key] = float64(v) }

func (d *FileDurable) GetUint8(key string) (uint8, bool) {
	v, ok := d.vals[key]
	return uint8(v), ok
}
func (d *FileDurable) SetUint8(key string, v uint8) { d.vals[key] = float64(v) }

func (d *FileDurable) Commit() error {
	if d.path == "" {
		return nil
	}
	b, err := json.Marshal(d.vals)
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, b, 0o644)
}

// MemDurable is FileDurable without the file, for tests.
func NewMemDurable() *FileDurable {
	return &FileDurable{vals: map[string]float64{}}
}

// ----------------------------- Reset source (host) ----------------------------

// SimResetSource reports whatever reason the simulation set before "boot".
type SimResetSource struct {
	R types.ResetReason
}

func (s *SimResetSource) Reason() types.ResetReason {
	if s.R == 0 {
		return types.ResetUnknown
	}
	return s.R
}

// ----------------------------- Power (host) -----------------------------------

// SimPower records the terminal action instead of performing it, so the host
// wake loop can keep running in-process.
type SimPower struct {
	LastSleep time.Duration
	Sleeps    int
	Reboots   int
	// OnSleep, if set, is called with the armed wake interval.
	OnSleep func(d time.Duration)
}

func (p *SimPower) Sleep(d time.Duration) {
	p.LastSleep = d
	p.Sleeps++
	if p.OnSleep != nil {
		p.OnSleep(d)
	}
}

func (p *SimPower) Reboot() { p.Reboots++ }

// ----------------------------- Battery (host) ---------------------------------

// SimBattery returns a settable status; DrainPerWake lowers the percentage on
// every read to exercise the low/critical policy branches over long runs.
type SimBattery struct {
	S            types.BatteryStatus
	DrainPerWake int
}

func (b *SimBattery) Status() types.BatteryStatus {
	s := b.S
	if b.DrainPerWake > 0 && b.S.Percent > 0 {
		b.S.Percent -= b.DrainPerWake
		if b.S.Percent < 0 {
			b.S.Percent = 0
		}
	}
	return s
}

// ----------------------------- Indicator (host) -------------------------------

// PrintIndicator logs LED transitions.
type PrintIndicator struct {
	On bool
}

func (i *PrintIndicator) Set(on bool) {
	if on != i.On {
		println("[indicator]", boolStr(on))
	}
	i.On = on
}

func boolStr(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// ----------------------------- Clocks -----------------------------------------

// WallClock is the real thing.
type WallClock struct{}

func (WallClock) Now() time.Time        { return time.Now() }
func (WallClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock advances only when someone sleeps on it. Deterministic phase
// budget tests run on this.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ----------------------------- Heap (host) ------------------------------------

// HostHeap reports Go runtime numbers. Close enough for report plumbing.
type HostHeap struct {
	min uint32
}

func (h *HostHeap) Free() uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	free := uint32(ms.HeapIdle)
	if h.min == 0 || free < h.min {
		h.min = free
	}
	return free
}

func (h *HostHeap) MinFree() uint32 {
	if h.min == 0 {
		return h.Free()
	}
	return h.min
}
