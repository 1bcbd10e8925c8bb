// Package crashdiag classifies how the device arrived at the current boot,
// keeps a checksummed crash record in retention memory, and detects rapid
// reset loops. An invalid record is never an error: bad magic or a failed
// checksum simply means "no crash info available".
package crashdiag

import (
	"encoding/binary"
	"hash/crc32"

	"sensornode-go/platform"
	"sensornode-go/retain"
	"sensornode-go/types"
)

const (
	recordMagic = 0x43525231 // "CRR1"

	// RegionSize is the number of retention bytes the crash record needs.
	RegionSize = 64

	lastFunctionLen = 24
)

// Rapid-reset policy constants, empirically chosen for the hardware.
// Preserved as configuration rather than re-derived.
const (
	DefaultMaxCrashes = 3
	DefaultWindowSec  = 30
)

// BootClass is the outcome of reset classification.
type BootClass uint8

const (
	BootNormal BootClass = iota
	BootPowerOn
	BootCrash
	BootUnknown
)

func (c BootClass) String() string {
	switch c {
	case BootNormal:
		return "normal"
	case BootPowerOn:
		return "power_on"
	case BootCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// Record is the persisted crash record. Trusted only when Magic matches and
// the checksum over all preceding fields equals Checksum.
type Record struct {
	Magic        uint32
	BootCount    uint32
	CrashCount   uint32
	CrashTSsec   int64
	FaultAddr    uint32
	ResetReason  uint8
	LastFunction [lastFunctionLen]byte
	FreeHeap     uint32
	MinFreeHeap  uint32
	Checksum     uint32
}

// LoopConfig tunes rapid-reset detection.
type LoopConfig struct {
	MaxCrashes uint32
	WindowSec  int64
}

// Diagnostics owns the crash record region and the retained boot/crash
// counters. Single execution context; no locking.
type Diagnostics struct {
	region platform.RetentionRegion
	heap   platform.Heap
	store  *retain.Store
	cfg    LoopConfig

	rec      Record
	recValid bool

	// Boot timestamp of the previous boot, captured before ClassifyBoot
	// overwrites it. Rapid-loop detection measures against this.
	prevBootTS int64
}

func New(region platform.RetentionRegion, heap platform.Heap, store *retain.Store, cfg LoopConfig) *Diagnostics {
	if cfg.MaxCrashes == 0 {
		cfg.MaxCrashes = DefaultMaxCrashes
	}
	if cfg.WindowSec == 0 {
		cfg.WindowSec = DefaultWindowSec
	}
	return &Diagnostics{region: region, heap: heap, store: store, cfg: cfg}
}

// ClassifyBoot maps the raw reset reason to a boot class and updates the
// retained counters. This is the one place a power loss is operationally
// detected: on BootPowerOn both the retained state and the crash record are
// reset to defaults.
func (d *Diagnostics) ClassifyBoot(reason types.ResetReason, nowSec int64) BootClass {
	d.recValid = d.loadRecord()

	class := classify(reason)

	f := d.store.Fields()
	d.prevBootTS = f.LastBootTimestamp

	switch class {
	case BootPowerOn:
		d.store.Reset()
		d.ClearRecord()
		f = d.store.Fields()
	case BootCrash:
		f.BootCount++
		f.CrashCount++
		d.rec.BootCount = f.BootCount
		d.rec.CrashCount = f.CrashCount
		d.rec.ResetReason = uint8(reason)
		if d.rec.CrashTSsec == 0 {
			d.rec.CrashTSsec = nowSec
		}
		d.persistRecord()
	default:
		f.BootCount++
	}

	f.LastResetReason = uint8(reason)
	f.LastBootTimestamp = nowSec
	return class
}

func classify(reason types.ResetReason) BootClass {
	switch reason {
	case types.ResetPowerOn:
		return BootPowerOn
	case types.ResetWatchdog, types.ResetPanic, types.ResetBrownout:
		return BootCrash
	case types.ResetDeepSleep, types.ResetSoftware, types.ResetExternal:
		return BootNormal
	default:
		return BootUnknown
	}
}

// IsRapidResetLoop reports whether the device is crash-looping faster than
// it can recover: crash_count at or past the ceiling AND the previous boot
// was under the window ago.
func (d *Diagnostics) IsRapidResetLoop(nowSec int64) bool {
	f := d.store.Fields()
	if f.CrashCount < d.cfg.MaxCrashes {
		return false
	}
	if d.prevBootTS == 0 {
		return false
	}
	return nowSec-d.prevBootTS < d.cfg.WindowSec
}

// RecordCrashContext writes a best-effort breadcrumb before a higher-risk
// operation. Cheap enough to call at every phase entry.
func (d *Diagnostics) RecordCrashContext(fn string) {
	var name [lastFunctionLen]byte
	copy(name[:], fn)
	d.rec.Magic = recordMagic
	d.rec.LastFunction = name
	if d.heap != nil {
		d.rec.FreeHeap = d.heap.Free()
		d.rec.MinFreeHeap = d.heap.MinFree()
	}
	d.persistRecord()
}

// Validate recomputes the checksum over all fields except the checksum
// itself. False means "no crash info", identically to a missing record.
func (d *Diagnostics) Validate() bool {
	return d.recValid && d.rec.Magic == recordMagic
}

// Record returns the in-memory crash record (valid only if Validate()).
func (d *Diagnostics) Record() Record { return d.rec }

// ClearRecord wipes the persisted record, typically after it was reported.
func (d *Diagnostics) ClearRecord() {
	d.rec = Record{}
	zero := make([]byte, RegionSize)
	d.region.Write(zero)
	d.recValid = false
}

// ----------------------------- codec ------------------------------------------

const bodyLen = 4 + 4 + 4 + 8 + 4 + 1 + lastFunctionLen + 4 + 4

func (d *Diagnostics) persistRecord() {
	d.rec.Magic = recordMagic

	buf := make([]byte, 0, RegionSize)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.Magic)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.BootCount)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.CrashCount)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(d.rec.CrashTSsec))
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.FaultAddr)
	buf = append(buf, d.rec.ResetReason)
	buf = append(buf, d.rec.LastFunction[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.FreeHeap)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.MinFreeHeap)

	d.rec.Checksum = crc32.ChecksumIEEE(buf)
	buf = binary.LittleEndian.AppendUint32(buf, d.rec.Checksum)
	d.region.Write(buf)
	d.recValid = true
}

func (d *Diagnostics) loadRecord() bool {
	buf := make([]byte, d.region.Size())
	n := d.region.Read(buf)
	if n < bodyLen+4 {
		return false
	}

	body := buf[:bodyLen]
	stored := binary.LittleEndian.Uint32(buf[bodyLen:])
	if crc32.ChecksumIEEE(body) != stored {
		return false
	}
	if binary.LittleEndian.Uint32(body) != recordMagic {
		return false
	}

	r := Record{}
	r.Magic = binary.LittleEndian.Uint32(body[0:])
	r.BootCount = binary.LittleEndian.Uint32(body[4:])
	r.CrashCount = binary.LittleEndian.Uint32(body[8:])
	r.CrashTSsec = int64(binary.LittleEndian.Uint64(body[12:]))
	r.FaultAddr = binary.LittleEndian.Uint32(body[20:])
	r.ResetReason = body[24]
	copy(r.LastFunction[:], body[25:25+lastFunctionLen])
	r.FreeHeap = binary.LittleEndian.Uint32(body[25+lastFunctionLen:])
	r.MinFreeHeap = binary.LittleEndian.Uint32(body[29+lastFunctionLen:])
	r.Checksum = stored
	d.rec = r
	return true
}
