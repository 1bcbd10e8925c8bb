// Package retain is the single source of truth for "what did we observe and
// do last cycle". Fields live in a retention-memory region that survives
// deep sleep but not power loss; a flash-backed durable cache backfills
// sentinel fields after a cold boot, and only sentinel fields — the durable
// cache always lags retention memory and must never overwrite a fresher
// retained value.
package retain

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"sensornode-go/platform"
)

const (
	regionMagic   = 0x534E5231 // "SNR1"
	regionVersion = 1

	// RegionSize is the number of retention bytes the store needs.
	RegionSize = 96
)

// Sentinels. Every field has a well-defined "unset" value.
const (
	UnsetIcon   = 0xFF
	UnsetReason = 0xFF
)

// UnsetFloat returns the float sentinel (NaN).
func UnsetFloat() float32 { return math.Float32frombits(0x7FC00000) }

// IsUnset reports whether a float field is at its sentinel.
func IsUnset(f float32) bool { return f != f }

// Fields is the full retained-state record. Access is direct and unvalidated;
// validation is the caller's job.
type Fields struct {
	WakeCount            uint32
	PartialUpdateCounter uint16

	LastInsideTemp      float32
	LastInsideHumidity  float32
	LastOutsideTemp     float32
	LastOutsideHumidity float32
	LastIconID          uint8

	LastStatusFingerprint  uint32
	LastWeatherFingerprint uint32

	LastPublishedTemp     float32
	LastPublishedHumidity float32
	LastPublishedPressure float32

	RenderModeFullOnly     bool
	NeedsFullRefreshOnBoot bool

	BootCount           uint32
	CrashCount          uint32
	CumulativeUptimeSec uint32
	LastBootTimestamp   int64
	LastResetReason     uint8
}

// Store binds Fields to a retention region.
type Store struct {
	region platform.RetentionRegion
	f      Fields
}

func New(region platform.RetentionRegion) *Store {
	s := &Store{region: region}
	s.Reset()
	return s
}

// Fields exposes the retained record for direct typed access.
func (s *Store) Fields() *Fields { return &s.f }

// Reset puts every field at its sentinel/default. Called on power-on boots.
func (s *Store) Reset() {
	s.f = Fields{
		LastInsideTemp:         UnsetFloat(),
		LastInsideHumidity:     UnsetFloat(),
		LastOutsideTemp:        UnsetFloat(),
		LastOutsideHumidity:    UnsetFloat(),
		LastIconID:             UnsetIcon,
		LastPublishedTemp:      UnsetFloat(),
		LastPublishedHumidity:  UnsetFloat(),
		LastPublishedPressure:  UnsetFloat(),
		NeedsFullRefreshOnBoot: true,
		LastResetReason:        UnsetReason,
	}
}

// Load decodes the retention region. It returns false — after resetting the
// fields to defaults — when the region is short, unversioned, or fails the
// integrity check. A garbled region is absence, not an error.
func (s *Store) Load() bool {
	buf := make([]byte, s.region.Size())
	n := s.region.Read(buf)
	if n < RegionSize {
		s.Reset()
		return false
	}
	buf = buf[:RegionSize]

	body := buf[:RegionSize-4]
	want := binary.LittleEndian.Uint32(buf[RegionSize-4:])
	if crc32.ChecksumIEEE(body) != want {
		s.Reset()
		return false
	}
	if binary.LittleEndian.Uint32(body[0:]) != regionMagic || body[4] != regionVersion {
		s.Reset()
		return false
	}

	r := reader{buf: body, off: 5}
	f := &s.f
	f.WakeCount = r.u32()
	f.PartialUpdateCounter = r.u16()
	f.LastInsideTemp = r.f32()
	f.LastInsideHumidity = r.f32()
	f.LastOutsideTemp = r.f32()
	f.LastOutsideHumidity = r.f32()
	f.LastIconID = r.u8()
	f.LastStatusFingerprint = r.u32()
	f.LastWeatherFingerprint = r.u32()
	f.LastPublishedTemp = r.f32()
	f.LastPublishedHumidity = r.f32()
	f.LastPublishedPressure = r.f32()
	f.RenderModeFullOnly = r.u8() != 0
	f.NeedsFullRefreshOnBoot = r.u8() != 0
	f.BootCount = r.u32()
	f.CrashCount = r.u32()
	f.CumulativeUptimeSec = r.u32()
	f.LastBootTimestamp = int64(r.u64())
	f.LastResetReason = r.u8()
	return true
}

// Persist encodes the fields and writes the region. Retention writes are
// immediate and unconditional; rate limiting applies only to the durable
// cache.
func (s *Store) Persist() {
	buf := make([]byte, 0, RegionSize)
	buf = binary.LittleEndian.AppendUint32(buf, regionMagic)
	buf = append(buf, regionVersion)

	f := &s.f
	buf = binary.LittleEndian.AppendUint32(buf, f.WakeCount)
	buf = binary.LittleEndian.AppendUint16(buf, f.PartialUpdateCounter)
	buf = appendF32(buf, f.LastInsideTemp)
	buf = appendF32(buf, f.LastInsideHumidity)
	buf = appendF32(buf, f.LastOutsideTemp)
	buf = appendF32(buf, f.LastOutsideHumidity)
	buf = append(buf, f.LastIconID)
	buf = binary.LittleEndian.AppendUint32(buf, f.LastStatusFingerprint)
	buf = binary.LittleEndian.AppendUint32(buf, f.LastWeatherFingerprint)
	buf = appendF32(buf, f.LastPublishedTemp)
	buf = appendF32(buf, f.LastPublishedHumidity)
	buf = appendF32(buf, f.LastPublishedPressure)
	buf = append(buf, b2u(f.RenderModeFullOnly), b2u(f.NeedsFullRefreshOnBoot))
	buf = binary.LittleEndian.AppendUint32(buf, f.BootCount)
	buf = binary.LittleEndian.AppendUint32(buf, f.CrashCount)
	buf = binary.LittleEndian.AppendUint32(buf, f.CumulativeUptimeSec)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(f.LastBootTimestamp))
	buf = append(buf, f.LastResetReason)

	// Pad the body out to a fixed length so the checksum slot is stable.
	for len(buf) < RegionSize-4 {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf[:RegionSize-4]))
	s.region.Write(buf)
}

func appendF32(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}
func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}
func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}
func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}
func (r *reader) f32() float32 { return math.Float32frombits(r.u32()) }
