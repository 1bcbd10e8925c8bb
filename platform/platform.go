// Package platform abstracts the handful of hardware primitives the node
// needs: a retention-memory region that survives sleep but not power loss,
// a wear-limited durable key/value cache, the reset controller, the sleep
// primitive, and a wall/monotonic clock. Everything above this package is
// portable; build-tagged files provide the host-simulation and rp2 variants.
package platform

import (
	"time"

	"sensornode-go/types"
)

// RetentionRegion is battery-backed memory. Contents survive deep sleep and
// soft resets but are wiped on power loss. Reads and writes are whole-region
// copies; the region is small enough that partial access is not worth an API.
type RetentionRegion interface {
	// Read copies the region into dst and returns the number of bytes copied.
	Read(dst []byte) int
	// Write copies src into the region and returns the number of bytes copied.
	Write(src []byte) int
	Size() int
}

// DurableCache is the flash-backed fallback store: string-keyed, typed,
// slower and wear-limited. Reads are cheap; writes land in flash only on
// Commit, which callers must rate-limit.
type DurableCache interface {
	GetFloat(key string) (float32, bool)
	SetFloat(key string, v float32)
	GetUint32(key string) (uint32, bool)
	SetUint32(key string, v uint32)
	GetUint16(key string) (uint16, bool)
	SetUint16(key string, v uint16)
	GetUint8(key string) (uint8, bool)
	SetUint8(key string, v uint8)
	Commit() error
}

// ResetSource reports how the current boot came about.
type ResetSource interface {
	Reason() types.ResetReason
}

// Power issues the terminal actions of a wake cycle. On real hardware
// neither call returns; the host simulation returns from Sleep so the wake
// loop can continue in-process.
type Power interface {
	// Sleep enters deep sleep with a wake timer armed for d.
	Sleep(d time.Duration)
	// Reboot resets the device immediately.
	Reboot()
}

// Battery samples the fuel gauge. Percent is -1 when unreadable.
type Battery interface {
	Status() types.BatteryStatus
}

// Indicator is a single LED used for the safe-mode blink pattern.
type Indicator interface {
	Set(on bool)
}

// Clock supplies time to the cycle controller. Phase budget checks and all
// cooperative waits go through it so tests can run on a fake clock.
type Clock interface {
	Now() time.Time
	// Sleep is a short cooperative pause, never a deep sleep.
	Sleep(d time.Duration)
}

// Heap reports allocator headroom for crash records. Implementations may
// return zeros where the runtime does not expose the numbers.
type Heap interface {
	Free() uint32
	MinFree() uint32
}
