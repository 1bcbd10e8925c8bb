// Package bufpool is a fixed-slab scratch allocator: three size classes,
// a handful of slots each, a bitmask of what is checked out. Nothing grows,
// nothing blocks, and a bad release is counted instead of trusted. On a
// controller without a general-purpose heap this is the whole allocation
// story for cycle-scoped byte buffers.
package bufpool

// Class selects a buffer size class.
type Class uint8

const (
	Small Class = iota
	Medium
	Large
	numClasses
)

func (c Class) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return "invalid"
	}
}

// Size classes and capacities are build-time constants.
const (
	SmallSize  = 64
	MediumSize = 256
	LargeSize  = 1024

	SmallSlots  = 4
	MediumSlots = 4
	LargeSlots  = 2
)

// Handle identifies an acquired slot by (class, index) rather than by raw
// pointer, preserving double-release and foreign-release detection without
// address arithmetic.
type Handle struct {
	class Class
	index uint8
}

func (h Handle) Class() Class { return h.class }

type class struct {
	size  int
	slots int
	inUse uint32 // bitmask, bit i set = slot i checked out
	buf   [][]byte

	acquired uint32
	released uint32
}

// Pool owns the slabs. Single execution context; no locking.
type Pool struct {
	classes [numClasses]class

	failures        uint32
	invalidReleases uint32
}

func New() *Pool {
	p := &Pool{}
	mk := func(c Class, size, slots int) {
		cl := &p.classes[c]
		cl.size = size
		cl.slots = slots
		cl.buf = make([][]byte, slots)
		for i := range cl.buf {
			cl.buf[i] = make([]byte, size)
		}
	}
	mk(Small, SmallSize, SmallSlots)
	mk(Medium, MediumSize, MediumSlots)
	mk(Large, LargeSize, LargeSlots)
	return p
}

// Acquire returns a scratch buffer of at least n bytes from the smallest
// class that fits, or ok=false when the class is exhausted or n exceeds the
// largest class. Never blocks, never grows a pool; every failure bumps the
// failure counter.
func (p *Pool) Acquire(n int) (Handle, []byte, bool) {
	for c := Small; c < numClasses; c++ {
		cl := &p.classes[c]
		if n > cl.size {
			continue
		}
		for i := 0; i < cl.slots; i++ {
			bit := uint32(1) << uint(i)
			if cl.inUse&bit == 0 {
				cl.inUse |= bit
				cl.acquired++
				return Handle{class: c, index: uint8(i)}, cl.buf[i][:0], true
			}
		}
		// Class full: a larger class is not a substitute; callers sized
		// their request.
		p.failures++
		return Handle{}, nil, false
	}
	p.failures++
	return Handle{}, nil, false
}

// Release returns a slot. Three outcomes: an in-use slot is freed; a slot
// that is not in use (double release) is counted and ignored; a handle that
// matches no managed slot (foreign) is counted and ignored. The latter two
// are indistinguishable in effect.
func (p *Pool) Release(h Handle) {
	if h.class >= numClasses {
		p.invalidReleases++
		return
	}
	cl := &p.classes[h.class]
	if int(h.index) >= cl.slots {
		p.invalidReleases++
		return
	}
	bit := uint32(1) << uint(h.index)
	if cl.inUse&bit == 0 {
		p.invalidReleases++
		return
	}
	cl.inUse &^= bit
	cl.released++
}

// InUse reports checked-out slots in one class.
func (p *Pool) InUse(c Class) int {
	if c >= numClasses {
		return 0
	}
	n := 0
	for mask := p.classes[c].inUse; mask != 0; mask &= mask - 1 {
		n++
	}
	return n
}
