package sensor

import "sync"

// SimBus emulates an AHT20-class part on the wire, for host simulation and
// tests. Set the ambient conditions; the fake answers the trigger/status/
// collect sequence like the real device, including a configurable number of
// busy polls.
type SimBus struct {
	mu sync.Mutex

	DeciC  int32
	DeciRH int32

	// BusyPolls is how many status reads report busy after each trigger.
	BusyPolls int
	busyLeft  int

	// Fail makes every transaction error out, simulating a dead bus.
	Fail error

	// Stuck makes the device report busy forever, for timeout tests.
	Stuck bool
}

func (b *SimBus) Set(deciC, deciRH int32) {
	b.mu.Lock()
	b.DeciC = deciC
	b.DeciRH = deciRH
	b.mu.Unlock()
}

func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Fail != nil {
		return b.Fail
	}

	switch {
	case len(w) == 3 && w[0] == cmdTrigger:
		b.busyLeft = b.BusyPolls
		return nil

	case len(w) == 1 && w[0] == cmdStatus && len(r) == 1:
		if b.Stuck || b.busyLeft > 0 {
			b.busyLeft--
			r[0] = statusBusy | statusCalibrated
		} else {
			r[0] = statusCalibrated
		}
		return nil

	case len(w) == 0 && len(r) == 7:
		// Invert the deci-unit conversion to produce raw counts. Round up so
		// the driver's floor division lands back on the exact deci value.
		rawRH := (uint64(b.DeciRH)<<20 + 999) / 1000
		rawT := (uint64(b.DeciC+500)<<20 + 1999) / 2000
		r[0] = statusCalibrated
		r[1] = byte(rawRH >> 12)
		r[2] = byte(rawRH >> 4)
		r[3] = byte(rawRH<<4) | byte(rawT>>16)&0x0F
		r[4] = byte(rawT >> 8)
		r[5] = byte(rawT)
		r[6] = 0 // crc unused
		return nil
	}
	return ErrProtocol
}
