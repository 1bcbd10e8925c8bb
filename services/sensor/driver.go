// Package sensor reads the on-board temperature/humidity part during the
// SENSOR phase. The driver is a thin two-phase wrapper over an AHT20-class
// I2C device:
//
//	d.Trigger()                      // start a measurement (fast)
//	err := d.Collect(&deciC, &deciRH) // fetch when ready; ErrNotReady while busy
//
// Fixed point on the hot path: readings come back in deci-°C and deci-%RH.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package sensor

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

// Commands and status bits.
const (
	cmdTrigger = 0xAC
	cmdStatus  = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

// Errors returned by the driver.
var (
	ErrNotReady = errors.New("sensor: not ready")
	ErrProtocol = errors.New("sensor: protocol error")
)

// Driver wraps an I2C connection to the device.
type Driver struct {
	bus  drivers.I2C
	addr uint16
	buf  [7]byte // reuse buffer to avoid allocations
}

// NewDriver creates the connection object only; it does not touch hardware.
// The I2C bus must already be configured.
func NewDriver(bus drivers.I2C) *Driver {
	return &Driver{bus: bus, addr: Address}
}

// Trigger starts a measurement. Conversion takes ~80 ms; poll Collect.
func (d *Driver) Trigger() error {
	d.buf[0] = cmdTrigger
	d.buf[1] = 0x33
	d.buf[2] = 0x00
	return d.bus.Tx(d.addr, d.buf[:3], nil)
}

// Collect fetches the pending measurement. While the device is converting it
// returns ErrNotReady; callers poll at their own cadence within their phase
// budget.
func (d *Driver) Collect(deciC, deciRH *int32) error {
	if err := d.bus.Tx(d.addr, []byte{cmdStatus}, d.buf[:1]); err != nil {
		return err
	}
	if d.buf[0]&statusBusy != 0 {
		return ErrNotReady
	}
	if err := d.bus.Tx(d.addr, nil, d.buf[:7]); err != nil {
		return err
	}
	if d.buf[0]&statusCalibrated == 0 {
		return ErrProtocol
	}

	rawRH := uint32(d.buf[1])<<12 | uint32(d.buf[2])<<4 | uint32(d.buf[3])>>4
	rawT := uint32(d.buf[3]&0x0F)<<16 | uint32(d.buf[4])<<8 | uint32(d.buf[5])

	// deci-units without floats: RH% = raw/2^20*100, T°C = raw/2^20*200-50.
	*deciRH = int32((uint64(rawRH) * 1000) >> 20)
	*deciC = int32((uint64(rawT)*2000)>>20) - 500
	return nil
}
