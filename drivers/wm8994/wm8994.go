// Package wm8994 is a register-level driver for the Wolfson WM8994 audio
// codec found on the STM32F7 discovery boards.
//
// Control is I2C with 16-bit register addresses and 16-bit values, both
// sent MSB first. Only identification and headphone volume are covered.
package wm8994

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address is the 7-bit bus address with CS/ADDR tied low.
const Address = 0x1A

// DeviceID is what RegID reads back.
const DeviceID = 0x8994

const (
	RegID         = 0x0000 // read: device ID, write: software reset
	RegPower1     = 0x0001
	RegHPOut1LVol = 0x001C
	RegHPOut1RVol = 0x001D
)

// Headphone volume register fields.
const (
	VolumeUpdate = 1 << 8
	ZeroCross    = 1 << 7
	Unmute       = 1 << 6
	VolumeMask   = 0x3F

	// 0 dB; each step below is 1 dB down to -57 dB at 0.
	Volume0dB = 0x39
)

var ErrNotWM8994 = errors.New("wm8994: unexpected device id")

type Device struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [4]byte
	r [2]byte
}

func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: Address}
}

// Connected reads the ID register and checks it.
func (d *Device) Connected() (bool, error) {
	id, err := d.ReadRegister(RegID)
	if err != nil {
		return false, err
	}
	return id == DeviceID, nil
}

// Configure verifies the part identifies as a WM8994.
func (d *Device) Configure() error {
	ok, err := d.Connected()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotWM8994
	}
	return nil
}

// Reset issues a software reset. All registers return to their defaults.
func (d *Device) Reset() error { return d.WriteRegister(RegID, 0) }

// ReadRegister reads one 16-bit register with a repeated start.
func (d *Device) ReadRegister(reg uint16) (uint16, error) {
	d.w[0] = byte(reg >> 8)
	d.w[1] = byte(reg)
	if err := d.bus.Tx(d.addr, d.w[:2], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

// WriteRegister writes one 16-bit register in a single transfer.
func (d *Device) WriteRegister(reg, val uint16) error {
	d.w[0] = byte(reg >> 8)
	d.w[1] = byte(reg)
	d.w[2] = byte(val >> 8)
	d.w[3] = byte(val)
	return d.bus.Tx(d.addr, d.w[:4], nil)
}

// Volume returns the left headphone volume register.
func (d *Device) Volume() (uint16, error) { return d.ReadRegister(RegHPOut1LVol) }

// SetVolume writes the raw left headphone volume register.
func (d *Device) SetVolume(v uint16) error { return d.WriteRegister(RegHPOut1LVol, v) }

// SetHeadphoneVolume sets both headphone channels to step (0..0x3F),
// unmuted, latching the pair on the right-channel write.
func (d *Device) SetHeadphoneVolume(step uint8) error {
	v := uint16(step)&VolumeMask | Unmute
	if err := d.WriteRegister(RegHPOut1LVol, v); err != nil {
		return err
	}
	return d.WriteRegister(RegHPOut1RVol, v|VolumeUpdate)
}
