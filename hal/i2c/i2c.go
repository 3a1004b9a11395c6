// Package i2c drives the I2C controllers as a blocking bus master.
//
// Every wait on a status flag is bounded by an iteration count fixed at
// construction, so a missing or stuck target turns into an error instead of
// a hang. After any failed transaction the bus is left idle.
package i2c

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/gpio"
	"f7hal/hal/rcc"
	"f7hal/types"
	"f7hal/x/arch"
	"f7hal/x/fmtx"
	"f7hal/x/logx"

	"tinygo.org/x/drivers"
)

// ID selects a controller instance.
type ID uint8

const (
	I2C1 ID = 1
	I2C2 ID = 2
	I2C3 ID = 3
)

func (id ID) String() string { return fmtx.Sprintf("i2c%d", uint8(id)) }

// Pin is the mode an SCL or SDA pin must be in.
type Pin = gpio.Pin[gpio.Alternate[gpio.AF4, gpio.OpenDrain]]

// MaxTransfer is the longest single phase without reload handling.
const MaxTransfer = 255

// Pins that carry each signal (AF4 on the F72x/F73x).
var (
	sclPins = map[ID][]gpio.ID{
		I2C1: {gpio.PB(6), gpio.PB(8)},
		I2C2: {gpio.PB(10), gpio.PF(1), gpio.PH(4)},
		I2C3: {gpio.PA(8), gpio.PH(7)},
	}
	sdaPins = map[ID][]gpio.ID{
		I2C1: {gpio.PB(7), gpio.PB(9)},
		I2C2: {gpio.PB(11), gpio.PF(0), gpio.PH(5)},
		I2C3: {gpio.PC(9), gpio.PH(8)},
	}
)

func validPin(table []gpio.ID, id gpio.ID) bool {
	for _, p := range table {
		if p == id {
			return true
		}
	}
	return false
}

// BlockingI2C is an initialised controller in master mode.
type BlockingI2C struct {
	regs     *stm32.I2C_Type
	id       ID
	scl, sda Pin
	mode     Mode
	timingr  uint32
	timeout  uint32
}

var _ drivers.I2C = (*BlockingI2C)(nil)

// New enables and resets controller id, programs its timing from PCLK1 and
// turns it on. timeout bounds every flag poll, in iterations. Wrong pins, an
// unreachable bus speed or a zero timeout halt.
func New(regs *stm32.I2C_Type, id ID, scl, sda Pin, mode Mode, clocks rcc.Clocks, r *rcc.RCC, timeout uint32) *BlockingI2C {
	const op = "i2c.new"
	if !validPin(sclPins[id], scl.ID()) {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, op, id.String()+" scl on "+scl.ID().String()))
		return nil
	}
	if !validPin(sdaPins[id], sda.ID()) {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, op, id.String()+" sda on "+sda.ID().String()))
		return nil
	}
	if timeout == 0 {
		arch.Halt(errcode.Wrap(errcode.InvalidConfig, op, "zero timeout"))
		return nil
	}
	t, err := Timing(clocks.PCLK1(), mode)
	if err != nil {
		arch.Halt(err)
		return nil
	}

	r.EnableI2C(uint8(id))
	regs.CR1.ClearBits(stm32.I2C_CR1_PE)
	regs.TIMINGR.Set(t)
	regs.CR1.SetBits(stm32.I2C_CR1_PE)

	logx.Infof("i2c", "%s up: %s %d Hz, timingr=0x%08x", id.String(), mode.String(), uint32(SCLFreq(clocks.PCLK1(), t)), t)
	return &BlockingI2C{regs: regs, id: id, scl: scl, sda: sda, mode: mode, timingr: t, timeout: timeout}
}

// Release turns the controller off and hands its pins back.
func (i *BlockingI2C) Release() (scl, sda Pin) {
	i.regs.CR1.ClearBits(stm32.I2C_CR1_PE)
	return i.scl, i.sda
}

func (i *BlockingI2C) ID() ID                 { return i.id }
func (i *BlockingI2C) Mode() Mode             { return i.mode }
func (i *BlockingI2C) Timeout() uint32        { return i.timeout }
func (i *BlockingI2C) Frequency() types.Hertz { return i.mode.Freq }
func (i *BlockingI2C) TIMINGR() uint32        { return i.timingr }

// Write sends w to the target at addr.
func (i *BlockingI2C) Write(addr uint8, w []byte) error {
	e := opWrite
	if err := checkParams(addr, len(w)); err != nil {
		return err
	}
	if err := i.waitIdle(e); err != nil {
		return err
	}
	i.start(addr, len(w), false, true)
	if err := i.send(e, w); err != nil {
		return err
	}
	return i.finish(e, len(w))
}

// Read fills r from the target at addr.
func (i *BlockingI2C) Read(addr uint8, r []byte) error {
	e := opRead
	if err := checkParams(addr, len(r)); err != nil {
		return err
	}
	if err := i.waitIdle(e); err != nil {
		return err
	}
	i.start(addr, len(r), true, true)
	if err := i.receive(e, r); err != nil {
		return err
	}
	return i.finish(e, 0)
}

// WriteRead sends w, then reads r after a repeated START, without releasing
// the bus in between.
func (i *BlockingI2C) WriteRead(addr uint8, w, r []byte) error {
	e := opWriteRead
	if err := checkParams(addr, len(w)); err != nil {
		return err
	}
	if err := checkParams(addr, len(r)); err != nil {
		return err
	}
	if err := i.waitIdle(e); err != nil {
		return err
	}
	i.start(addr, len(w), false, false)
	if err := i.send(e, w); err != nil {
		return err
	}
	if err := i.wait(e, stm32.I2C_ISR_TC, len(w)); err != nil {
		return err
	}
	i.start(addr, len(r), true, true)
	if err := i.receive(e, r); err != nil {
		return err
	}
	return i.finish(e, 0)
}

// Tx implements drivers.I2C.
func (i *BlockingI2C) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errTenBit
	}
	switch {
	case len(w) > 0 && len(r) > 0:
		return i.WriteRead(uint8(addr), w, r)
	case len(w) > 0:
		return i.Write(uint8(addr), w)
	case len(r) > 0:
		return i.Read(uint8(addr), r)
	}
	return errEmpty
}

// opErrors holds every result one operation can fail with. They are built
// once so a failing transaction does not allocate.
type opErrors struct {
	name                     string
	addrNACK, dataNACK       *errcode.E
	timeout, busy, arlo, bus *errcode.E
}

func newOpErrors(op string) *opErrors {
	return &opErrors{
		name:     op,
		addrNACK: errcode.Wrap(errcode.AddressNACK, op, ""),
		dataNACK: errcode.Wrap(errcode.DataNACK, op, ""),
		timeout:  errcode.Wrap(errcode.Timeout, op, ""),
		busy:     errcode.Wrap(errcode.Timeout, op, "bus busy"),
		arlo:     errcode.Wrap(errcode.ArbitrationLost, op, ""),
		bus:      errcode.Wrap(errcode.BusError, op, ""),
	}
}

var (
	opWrite     = newOpErrors("i2c.write")
	opRead      = newOpErrors("i2c.read")
	opWriteRead = newOpErrors("i2c.write_read")

	errBadAddress = errcode.Wrap(errcode.InvalidParams, "i2c", "address above 0x7f")
	errEmpty      = errcode.Wrap(errcode.InvalidParams, "i2c", "empty buffer")
	errTooLong    = errcode.Wrap(errcode.InvalidParams, "i2c", "transfer longer than 255 bytes")
	errTenBit     = errcode.Wrap(errcode.InvalidParams, "i2c.tx", "10-bit address")
)

func checkParams(addr uint8, n int) error {
	switch {
	case addr > 0x7F:
		return errBadAddress
	case n == 0:
		return errEmpty
	case n > MaxTransfer:
		return errTooLong
	}
	return nil
}

// start programs the phase and issues START (or a repeated START when the
// previous phase ended without STOP).
func (i *BlockingI2C) start(addr uint8, n int, read, autoend bool) {
	cr2 := uint32(addr)<<1<<stm32.I2C_CR2_SADD_Pos |
		uint32(n)<<stm32.I2C_CR2_NBYTES_Pos |
		stm32.I2C_CR2_START
	if read {
		cr2 |= stm32.I2C_CR2_RD_WRN
	}
	if autoend {
		cr2 |= stm32.I2C_CR2_AUTOEND
	}
	i.regs.CR2.Set(cr2)
}

func (i *BlockingI2C) send(e *opErrors, w []byte) error {
	for k, b := range w {
		if err := i.wait(e, stm32.I2C_ISR_TXIS, k); err != nil {
			return err
		}
		i.regs.TXDR.Set(uint32(b))
	}
	return nil
}

func (i *BlockingI2C) receive(e *opErrors, r []byte) error {
	for k := range r {
		if err := i.wait(e, stm32.I2C_ISR_RXNE, 0); err != nil {
			return err
		}
		r[k] = byte(i.regs.RXDR.Get())
	}
	return nil
}

// finish waits for the automatic STOP and clears it.
func (i *BlockingI2C) finish(e *opErrors, sent int) error {
	if err := i.wait(e, stm32.I2C_ISR_STOPF, sent); err != nil {
		return err
	}
	i.regs.ICR.Set(stm32.I2C_ICR_STOPCF)
	return nil
}

func (i *BlockingI2C) waitIdle(e *opErrors) error {
	for n := uint32(0); n < i.timeout; n++ {
		if !i.regs.ISR.HasBits(stm32.I2C_ISR_BUSY) {
			return nil
		}
	}
	i.recoverBus()
	return e.busy
}

const errorFlags = stm32.I2C_ISR_NACKF | stm32.I2C_ISR_ARLO | stm32.I2C_ISR_BERR

// wait polls until flag is set. sent is how many bytes of the current write
// phase the target has been given, which tells an address NACK from a data
// NACK.
func (i *BlockingI2C) wait(e *opErrors, flag uint32, sent int) error {
	for n := uint32(0); n < i.timeout; n++ {
		isr := i.regs.ISR.Get()
		if isr&errorFlags != 0 {
			return i.fail(e, isr, sent)
		}
		if isr&flag != 0 {
			return nil
		}
	}
	if logx.Enabled(logx.LevelDebug) {
		logx.Debugf("i2c", "%s: timeout isr=0x%08x", e.name, i.regs.ISR.Get())
	}
	i.recoverBus()
	return e.timeout
}

func (i *BlockingI2C) fail(e *opErrors, isr uint32, sent int) error {
	switch {
	case isr&stm32.I2C_ISR_ARLO != 0:
		// The controller has already dropped off the bus.
		i.regs.ICR.Set(stm32.I2C_ICR_ARLOCF | stm32.I2C_ICR_NACKCF | stm32.I2C_ICR_STOPCF)
		return e.arlo
	case isr&stm32.I2C_ISR_BERR != 0:
		i.regs.ICR.Set(stm32.I2C_ICR_BERRCF | stm32.I2C_ICR_NACKCF | stm32.I2C_ICR_STOPCF)
		i.recoverBus()
		return e.bus
	}
	// NACK: the controller sends STOP on its own; make sure it happened.
	i.recoverBus()
	if sent == 0 {
		return e.addrNACK
	}
	return e.dataNACK
}

// recoverBus puts the bus back to idle: STOP if the controller still holds
// it, flags cleared, and a peripheral reset if it still reports busy.
func (i *BlockingI2C) recoverBus() {
	isr := i.regs.ISR.Get()
	if isr&stm32.I2C_ISR_STOPF == 0 && isr&stm32.I2C_ISR_BUSY != 0 {
		i.regs.CR2.SetBits(stm32.I2C_CR2_STOP)
		for n := uint32(0); n < i.timeout; n++ {
			if i.regs.ISR.HasBits(stm32.I2C_ISR_STOPF) {
				break
			}
		}
	}
	i.regs.ICR.Set(stm32.I2C_ICR_NACKCF | stm32.I2C_ICR_STOPCF | stm32.I2C_ICR_BERRCF | stm32.I2C_ICR_ARLOCF | stm32.I2C_ICR_OVRCF)
	if i.regs.ISR.HasBits(stm32.I2C_ISR_BUSY) {
		i.regs.CR1.ClearBits(stm32.I2C_CR1_PE)
		i.regs.CR1.SetBits(stm32.I2C_CR1_PE)
	}
}
