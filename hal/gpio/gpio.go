// Package gpio models every pin as a typed handle whose mode is part of its
// type. Mode changes consume the old handle and return a new one, so a
// peripheral constructor can demand, for example, a
// Pin[Alternate[AF4, OpenDrain]] and reject anything else at compile time.
//
// Handles are plain values. Using one after it has been transitioned is
// detected at run time and halts with errcode.PinConsumed.
package gpio

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/rcc"
	"f7hal/x/arch"
	"f7hal/x/fmtx"
	"f7hal/x/mmio"
)

// Port identifies a GPIO port.
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
	PortH
	PortI
)

func (p Port) String() string { return "P" + string(rune('A'+p)) }

// ID names a physical pin.
type ID struct {
	Port Port
	Num  uint8
}

func (id ID) String() string { return fmtx.Sprintf("%s%d", id.Port.String(), id.Num) }

// PA .. PI build IDs for pin tables.
func PA(n uint8) ID { return ID{PortA, n} }
func PB(n uint8) ID { return ID{PortB, n} }
func PC(n uint8) ID { return ID{PortC, n} }
func PF(n uint8) ID { return ID{PortF, n} }
func PH(n uint8) ID { return ID{PortH, n} }

// port is the state shared by all pins of one port.
type port struct {
	regs *stm32.GPIO_Type
	id   Port
	gen  [16]uint32
}

// Pin is the handle of one pin in mode M.
type Pin[M Mode] struct {
	p   *port
	n   uint8
	gen uint32
}

// Parts holds the sixteen pins of a freshly split port.
type Parts struct {
	P0, P1, P2, P3, P4, P5, P6, P7       Pin[Input]
	P8, P9, P10, P11, P12, P13, P14, P15 Pin[Input]
}

var split [stm32.NumPorts]*stm32.GPIO_Type

// Split enables the clock of port id and hands out its pins. regs must be
// the block of port id, and a port can be split once.
func Split(regs *stm32.GPIO_Type, id Port, clocks *rcc.RCC) Parts {
	if int(id) >= len(split) {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, "gpio.split", id.String()))
		return Parts{}
	}
	if n, ok := stm32.GPIOIndex(regs); !ok || n != int(id) {
		arch.Halt(errcode.Wrap(errcode.InvalidConfig, "gpio.split", "registers are not "+id.String()))
		return Parts{}
	}
	if split[id] == regs {
		arch.Halt(errcode.Wrap(errcode.PeripheralTaken, "gpio.split", id.String()))
		return Parts{}
	}
	split[id] = regs
	clocks.EnableGPIO(uint8(id))

	p := &port{regs: regs, id: id}
	pin := func(n uint8) Pin[Input] { return Pin[Input]{p: p, n: n} }
	return Parts{
		pin(0), pin(1), pin(2), pin(3), pin(4), pin(5), pin(6), pin(7),
		pin(8), pin(9), pin(10), pin(11), pin(12), pin(13), pin(14), pin(15),
	}
}

func (p Pin[M]) ID() ID { return ID{p.p.id, p.n} }

// Valid reports whether p is still the live handle of its pin.
func (p Pin[M]) Valid() bool { return p.p != nil && p.p.gen[p.n] == p.gen }

func (p Pin[M]) check(op string) {
	if p.p == nil {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, op, "zero pin"))
		return
	}
	if !p.Valid() {
		arch.Halt(errcode.Wrap(errcode.PinConsumed, op, p.ID().String()))
	}
}

// retire invalidates p and returns the generation of its successor.
func (p Pin[M]) retire() uint32 {
	p.p.gen[p.n]++
	return p.p.gen[p.n]
}

func (p Pin[M]) IsHigh() bool {
	p.check("gpio.read")
	return p.p.regs.IDR.Get()&(1<<p.n) != 0
}

func (p Pin[M]) IsLow() bool { return !p.IsHigh() }

// field2 rewrites the 2-bit field of pin n in r.
func field2(r *mmio.Register32, n uint8, v uint32) { r.ReplaceBits(v, 0b11, 2*n) }
