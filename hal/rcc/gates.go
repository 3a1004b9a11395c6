package rcc

import (
	"f7hal/x/arch"
	"f7hal/x/mmio"
)

// Bus is the bus a peripheral clock gate sits on.
type Bus uint8

const (
	AHB1 Bus = iota
	AHB2
	APB1
	APB2
)

// Gate is one peripheral's enable and reset bit. The bit index is the same in
// the ENR and RSTR register of its bus.
type Gate struct {
	Bus Bus
	Bit uint8
}

var (
	GateI2C1      = Gate{APB1, 21}
	GateI2C2      = Gate{APB1, 22}
	GateI2C3      = Gate{APB1, 23}
	GatePWR       = Gate{APB1, 28}
	GateOTGFS     = Gate{AHB2, 7}
	GateOTGHS     = Gate{AHB1, 29}
	GateOTGHSULPI = Gate{AHB1, 30}
	GateUSBPHYC   = Gate{APB2, 31}
)

// GateGPIO returns the gate of GPIO port n (0 is GPIOA).
func GateGPIO(n uint8) Gate { return Gate{AHB1, n} }

func (r *RCC) regsOf(b Bus) (enr, rstr *mmio.Register32) {
	switch b {
	case AHB2:
		return &r.regs.AHB2ENR, &r.regs.AHB2RSTR
	case APB1:
		return &r.regs.APB1ENR, &r.regs.APB1RSTR
	case APB2:
		return &r.regs.APB2ENR, &r.regs.APB2RSTR
	default:
		return &r.regs.AHB1ENR, &r.regs.AHB1RSTR
	}
}

// Enable turns the peripheral clock on.
func (r *RCC) Enable(g Gate) {
	enr, _ := r.regsOf(g.Bus)
	arch.Critical(func() { enr.SetBits(1 << g.Bit) })
}

// Disable turns the peripheral clock off.
func (r *RCC) Disable(g Gate) {
	enr, _ := r.regsOf(g.Bus)
	arch.Critical(func() { enr.ClearBits(1 << g.Bit) })
}

// Reset pulses the peripheral reset line.
func (r *RCC) Reset(g Gate) {
	_, rstr := r.regsOf(g.Bus)
	arch.Critical(func() {
		rstr.SetBits(1 << g.Bit)
		rstr.ClearBits(1 << g.Bit)
	})
}

// EnableReset turns the clock on and pulses reset in one critical section,
// the usual first step of a peripheral constructor.
func (r *RCC) EnableReset(g Gate) {
	enr, rstr := r.regsOf(g.Bus)
	arch.Critical(func() {
		enr.SetBits(1 << g.Bit)
		rstr.SetBits(1 << g.Bit)
		rstr.ClearBits(1 << g.Bit)
	})
}

func (r *RCC) Enabled(g Gate) bool {
	enr, _ := r.regsOf(g.Bus)
	return enr.HasBits(1 << g.Bit)
}

// EnableGPIO turns on the clock of GPIO port n.
func (r *RCC) EnableGPIO(n uint8) { r.Enable(GateGPIO(n)) }

// EnableI2C enables and resets I2C instance n (1..3).
func (r *RCC) EnableI2C(n uint8) {
	switch n {
	case 1:
		r.EnableReset(GateI2C1)
	case 2:
		r.EnableReset(GateI2C2)
	case 3:
		r.EnableReset(GateI2C3)
	}
}
