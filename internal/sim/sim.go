//go:build !baremetal

// Package sim models the side effects of the STM32F7 blocks the HAL drives,
// on top of the host register file from device/stm32. Each block simulator
// attaches an mmio.Hook to its registers and appends to a shared event log
// so tests can assert ordering and critical-section coverage.
package sim

import (
	"f7hal/device/stm32"
	"f7hal/x/arch"
)

// Event is one observable hardware action.
type Event struct {
	Block    string
	What     string
	Critical bool // interrupts were masked when it happened
}

// Board is a simulated chip: a fresh peripheral set with every modelled
// block hooked up.
type Board struct {
	P *stm32.Peripherals

	RCC  *RCC
	I2C  [3]*I2C
	OTG  *OTG
	GPIO [stm32.NumPorts]*GPIO

	Events []Event
}

// NewBoard returns a powered-on chip in its reset state.
func NewBoard() *Board {
	b := &Board{P: stm32.Steal()}
	b.RCC = newRCC(b)
	b.I2C[0] = newI2C(b, b.P.I2C1, "i2c1")
	b.I2C[1] = newI2C(b, b.P.I2C2, "i2c2")
	b.I2C[2] = newI2C(b, b.P.I2C3, "i2c3")
	b.OTG = newOTG(b)
	for i := range b.GPIO {
		b.GPIO[i] = newGPIO(b, b.P.GPIO[i])
	}
	return b
}

func (b *Board) record(block, what string) {
	b.Events = append(b.Events, Event{Block: block, What: what, Critical: arch.InCritical()})
}

// Index returns the position of the first event named what in block, or -1.
func (b *Board) Index(block, what string) int {
	for i, e := range b.Events {
		if e.Block == block && e.What == what {
			return i
		}
	}
	return -1
}

// Find returns the first event named what in block.
func (b *Board) Find(block, what string) (Event, bool) {
	if i := b.Index(block, what); i >= 0 {
		return b.Events[i], true
	}
	return Event{}, false
}

// Count returns how many events named what were logged for block.
func (b *Board) Count(block, what string) int {
	n := 0
	for _, e := range b.Events {
		if e.Block == block && e.What == what {
			n++
		}
	}
	return n
}

// Reset clears the event log.
func (b *Board) Reset() { b.Events = b.Events[:0] }

func rose(old, v, bit uint32) bool { return old&bit == 0 && v&bit != 0 }
func fell(old, v, bit uint32) bool { return old&bit != 0 && v&bit == 0 }
