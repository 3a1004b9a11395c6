//go:build !baremetal

package sim

import (
	"strconv"

	"f7hal/device/stm32"
	"f7hal/x/mmio"
)

// GPIO simulates one port: BSRR drives ODR, and IDR reflects ODR for output
// pins and the externally applied level for everything else.
type GPIO struct {
	b *Board
	r *stm32.GPIO_Type

	external uint16
}

func newGPIO(b *Board, r *stm32.GPIO_Type) *GPIO {
	g := &GPIO{b: b, r: r}
	for _, reg := range []*mmio.Register32{&r.MODER, &r.OTYPER, &r.OSPEEDR, &r.PUPDR, &r.AFRL, &r.AFRH, &r.BSRR, &r.IDR} {
		reg.Attach(g)
	}
	return g
}

// Drive applies an external level to pin n.
func (g *GPIO) Drive(n uint8, high bool) {
	if high {
		g.external |= 1 << n
	} else {
		g.external &^= 1 << n
	}
}

// Mode returns the 2-bit MODER field of pin n.
func (g *GPIO) Mode(n uint8) uint32 { return g.r.MODER.Reg >> (2 * n) & 0x3 }

// AF returns the alternate-function number selected for pin n.
func (g *GPIO) AF(n uint8) uint32 {
	if n < 8 {
		return g.r.AFRL.Reg >> (4 * n) & 0xF
	}
	return g.r.AFRH.Reg >> (4 * (n - 8)) & 0xF
}

// OpenDrain reports whether pin n is configured open-drain.
func (g *GPIO) OpenDrain(n uint8) bool { return g.r.OTYPER.Reg&(1<<n) != 0 }

// Speed returns the 2-bit OSPEEDR field of pin n.
func (g *GPIO) Speed(n uint8) uint32 { return g.r.OSPEEDR.Reg >> (2 * n) & 0x3 }

// Pull returns the 2-bit PUPDR field of pin n.
func (g *GPIO) Pull(n uint8) uint32 { return g.r.PUPDR.Reg >> (2 * n) & 0x3 }

// Output reports the level driven on pin n.
func (g *GPIO) Output(n uint8) bool { return g.r.ODR.Reg&(1<<n) != 0 }

func (g *GPIO) OnLoad(r *mmio.Register32, cur uint32) uint32 {
	if r != &g.r.IDR {
		return cur
	}
	var idr uint32
	for n := uint8(0); n < 16; n++ {
		bit := uint32(1) << n
		switch g.Mode(n) {
		case 0b01:
			idr |= g.r.ODR.Reg & bit
		case 0b11:
		default:
			idr |= uint32(g.external) & bit
		}
	}
	return idr
}

func (g *GPIO) OnStore(r *mmio.Register32, old, v uint32) uint32 {
	switch r {
	case &g.r.BSRR:
		g.r.ODR.Reg = g.r.ODR.Reg&^(v>>16) | v&0xFFFF
		return 0
	case &g.r.IDR:
		return old
	case &g.r.MODER:
		g.b.record("gpio", "moder")
	case &g.r.AFRL, &g.r.AFRH:
		g.b.record("gpio", "afr")
	case &g.r.OTYPER:
		g.b.record("gpio", "otyper")
		for n := uint8(0); n < 16; n++ {
			if m := g.Mode(n); rose(old, v, 1<<n) && (m == 0b01 || m == 0b10) {
				// The pin already drove push-pull before this write.
				g.b.record("gpio", "late_open_drain="+strconv.Itoa(int(n)))
			}
		}
	case &g.r.OSPEEDR:
		g.b.record("gpio", "ospeedr")
	case &g.r.PUPDR:
		g.b.record("gpio", "pupdr")
	}
	return v
}
