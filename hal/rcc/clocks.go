package rcc

import "f7hal/types"

// Clocks is the frozen clock tree. It is a plain value: copy it into every
// peripheral that needs a bus frequency.
type Clocks struct {
	sysclk   types.Hertz
	hclk     types.Hertz
	pclk1    types.Hertz
	pclk2    types.Hertz
	ppre1    uint32
	ppre2    uint32
	pll48clk types.Hertz
	source   Source
	latency  uint32
}

func clocksFrom(s Settings) Clocks {
	return Clocks{
		sysclk:   s.SYSCLK,
		hclk:     s.HCLK,
		pclk1:    s.PCLK1,
		pclk2:    s.PCLK2,
		ppre1:    s.PPRE1,
		ppre2:    s.PPRE2,
		pll48clk: s.PLL48CLK,
		source:   s.Source,
		latency:  s.FlashLatency,
	}
}

func (c Clocks) SYSCLK() types.Hertz { return c.sysclk }
func (c Clocks) HCLK() types.Hertz   { return c.hclk }
func (c Clocks) PCLK1() types.Hertz  { return c.pclk1 }
func (c Clocks) PCLK2() types.Hertz  { return c.pclk2 }

// TIMCLK1 is the kernel clock of the APB1 timers: PCLK1, doubled when the
// APB1 prescaler divides.
func (c Clocks) TIMCLK1() types.Hertz { return timclk(c.pclk1, c.ppre1) }

// TIMCLK2 is TIMCLK1 for APB2.
func (c Clocks) TIMCLK2() types.Hertz { return timclk(c.pclk2, c.ppre2) }

// PLL48CLK returns the 48 MHz domain clock and whether it was requested.
func (c Clocks) PLL48CLK() (types.Hertz, bool) { return c.pll48clk, c.pll48clk != 0 }

func (c Clocks) Source() Source       { return c.source }
func (c Clocks) FlashLatency() uint32 { return c.latency }

func timclk(pclk types.Hertz, div uint32) types.Hertz {
	if div <= 1 {
		return pclk
	}
	return 2 * pclk
}
