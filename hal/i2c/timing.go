package i2c

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/types"
	"f7hal/x/fmtx"
	"f7hal/x/mathx"
)

type class uint8

const (
	classStandard class = iota
	classFast
	classFastPlus
)

// Mode is a bus speed class with its SCL frequency.
type Mode struct {
	class class
	Freq  types.Hertz
}

// Standard is up to 100 kHz.
func Standard(f types.Hertz) Mode { return Mode{classStandard, f} }

// Fast is up to 400 kHz.
func Fast(f types.Hertz) Mode { return Mode{classFast, f} }

// FastPlus is up to 1 MHz.
func FastPlus(f types.Hertz) Mode { return Mode{classFastPlus, f} }

// ModeFor picks the slowest class that can run at f.
func ModeFor(f types.Hertz) Mode {
	switch {
	case f <= 100*types.KHz:
		return Standard(f)
	case f <= 400*types.KHz:
		return Fast(f)
	default:
		return FastPlus(f)
	}
}

// Per class: maximum SCL, SCL low:high split, minimum data setup and hold
// times in ns.
var classes = [...]struct {
	max             types.Hertz
	low, high       uint64
	setupNS, holdNS uint64
	name            string
}{
	classStandard: {100 * types.KHz, 1, 1, 1250, 500, "standard"},
	classFast:     {400 * types.KHz, 3, 2, 500, 375, "fast"},
	classFastPlus: {1000 * types.KHz, 3, 2, 250, 0, "fast-plus"},
}

func (m Mode) String() string { return classes[m.class].name }

func (m Mode) validate() error {
	c := classes[m.class]
	if m.Freq == 0 || m.Freq > c.max {
		return errcode.Wrap(errcode.InvalidConfig, "i2c.mode", fmtx.Sprintf("%s mode at %d Hz", c.name, uint32(m.Freq)))
	}
	return nil
}

func cyclesFor(ns, clk uint64) uint64 { return mathx.CeilDiv(ns*clk, 1_000_000_000) }

// Timing computes TIMINGR for SCL at m.Freq from the kernel clock i2cclk
// (PCLK1). The SCL period never comes out shorter than requested.
func Timing(i2cclk types.Hertz, m Mode) (uint32, error) {
	if err := m.validate(); err != nil {
		return 0, err
	}
	c := classes[m.class]
	clk := uint64(i2cclk)

	// Prescaler: SCLL+SCLH fit 512 ticks, SCLDEL 16 and SDADEL 15.
	presc := mathx.CeilDiv(mathx.CeilDiv(clk, uint64(m.Freq)), 512)
	presc = max(presc, mathx.CeilDiv(cyclesFor(c.setupNS, clk), 16))
	presc = max(presc, mathx.CeilDiv(cyclesFor(c.holdNS, clk), 15))
	presc = max(presc, 1)
	if presc > 16 {
		return 0, errcode.Wrap(errcode.InvalidConfig, "i2c.timing", fmtx.Sprintf("%d Hz kernel clock too fast for %d Hz", uint32(i2cclk), uint32(m.Freq)))
	}
	tick := clk / presc

	total := mathx.CeilDiv(tick, uint64(m.Freq))
	low := mathx.CeilDiv(total*c.low, c.low+c.high)
	high := total - low
	if low < 1 || high < 1 || low > 256 || high > 256 {
		return 0, errcode.Wrap(errcode.InvalidConfig, "i2c.timing", fmtx.Sprintf("%d Hz not reachable from %d Hz", uint32(m.Freq), uint32(i2cclk)))
	}
	setup := mathx.Clamp(cyclesFor(c.setupNS, tick), 1, 16)
	hold := mathx.Clamp(cyclesFor(c.holdNS, tick), 0, 15)

	return uint32(presc-1)<<stm32.I2C_TIMINGR_PRESC_Pos |
		uint32(setup-1)<<stm32.I2C_TIMINGR_SCLDEL_Pos |
		uint32(hold)<<stm32.I2C_TIMINGR_SDADEL_Pos |
		uint32(high-1)<<stm32.I2C_TIMINGR_SCLH_Pos |
		uint32(low-1)<<stm32.I2C_TIMINGR_SCLL_Pos, nil
}

// SCLFreq returns the nominal SCL frequency a TIMINGR value gives at i2cclk,
// ignoring rise time and synchronisation.
func SCLFreq(i2cclk types.Hertz, timingr uint32) types.Hertz {
	presc := timingr>>stm32.I2C_TIMINGR_PRESC_Pos&0xF + 1
	scll := timingr>>stm32.I2C_TIMINGR_SCLL_Pos&0xFF + 1
	sclh := timingr>>stm32.I2C_TIMINGR_SCLH_Pos&0xFF + 1
	return i2cclk / types.Hertz(presc*(scll+sclh))
}
