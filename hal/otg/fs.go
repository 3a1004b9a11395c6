package otg

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/gpio"
	"f7hal/hal/rcc"
	"f7hal/types"
	"f7hal/x/arch"
	"f7hal/x/logx"
)

// FSPin is the mode the full-speed data pins must be in.
type FSPin = gpio.Pin[gpio.Alternate[gpio.AF10, gpio.PushPull]]

const (
	FSFIFODepthWords = 320
	FSEndpointCount  = 6
)

// FS is the full-speed controller with its embedded PHY on PA11/PA12.
type FS struct {
	core
	dm, dp FSPin
	rcc    *rcc.RCC
}

var _ Peripheral = (*FS)(nil)

// NewFS wraps the full-speed core. dm and dp must be PA11 and PA12.
func NewFS(global *stm32.OTG_GLOBAL_Type, dm, dp FSPin, clocks rcc.Clocks, r *rcc.RCC) *FS {
	if dm.ID() != gpio.PA(11) || dp.ID() != gpio.PA(12) {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, "otg.fs", dm.ID().String()+"/"+dp.ID().String()))
		return nil
	}
	if _, ok := clocks.PLL48CLK(); !ok {
		logx.Warnf("otg", "fs: 48 MHz clock not configured")
	}
	return &FS{
		core: core{name: "fs", global: global, hclk: clocks.HCLK()},
		dm:   dm,
		dp:   dp,
		rcc:  r,
	}
}

func (*FS) Speed() types.Speed  { return types.SpeedFull }
func (*FS) FIFODepthWords() int { return FSFIFODepthWords }
func (*FS) EndpointCount() int  { return FSEndpointCount }

// Enable clocks and resets the core. The FS PHY needs nothing else.
func (f *FS) Enable() {
	arch.Critical(func() {
		f.rcc.Enable(rcc.GateOTGFS)
		f.moveTo(Enabled)
		f.rcc.Reset(rcc.GateOTGFS)
		f.moveTo(Reset)
	})
	f.moveTo(Ready)
}

// Release hands the pins back. The core is left as it is.
func (f *FS) Release() (dm, dp FSPin) { return f.dm, f.dp }
