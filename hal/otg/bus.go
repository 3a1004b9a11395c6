package otg

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/x/fmtx"
	"f7hal/x/logx"
)

// Bus is the generic front-end a device stack sits on. It drives either
// controller through the Peripheral interface.
type Bus[P Peripheral] struct {
	p   P
	mem []uint32
}

func NewBus[P Peripheral](p P) *Bus[P] { return &Bus[P]{p: p} }

func (b *Bus[P]) Peripheral() P { return b.p }

// Memory is the endpoint memory handed to Init.
func (b *Bus[P]) Memory() []uint32 { return b.mem }

// Init powers the controller up, calibrates its PHY when it has one and
// soft-resets the core. epMemory must hold at least the FIFO depth.
func (b *Bus[P]) Init(epMemory []uint32) error {
	if n := b.p.FIFODepthWords(); len(epMemory) < n {
		return errcode.Wrap(errcode.InvalidParams, "otg.init", fmtx.Sprintf("endpoint memory %d words, need %d", len(epMemory), n))
	}
	b.p.Enable()
	if c, ok := any(b.p).(PHYCalibrator); ok {
		c.CalibratePHY()
	}
	coreReset(b.p.Global())
	b.mem = epMemory
	logx.Infof("otg", "%s core at 0x%08x ready, %d endpoints", b.p.Speed().String(), uint32(b.p.RegisterBase()), b.p.EndpointCount())
	return nil
}

// coreReset issues a core soft reset. Both waits are bounded by the hardware.
func coreReset(g *stm32.OTG_GLOBAL_Type) {
	for !g.GRSTCTL.HasBits(stm32.OTG_GRSTCTL_AHBIDL) {
	}
	g.GRSTCTL.SetBits(stm32.OTG_GRSTCTL_CSRST)
	for g.GRSTCTL.HasBits(stm32.OTG_GRSTCTL_CSRST) {
	}
	for !g.GRSTCTL.HasBits(stm32.OTG_GRSTCTL_AHBIDL) {
	}
}
