package otg

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/gpio"
	"f7hal/hal/rcc"
	"f7hal/types"
	"f7hal/x/arch"
	"f7hal/x/fmtx"
	"f7hal/x/logx"
)

// HSPin is the mode the high-speed data pins must be in.
type HSPin = gpio.Pin[gpio.Alternate[gpio.AF12, gpio.PushPull]]

const (
	HSFIFODepthWords = 1024
	HSEndpointCount  = 9
)

// USBPHYC constants. TUNE is the vendor calibration pattern; the settle time
// covers PHY PLL lock.
const (
	PHYTune     = 0xF13
	PHYSettleUS = 2000
)

// pll1Sel maps the PHY reference clock to PLL1SEL.
var pll1Sel = [...]struct {
	ref types.Hertz
	sel uint32
}{
	{12 * types.MHz, 0b000},
	{12_500 * types.KHz, 0b001},
	{16 * types.MHz, 0b011},
	{24 * types.MHz, 0b100},
	{25 * types.MHz, 0b101},
}

// PLL1Sel returns the PLL1SEL code for a PHY reference frequency.
func PLL1Sel(ref types.Hertz) (uint32, bool) {
	for _, e := range pll1Sel {
		if e.ref == ref {
			return e.sel, true
		}
	}
	return 0, false
}

// HS is the high-speed controller with the internal UTMI PHY on PB14/PB15.
type HS struct {
	core
	phy    *stm32.USBPHYC_Type
	dm, dp HSPin
	rcc    *rcc.RCC
	sysclk types.Hertz
	ref    types.Hertz
}

var (
	_ Peripheral    = (*HS)(nil)
	_ PHYCalibrator = (*HS)(nil)
)

// NewHS wraps the high-speed core. dm and dp must be PB14 and PB15; ref is
// the PHY reference clock, which is the board HSE.
func NewHS(global *stm32.OTG_GLOBAL_Type, phy *stm32.USBPHYC_Type, dm, dp HSPin, clocks rcc.Clocks, r *rcc.RCC, ref types.Hertz) *HS {
	if dm.ID() != gpio.PB(14) || dp.ID() != gpio.PB(15) {
		arch.Halt(errcode.Wrap(errcode.InvalidPin, "otg.hs", dm.ID().String()+"/"+dp.ID().String()))
		return nil
	}
	return &HS{
		core:   core{name: "hs", global: global, hclk: clocks.HCLK()},
		phy:    phy,
		dm:     dm,
		dp:     dp,
		rcc:    r,
		sysclk: clocks.SYSCLK(),
		ref:    ref,
	}
}

func (*HS) Speed() types.Speed  { return types.SpeedHigh }
func (*HS) FIFODepthWords() int { return HSFIFODepthWords }
func (*HS) EndpointCount() int  { return HSEndpointCount }

// Enable clocks and resets the core. The PHY still has to be calibrated.
func (h *HS) Enable() {
	arch.Critical(func() {
		h.rcc.Enable(rcc.GateOTGHS)
		h.moveTo(Enabled)
		h.rcc.Reset(rcc.GateOTGHS)
		h.moveTo(Reset)
	})
}

// CalibratePHY starts the internal PHY: regulator, PLL reference, tuning,
// PLL enable and settle. It must follow Enable. An unsupported reference
// frequency halts.
func (h *HS) CalibratePHY() {
	const op = "otg.hs.phy"
	if h.state != Reset {
		arch.Halt(errcode.Wrap(errcode.InvalidConfig, op, "calibration in state "+h.state.String()))
		return
	}
	sel, ok := PLL1Sel(h.ref)
	if !ok {
		arch.Halt(errcode.Wrap(errcode.UnsupportedPHYRef, op, fmtx.Sprintf("%d Hz", uint32(h.ref))))
		return
	}

	arch.Critical(func() {
		h.rcc.Enable(rcc.GateOTGHSULPI)
		h.rcc.EnableReset(rcc.GateUSBPHYC)
	})

	// Setting LDO_DISABLE switches the regulator on.
	h.phy.LDO.SetBits(stm32.USBPHYC_LDO_DISABLE)
	for !h.phy.LDO.HasBits(stm32.USBPHYC_LDO_STATUS) {
	}

	h.phy.PLL1.ReplaceBits(sel, stm32.USBPHYC_PLL1_PLL1SEL_Msk, stm32.USBPHYC_PLL1_PLL1SEL_Pos)
	h.phy.TUNE.SetBits(PHYTune)
	h.phy.PLL1.SetBits(stm32.USBPHYC_PLL1_PLL1EN)
	arch.DelayCycles(h.sysclk.Cycles(PHYSettleUS))

	h.moveTo(PHYCalibrated)
	logx.Infof("otg", "hs: phy up, ref %d Hz, pll1sel %d", uint32(h.ref), sel)
	h.moveTo(Ready)
}

// Release hands the pins back. The core is left as it is.
func (h *HS) Release() (dm, dp HSPin) { return h.dm, h.dp }
