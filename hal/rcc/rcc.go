// Package rcc configures the clock tree once at boot and hands out the
// peripheral clock gates.
//
// A frequency request is expressed on the CFGR builder, solved into divider
// settings, and applied by Freeze in the order the reference manual
// prescribes. The resulting Clocks value is what every peripheral
// constructor consumes.
package rcc

import (
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/types"
	"f7hal/x/arch"
	"f7hal/x/logx"
	"f7hal/x/mmio"
)

// DefaultStartupSpins bounds every oscillator, PLL and mux poll in Freeze.
const DefaultStartupSpins = 0x5000

// RCC owns the reset and clock controller together with the PWR and FLASH
// blocks whose settings depend on the clock tree.
type RCC struct {
	regs  *stm32.RCC_Type
	pwr   *stm32.PWR_Type
	flash *stm32.FLASH_Type

	CFGR CFGR
}

// Constrain takes ownership of the clock-related blocks.
func Constrain(regs *stm32.RCC_Type, pwr *stm32.PWR_Type, flash *stm32.FLASH_Type) *RCC {
	r := &RCC{regs: regs, pwr: pwr, flash: flash}
	r.CFGR = CFGR{rcc: r, spins: DefaultStartupSpins}
	return r
}

// CFGR collects a clock request. Methods chain; Freeze consumes it.
type CFGR struct {
	rcc    *RCC
	plan   Plan
	hse    HSE
	spins  uint32
	frozen bool
}

func (c *CFGR) HSE(h HSE) *CFGR {
	c.hse = h
	c.plan.HSE = &c.hse
	return c
}

func (c *CFGR) SYSCLK(f types.Hertz) *CFGR { c.plan.SYSCLK = f; return c }
func (c *CFGR) HCLK(f types.Hertz) *CFGR   { c.plan.HCLK = f; return c }
func (c *CFGR) PCLK1(f types.Hertz) *CFGR  { c.plan.PCLK1 = f; return c }
func (c *CFGR) PCLK2(f types.Hertz) *CFGR  { c.plan.PCLK2 = f; return c }

// UsePLL forces SYSCLK through the main PLL even when the source already
// matches the request.
func (c *CFGR) UsePLL() *CFGR { c.plan.UsePLL = true; return c }

// UsePLL48Clk requires an exact 48 MHz PLLQ output and routes it to the
// 48 MHz domain (USB FS, SDMMC, RNG).
func (c *CFGR) UsePLL48Clk() *CFGR { c.plan.UsePLL48 = true; return c }

// StartupSpins overrides the poll bound used while applying the plan.
func (c *CFGR) StartupSpins(n uint32) *CFGR {
	if n > 0 {
		c.spins = n
	}
	return c
}

// Plan returns the request as collected so far.
func (c *CFGR) Plan() Plan { return c.plan }

// Frozen reports whether the request has been applied.
func (c *CFGR) Frozen() bool { return c.frozen }

// Freeze applies the request and returns the resulting clock frequencies. An
// unsolvable plan, a clock that never becomes ready and a second call all
// halt the system.
func (c *CFGR) Freeze() Clocks {
	clk, err := c.TryFreeze()
	if err != nil {
		arch.Halt(err)
	}
	return clk
}

// TryFreeze is Freeze with the failure returned instead of halting. A plan
// error leaves the builder untouched so it can be corrected; any later error
// leaves the clock tree partly configured and the caller should stop.
func (c *CFGR) TryFreeze() (Clocks, error) {
	if c.frozen {
		return Clocks{}, errcode.Wrap(errcode.AlreadyFrozen, "rcc.freeze", "")
	}
	s, err := c.plan.Solve()
	if err != nil {
		return Clocks{}, err
	}
	c.frozen = true

	arch.Critical(func() { err = c.rcc.apply(s, c.spins) })
	if err != nil {
		return Clocks{}, err
	}

	clk := clocksFrom(s)
	logx.Infof("rcc", "sysclk=%d hclk=%d pclk1=%d pclk2=%d src=%s ws=%d",
		uint32(clk.sysclk), uint32(clk.hclk), uint32(clk.pclk1), uint32(clk.pclk2), clk.source.String(), clk.latency)
	return clk, nil
}

func notReady(what string) error {
	return errcode.Wrap(errcode.ClockNotReady, "rcc.freeze", what)
}

// spin polls r until the masked value equals want or n reads have passed.
func spin(r *mmio.Register32, mask, want, n uint32) bool {
	for i := uint32(0); i < n; i++ {
		if r.Get()&mask == want {
			return true
		}
	}
	return false
}

// vosScale returns the PWR_CR1.VOS encoding for hclk.
func vosScale(hclk types.Hertz) uint32 {
	switch {
	case hclk <= 144*types.MHz:
		return 0b01
	case hclk <= 168*types.MHz:
		return 0b10
	default:
		return 0b11
	}
}

func (r *RCC) apply(s Settings, n uint32) error {
	cr := &r.regs.CR

	// 1. Source oscillator.
	if s.PLLSource == SourceHSE {
		h := r.CFGR.hse
		if !cr.HasBits(stm32.RCC_CR_HSEON) {
			if h.Mode == Bypass {
				cr.SetBits(stm32.RCC_CR_HSEBYP)
			} else {
				cr.ClearBits(stm32.RCC_CR_HSEBYP)
			}
		}
		cr.SetBits(stm32.RCC_CR_HSEON)
		if !spin(cr, stm32.RCC_CR_HSERDY, stm32.RCC_CR_HSERDY, n) {
			return notReady("HSE")
		}
		logx.Debugf("rcc", "hse ready")
	} else {
		cr.SetBits(stm32.RCC_CR_HSION)
		if !spin(cr, stm32.RCC_CR_HSIRDY, stm32.RCC_CR_HSIRDY, n) {
			return notReady("HSI")
		}
	}

	// 2. Regulator scale for the target HCLK.
	r.regs.APB1ENR.SetBits(stm32.RCC_APB1ENR_PWREN)
	r.pwr.CR1.ReplaceBits(vosScale(s.HCLK), stm32.PWR_CR1_VOS_Msk, stm32.PWR_CR1_VOS_Pos)

	// 3. Main PLL, configured only while stopped.
	if s.Source == SourcePLL {
		cr.ClearBits(stm32.RCC_CR_PLLON)
		if !spin(cr, stm32.RCC_CR_PLLRDY, 0, n) {
			return notReady("PLL stop")
		}
		cfg := s.PLLM<<stm32.RCC_PLLCFGR_PLLM_Pos |
			s.PLLN<<stm32.RCC_PLLCFGR_PLLN_Pos |
			pllpBits(s.PLLP)<<stm32.RCC_PLLCFGR_PLLP_Pos |
			s.PLLQ<<stm32.RCC_PLLCFGR_PLLQ_Pos
		if s.PLLSource == SourceHSE {
			cfg |= stm32.RCC_PLLCFGR_PLLSRC_HSE
		}
		r.regs.PLLCFGR.Set(cfg)
		cr.SetBits(stm32.RCC_CR_PLLON)
		if !spin(cr, stm32.RCC_CR_PLLRDY, stm32.RCC_CR_PLLRDY, n) {
			return notReady("PLL lock")
		}
		if !spin(&r.pwr.CSR1, stm32.PWR_CSR1_VOSRDY, stm32.PWR_CSR1_VOSRDY, n) {
			return notReady("VOS")
		}
		logx.Debugf("rcc", "pll locked m=%d n=%d p=%d q=%d", s.PLLM, s.PLLN, s.PLLP, s.PLLQ)
	}

	// 4. Over-drive above 180 MHz.
	if s.OverDrive {
		r.pwr.CR1.SetBits(stm32.PWR_CR1_ODEN)
		if !spin(&r.pwr.CSR1, stm32.PWR_CSR1_ODRDY, stm32.PWR_CSR1_ODRDY, n) {
			return notReady("over-drive")
		}
		r.pwr.CR1.SetBits(stm32.PWR_CR1_ODSWEN)
		if !spin(&r.pwr.CSR1, stm32.PWR_CSR1_ODSWRDY, stm32.PWR_CSR1_ODSWRDY, n) {
			return notReady("over-drive switch")
		}
	}

	// 5. Flash wait states before the frequency goes up.
	acr := &r.flash.ACR
	acr.ReplaceBits(s.FlashLatency, stm32.FLASH_ACR_LATENCY_Msk, stm32.FLASH_ACR_LATENCY_Pos)
	acr.SetBits(stm32.FLASH_ACR_PRFTEN | stm32.FLASH_ACR_ARTEN)
	if acr.Get()>>stm32.FLASH_ACR_LATENCY_Pos&stm32.FLASH_ACR_LATENCY_Msk != s.FlashLatency {
		return notReady("flash latency")
	}

	// 6. Bus prescalers.
	cfgr := &r.regs.CFGR
	cfgr.ReplaceBits(hpreBits(s.HPRE), stm32.RCC_CFGR_HPRE_Msk, stm32.RCC_CFGR_HPRE_Pos)
	cfgr.ReplaceBits(ppreBits(s.PPRE1), stm32.RCC_CFGR_PPRE1_Msk, stm32.RCC_CFGR_PPRE1_Pos)
	cfgr.ReplaceBits(ppreBits(s.PPRE2), stm32.RCC_CFGR_PPRE2_Msk, stm32.RCC_CFGR_PPRE2_Pos)

	// 7. SYSCLK mux, only once the new source is confirmed.
	var sw uint32
	switch s.Source {
	case SourceHSE:
		sw = stm32.RCC_CFGR_SW_HSE
	case SourcePLL:
		sw = stm32.RCC_CFGR_SW_PLL
	default:
		sw = stm32.RCC_CFGR_SW_HSI
	}
	cfgr.ReplaceBits(sw, stm32.RCC_CFGR_SW_Msk, stm32.RCC_CFGR_SW_Pos)
	if !spin(cfgr, stm32.RCC_CFGR_SWS_Msk<<stm32.RCC_CFGR_SWS_Pos, sw<<stm32.RCC_CFGR_SWS_Pos, n) {
		return notReady("SYSCLK switch")
	}

	// 8. 48 MHz domain from PLLQ.
	if s.PLL48 {
		r.regs.DCKCFGR2.ClearBits(stm32.RCC_DCKCFGR2_CK48MSEL)
	}
	return nil
}
