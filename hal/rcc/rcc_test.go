package rcc

import (
	"errors"
	"testing"

	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/internal/sim"
	"f7hal/x/arch"
)

func newRCC() (*sim.Board, *RCC) {
	b := sim.NewBoard()
	return b, Constrain(b.P.RCC, b.P.PWR, b.P.FLASH)
}

func disco(r *RCC) *CFGR {
	return r.CFGR.HSE(HSE{25 * mhz, Bypass}).UsePLL().UsePLL48Clk().SYSCLK(216 * mhz)
}

func expectHalt(t *testing.T, want errcode.Code, fn func()) {
	t.Helper()
	defer func() {
		h, ok := recover().(*arch.Halted)
		if !ok {
			t.Fatalf("expected a halt with %s", want)
		}
		if !errors.Is(h, want) {
			t.Fatalf("halted with %v, want %s", h.Reason, want)
		}
		if arch.InCritical() {
			t.Fatalf("critical section left open after halt")
		}
	}()
	fn()
}

func TestFreezeAppliesInOrder(t *testing.T) {
	b, r := newRCC()
	clk := disco(r).Freeze()

	if len(b.RCC.Violations) != 0 {
		t.Fatalf("violations: %v", b.RCC.Violations)
	}
	order := []struct{ block, what string }{
		{"rcc", "hse_on"},
		{"rcc", "hse_ready"},
		{"rcc", "pllcfgr"},
		{"rcc", "pll_on"},
		{"pwr", "oden"},
		{"pwr", "odswen"},
		{"flash", "latency=7"},
		{"rcc", "sw=pll"},
	}
	last := -1
	for _, o := range order {
		i := b.Index(o.block, o.what)
		if i < 0 {
			t.Fatalf("no %s/%s event in %v", o.block, o.what, b.Events)
		}
		if i < last {
			t.Fatalf("%s/%s out of order in %v", o.block, o.what, b.Events)
		}
		if !b.Events[i].Critical {
			t.Fatalf("%s/%s outside the critical section", o.block, o.what)
		}
		last = i
	}

	regs := b.P.RCC
	if got := regs.CFGR.Get() >> stm32.RCC_CFGR_SWS_Pos & stm32.RCC_CFGR_SWS_Msk; got != stm32.RCC_CFGR_SW_PLL {
		t.Fatalf("SWS = %d", got)
	}
	wantPLL := uint32(25 | 432<<6 | 0<<16 | 1<<22 | 9<<24)
	if got := regs.PLLCFGR.Get(); got != wantPLL {
		t.Fatalf("PLLCFGR = %#x, want %#x", got, wantPLL)
	}
	if regs.CR.Get()&stm32.RCC_CR_HSEBYP == 0 {
		t.Fatalf("HSE bypass not set")
	}
	if regs.DCKCFGR2.Get()&stm32.RCC_DCKCFGR2_CK48MSEL != 0 {
		t.Fatalf("48 MHz domain not on PLLQ")
	}
	if got := regs.CFGR.Get() >> stm32.RCC_CFGR_PPRE1_Pos & stm32.RCC_CFGR_PPRE1_Msk; got != 0b101 {
		t.Fatalf("PPRE1 = %#b", got)
	}

	if clk.SYSCLK() != 216*mhz || clk.HCLK() != 216*mhz || clk.PCLK1() != 54*mhz || clk.PCLK2() != 108*mhz {
		t.Fatalf("clocks %+v", clk)
	}
	if clk.TIMCLK1() != 108*mhz || clk.TIMCLK2() != 216*mhz {
		t.Fatalf("timer clocks %d %d", clk.TIMCLK1(), clk.TIMCLK2())
	}
	if f, ok := clk.PLL48CLK(); !ok || f != 48*mhz {
		t.Fatalf("PLL48CLK = %d, %v", f, ok)
	}
	if clk.Source() != SourcePLL || clk.FlashLatency() != 7 {
		t.Fatalf("source %s latency %d", clk.Source(), clk.FlashLatency())
	}
	if arch.InCritical() {
		t.Fatalf("critical section left open")
	}
}

func TestFreezeWithoutPLL(t *testing.T) {
	b, r := newRCC()
	clk := r.CFGR.HSE(HSE{25 * mhz, Oscillator}).Freeze()
	if b.Index("rcc", "pll_on") >= 0 || b.Index("pwr", "oden") >= 0 {
		t.Fatalf("unexpected PLL or over-drive activity: %v", b.Events)
	}
	if b.Index("rcc", "sw=hse") < b.Index("rcc", "hse_ready") {
		t.Fatalf("switched before HSE ready: %v", b.Events)
	}
	if clk.SYSCLK() != 25*mhz || clk.TIMCLK1() != 25*mhz {
		t.Fatalf("clocks %+v", clk)
	}
	if _, ok := clk.PLL48CLK(); ok {
		t.Fatalf("48 MHz clock reported without request")
	}
}

func TestFreezeTwiceHalts(t *testing.T) {
	_, r := newRCC()
	disco(r).Freeze()
	expectHalt(t, errcode.AlreadyFrozen, func() { r.CFGR.Freeze() })
}

func TestFreezeDeadClocks(t *testing.T) {
	tests := []struct {
		name  string
		fault func(*sim.RCC)
		never string
	}{
		{"hse dead", func(s *sim.RCC) { s.HSEDead = true }, "pll_on"},
		{"pll dead", func(s *sim.RCC) { s.PLLDead = true }, "sw=pll"},
		{"overdrive dead", func(s *sim.RCC) { s.OverDriveDead = true }, "sw=pll"},
		{"switch stuck", func(s *sim.RCC) { s.SwitchStuck = true }, ""},
	}
	for _, tt := range tests {
		b, r := newRCC()
		tt.fault(b.RCC)
		expectHalt(t, errcode.ClockNotReady, func() { disco(r).StartupSpins(100).Freeze() })
		if tt.never != "" && b.Index("rcc", tt.never) >= 0 {
			t.Fatalf("%s: %s happened after a failed wait", tt.name, tt.never)
		}
		if len(b.RCC.Violations) != 0 {
			t.Fatalf("%s: violations %v", tt.name, b.RCC.Violations)
		}
	}
}

func TestFreezePollIsBounded(t *testing.T) {
	b, r := newRCC()
	b.RCC.HSEDead = true
	_, err := disco(r).StartupSpins(64).TryFreeze()
	if !errors.Is(err, errcode.ClockNotReady) {
		t.Fatalf("err = %v", err)
	}
	if n := b.RCC.CRLoads(); n < 64 || n > 70 {
		t.Fatalf("CR read %d times for a bound of 64", n)
	}
}

func TestFreezeSlowHSE(t *testing.T) {
	b, r := newRCC()
	b.RCC.HSEDelay = 50
	if _, err := disco(r).StartupSpins(100).TryFreeze(); err != nil {
		t.Fatalf("TryFreeze: %v", err)
	}
	if b.Index("rcc", "hse_ready") > b.Index("rcc", "pllcfgr") {
		t.Fatalf("PLL configured before HSE ready: %v", b.Events)
	}
}

func TestTryFreezeKeepsBuilderOnPlanError(t *testing.T) {
	b, r := newRCC()
	_, err := r.CFGR.SYSCLK(300 * mhz).TryFreeze()
	if !errors.Is(err, errcode.InvalidClockPlan) {
		t.Fatalf("err = %v", err)
	}
	if r.CFGR.Frozen() || len(b.Events) != 0 {
		t.Fatalf("plan error touched hardware: %v", b.Events)
	}
	clk, err := r.CFGR.SYSCLK(96 * mhz).TryFreeze()
	if err != nil {
		t.Fatalf("TryFreeze: %v", err)
	}
	if clk.SYSCLK() != 96*mhz || clk.FlashLatency() != 3 {
		t.Fatalf("clocks %+v", clk)
	}
	if _, err := r.CFGR.TryFreeze(); !errors.Is(err, errcode.AlreadyFrozen) {
		t.Fatalf("second TryFreeze: %v", err)
	}
}

func TestInvalidPlanHalts(t *testing.T) {
	_, r := newRCC()
	expectHalt(t, errcode.InvalidClockPlan, func() { r.CFGR.PCLK1(100 * mhz).Freeze() })
}

func TestGates(t *testing.T) {
	b, r := newRCC()
	r.EnableI2C(1)
	if !r.Enabled(GateI2C1) {
		t.Fatalf("I2C1 clock not enabled")
	}
	for _, what := range []string{"apb1enr+21", "apb1rstr+21", "apb1rstr-21"} {
		e, ok := b.Find("rcc", what)
		if !ok || !e.Critical {
			t.Fatalf("%s: found=%v critical=%v", what, ok, e.Critical)
		}
	}
	if b.Index("rcc", "apb1rstr-21") < b.Index("rcc", "apb1rstr+21") {
		t.Fatalf("reset released before asserted")
	}

	r.EnableGPIO(1)
	if b.P.RCC.AHB1ENR.Get()&(1<<1) == 0 {
		t.Fatalf("GPIOB clock not enabled")
	}
	r.Disable(GateGPIO(1))
	if r.Enabled(GateGPIO(1)) {
		t.Fatalf("GPIOB clock still enabled")
	}
	r.Reset(GateOTGFS)
	if b.Index("rcc", "ahb2rstr+7") < 0 || b.P.RCC.AHB2RSTR.Get() != 0 {
		t.Fatalf("OTG FS reset pulse missing")
	}
}
