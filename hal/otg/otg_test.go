package otg

import (
	"errors"
	"testing"

	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/gpio"
	"f7hal/hal/rcc"
	"f7hal/internal/sim"
	"f7hal/types"
	"f7hal/x/arch"
)

type rig struct {
	b     *sim.Board
	r     *rcc.RCC
	clk   rcc.Clocks
	gpioa gpio.Parts
	gpiob gpio.Parts
}

func newRig() rig {
	b := sim.NewBoard()
	r := rcc.Constrain(b.P.RCC, b.P.PWR, b.P.FLASH)
	clk := r.CFGR.HSE(rcc.HSE{Freq: 25 * types.MHz, Mode: rcc.Bypass}).UsePLL().UsePLL48Clk().SYSCLK(216 * types.MHz).Freeze()
	rg := rig{
		b:     b,
		r:     r,
		clk:   clk,
		gpioa: gpio.Split(b.P.GPIO[gpio.PortA], gpio.PortA, r),
		gpiob: gpio.Split(b.P.GPIO[gpio.PortB], gpio.PortB, r),
	}
	b.Reset()
	return rg
}

func (rg rig) hs(ref types.Hertz) *HS {
	return NewHS(rg.b.P.OTG_HS, rg.b.P.USBPHYC, rg.gpiob.P14.IntoAlternateAF12(), rg.gpiob.P15.IntoAlternateAF12(), rg.clk, rg.r, ref)
}

func (rg rig) fs() *FS {
	return NewFS(rg.b.P.OTG_FS, rg.gpioa.P11.IntoAlternateAF10(), rg.gpioa.P12.IntoAlternateAF10(), rg.clk, rg.r)
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
	}()
	fn()
}

func expectOrder(t *testing.T, b *sim.Board, steps [][2]string) {
	t.Helper()
	last := -1
	for _, s := range steps {
		i := b.Index(s[0], s[1])
		if i < 0 {
			t.Fatalf("no %s/%s in %v", s[0], s[1], b.Events)
		}
		if i < last {
			t.Fatalf("%s/%s out of order in %v", s[0], s[1], b.Events)
		}
		last = i
	}
}

func TestHSBringUp(t *testing.T) {
	rg := newRig()
	rg.b.OTG.LDODelay = 3
	hs := rg.hs(25 * types.MHz)
	if hs.State() != Unpowered {
		t.Fatalf("state = %s", hs.State())
	}
	bus := NewBus(hs)
	mem := make([]uint32, HSFIFODepthWords)
	arch.ResetCycles()

	if err := bus.Init(mem); err != nil {
		t.Fatalf("Init: %v", err)
	}
	expectOrder(t, rg.b, [][2]string{
		{"rcc", "ahb1enr+29"},
		{"rcc", "ahb1rstr+29"},
		{"rcc", "ahb1rstr-29"},
		{"rcc", "ahb1enr+30"},
		{"rcc", "apb2enr+31"},
		{"rcc", "apb2rstr+31"},
		{"rcc", "apb2rstr-31"},
		{"phyc", "ldo_on"},
		{"phyc", "ldo_ready_seen"},
		{"phyc", "pll1sel=5"},
		{"phyc", "tune=0xf13"},
		{"phyc", "pll1en"},
		{"otg_hs", "csrst"},
		{"otg_hs", "csrst_done"},
	})
	for _, e := range rg.b.Events {
		if e.Block == "rcc" && !e.Critical {
			t.Fatalf("clock gate %s changed outside a critical section", e.What)
		}
	}
	if len(rg.b.OTG.Violations) != 0 || len(rg.b.RCC.Violations) != 0 {
		t.Fatalf("violations: %v %v", rg.b.OTG.Violations, rg.b.RCC.Violations)
	}

	phy := rg.b.P.USBPHYC
	if got := phy.PLL1.Get(); got != 5<<stm32.USBPHYC_PLL1_PLL1SEL_Pos|stm32.USBPHYC_PLL1_PLL1EN {
		t.Fatalf("PLL1 = %#x", got)
	}
	if phy.TUNE.Get() != PHYTune {
		t.Fatalf("TUNE = %#x", phy.TUNE.Get())
	}
	if got := arch.Cycles(); got != 432_000 {
		t.Fatalf("settle delay %d cycles, want 432000", got)
	}
	if hs.State() != Ready || bus.Peripheral() != hs || len(bus.Memory()) != HSFIFODepthWords {
		t.Fatalf("state %s", hs.State())
	}
	if hs.Speed() != types.SpeedHigh || hs.EndpointCount() != 9 || hs.AHBFrequency() != 216*types.MHz {
		t.Fatalf("capabilities %s %d %d", hs.Speed(), hs.EndpointCount(), hs.AHBFrequency())
	}
	if hs.RegisterBase() != stm32.BaseOf(rg.b.P.OTG_HS) {
		t.Fatalf("register base %#x", hs.RegisterBase())
	}
}

func TestFSBringUp(t *testing.T) {
	rg := newRig()
	fs := rg.fs()
	bus := NewBus(fs)
	if err := bus.Init(make([]uint32, 512)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	expectOrder(t, rg.b, [][2]string{
		{"rcc", "ahb2enr+7"},
		{"rcc", "ahb2rstr+7"},
		{"rcc", "ahb2rstr-7"},
		{"otg_fs", "csrst"},
		{"otg_fs", "csrst_done"},
	})
	if rg.b.Index("phyc", "ldo_on") >= 0 || rg.b.Index("rcc", "apb2enr+31") >= 0 {
		t.Fatalf("FS touched the HS PHY: %v", rg.b.Events)
	}
	if len(rg.b.OTG.Violations) != 0 {
		t.Fatalf("violations: %v", rg.b.OTG.Violations)
	}
	if fs.State() != Ready || fs.Speed() != types.SpeedFull || fs.FIFODepthWords() != 320 || fs.EndpointCount() != 6 {
		t.Fatalf("fs %s %s %d %d", fs.State(), fs.Speed(), fs.FIFODepthWords(), fs.EndpointCount())
	}
}

func TestInitRejectsSmallMemory(t *testing.T) {
	rg := newRig()
	bus := NewBus(rg.hs(25 * types.MHz))
	rg.b.Reset()
	err := bus.Init(make([]uint32, HSFIFODepthWords-1))
	if !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("err = %v", err)
	}
	if len(rg.b.Events) != 0 || bus.Peripheral().State() != Unpowered {
		t.Fatalf("hardware touched: %v", rg.b.Events)
	}
}

func TestUnsupportedPHYReference(t *testing.T) {
	rg := newRig()
	hs := rg.hs(26 * types.MHz)
	hs.Enable()
	expectHalt(t, errcode.UnsupportedPHYRef, func() { hs.CalibratePHY() })
	if rg.b.Index("phyc", "ldo_on") >= 0 || rg.b.Index("rcc", "apb2enr+31") >= 0 {
		t.Fatalf("PHY touched before the reference was checked: %v", rg.b.Events)
	}
}

func TestCalibrateBeforeEnableHalts(t *testing.T) {
	rg := newRig()
	hs := rg.hs(25 * types.MHz)
	expectHalt(t, errcode.InvalidConfig, func() { hs.CalibratePHY() })
}

func TestWrongPinsHalt(t *testing.T) {
	rg := newRig()
	expectHalt(t, errcode.InvalidPin, func() {
		NewFS(rg.b.P.OTG_FS, rg.gpioa.P10.IntoAlternateAF10(), rg.gpioa.P12.IntoAlternateAF10(), rg.clk, rg.r)
	})
	expectHalt(t, errcode.InvalidPin, func() {
		NewHS(rg.b.P.OTG_HS, rg.b.P.USBPHYC, rg.gpiob.P15.IntoAlternateAF12(), rg.gpiob.P14.IntoAlternateAF12(), rg.clk, rg.r, 25*types.MHz)
	})
}

func TestPLL1Sel(t *testing.T) {
	tests := []struct {
		ref  types.Hertz
		want uint32
	}{
		{12 * types.MHz, 0b000},
		{12_500 * types.KHz, 0b001},
		{16 * types.MHz, 0b011},
		{24 * types.MHz, 0b100},
		{25 * types.MHz, 0b101},
	}
	for _, tt := range tests {
		got, ok := PLL1Sel(tt.ref)
		if !ok || got != tt.want {
			t.Fatalf("PLL1Sel(%d) = %03b, %v", tt.ref, got, ok)
		}
	}
	if _, ok := PLL1Sel(8 * types.MHz); ok {
		t.Fatalf("8 MHz accepted")
	}
}

func TestStateNames(t *testing.T) {
	names := map[State]string{Unpowered: "unpowered", Enabled: "enabled", Reset: "reset", PHYCalibrated: "phy-calibrated", Ready: "ready"}
	for s, n := range names {
		if s.String() != n {
			t.Fatalf("%d: %s", s, s.String())
		}
	}
}
