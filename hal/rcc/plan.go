package rcc

import (
	"f7hal/errcode"
	"f7hal/types"
	"f7hal/x/fmtx"
	"f7hal/x/mathx"
)

// HSIFreq is the frequency of the internal RC oscillator.
const HSIFreq = 16 * types.MHz

// Device limits (RM0431, VOS scale 1 with over-drive).
const (
	MaxSYSCLK = 216 * types.MHz
	MaxHCLK   = 216 * types.MHz
	MaxPCLK1  = 54 * types.MHz
	MaxPCLK2  = 108 * types.MHz

	PLL48Freq = 48 * types.MHz

	minVCOIn  = 1 * types.MHz
	maxVCOIn  = 2 * types.MHz
	minVCOOut = 100 * types.MHz
	maxVCOOut = 432 * types.MHz
	minPLLM   = 2
	maxPLLM   = 63
	minPLLN   = 50
	maxPLLN   = 432
	minPLLQ   = 2
	maxPLLQ   = 15

	// 48 MHz domain tolerance for USB full speed: 0.25 %.
	pll48PPM = 2500

	flashWaitStep   = 30 * types.MHz // per wait state at 2.7-3.6 V
	maxFlashLatency = 7
	overDriveAbove  = 180 * types.MHz
)

// Mode selects how the external clock is fed.
type Mode uint8

const (
	// Oscillator drives a crystal or resonator on OSC_IN/OSC_OUT.
	Oscillator Mode = iota
	// Bypass takes an external clock signal on OSC_IN.
	Bypass
)

// HSE describes the external high-speed clock.
type HSE struct {
	Freq types.Hertz
	Mode Mode
}

func (h HSE) validate() error {
	lo, hi := 4*types.MHz, 26*types.MHz
	if h.Mode == Bypass {
		lo, hi = 1*types.MHz, 50*types.MHz
	}
	if !mathx.Between(h.Freq, lo, hi) {
		return errcode.Wrap(errcode.InvalidClockPlan, "rcc.plan", fmtx.Sprintf("HSE %d Hz outside %d..%d", uint32(h.Freq), uint32(lo), uint32(hi)))
	}
	return nil
}

// Source is a SYSCLK mux input.
type Source uint8

const (
	SourceHSI Source = iota
	SourceHSE
	SourcePLL
)

func (s Source) String() string {
	switch s {
	case SourceHSE:
		return "hse"
	case SourcePLL:
		return "pll"
	default:
		return "hsi"
	}
}

// Plan is a requested clock configuration. Zero frequencies mean "as fast as
// allowed" for the buses and "the source frequency" for SYSCLK.
type Plan struct {
	HSE      *HSE
	SYSCLK   types.Hertz
	HCLK     types.Hertz
	PCLK1    types.Hertz
	PCLK2    types.Hertz
	UsePLL   bool
	UsePLL48 bool
}

// Settings is a solved plan: register field values and the frequencies they
// produce.
type Settings struct {
	Source    Source // SYSCLK mux
	PLLSource Source // HSI or HSE, meaningful when Source is SourcePLL

	PLLM, PLLN, PLLP, PLLQ uint32

	HPRE, PPRE1, PPRE2 uint32 // divisors, not register encodings

	FlashLatency uint32
	OverDrive    bool
	PLL48        bool

	SYSCLK   types.Hertz
	HCLK     types.Hertz
	PCLK1    types.Hertz
	PCLK2    types.Hertz
	PLL48CLK types.Hertz
}

var (
	ahbDivs = [...]uint32{1, 2, 4, 8, 16, 64, 128, 256, 512}
	apbDivs = [...]uint32{1, 2, 4, 8, 16}
	pllPs   = [...]uint32{2, 4, 6, 8}
)

func planErr(format string, a ...any) error {
	return errcode.Wrap(errcode.InvalidClockPlan, "rcc.plan", fmtx.Sprintf(format, a...))
}

// Solve picks divider settings for p. It never touches hardware.
func (p Plan) Solve() (Settings, error) {
	var s Settings

	src, srcKind := HSIFreq, SourceHSI
	if p.HSE != nil {
		if err := p.HSE.validate(); err != nil {
			return s, err
		}
		src, srcKind = p.HSE.Freq, SourceHSE
	}

	target := p.SYSCLK
	if target == 0 {
		target = src
	}
	if target > MaxSYSCLK {
		return s, planErr("sysclk %d Hz above %d", uint32(target), uint32(MaxSYSCLK))
	}

	if p.UsePLL || p.UsePLL48 || target != src {
		m, n, pp, q, ok := solvePLL(src, target, p.UsePLL48)
		if !ok {
			if p.UsePLL48 {
				return s, planErr("no PLL setting gives sysclk <= %d Hz with a 48 MHz output from %d Hz", uint32(target), uint32(src))
			}
			return s, planErr("no PLL setting gives sysclk <= %d Hz from %d Hz", uint32(target), uint32(src))
		}
		s.Source, s.PLLSource = SourcePLL, srcKind
		s.PLLM, s.PLLN, s.PLLP, s.PLLQ = m, n, pp, q
		vco := uint64(src) * uint64(n) / uint64(m)
		s.SYSCLK = types.Hertz(vco / uint64(pp))
		if p.UsePLL48 {
			s.PLL48 = true
			s.PLL48CLK = types.Hertz(vco / uint64(q))
		}
	} else {
		s.Source, s.PLLSource = srcKind, srcKind
		s.SYSCLK = src
	}

	hclkReq := p.HCLK
	if hclkReq == 0 {
		hclkReq = s.SYSCLK
	}
	if hclkReq > MaxHCLK {
		return s, planErr("hclk %d Hz above %d", uint32(hclkReq), uint32(MaxHCLK))
	}
	var ok bool
	if s.HPRE, s.HCLK, ok = pickDiv(s.SYSCLK, hclkReq, ahbDivs[:]); !ok {
		return s, planErr("no AHB prescaler gives hclk <= %d Hz", uint32(hclkReq))
	}

	if s.PPRE1, s.PCLK1, ok = pickAPB(s.HCLK, p.PCLK1, MaxPCLK1); !ok {
		return s, planErr("pclk1 %d Hz not reachable (max %d)", uint32(p.PCLK1), uint32(MaxPCLK1))
	}
	if s.PPRE2, s.PCLK2, ok = pickAPB(s.HCLK, p.PCLK2, MaxPCLK2); !ok {
		return s, planErr("pclk2 %d Hz not reachable (max %d)", uint32(p.PCLK2), uint32(MaxPCLK2))
	}

	s.FlashLatency = FlashLatency(s.HCLK)
	s.OverDrive = s.HCLK > overDriveAbove
	return s, nil
}

// FlashLatency returns the wait states flash needs at hclk.
func FlashLatency(hclk types.Hertz) uint32 {
	if hclk == 0 {
		return 0
	}
	return mathx.Clamp(uint32((hclk-1)/flashWaitStep), 0, maxFlashLatency)
}

// solvePLL searches M, N, P (and Q when the 48 MHz output is needed) for the
// highest SYSCLK not above target. Ties keep the smaller M.
func solvePLL(src, target types.Hertz, need48 bool) (m, n, p, q uint32, ok bool) {
	var best uint64
	for mm := uint32(minPLLM); mm <= maxPLLM; mm++ {
		if !mathx.Between(uint64(src), uint64(mm)*uint64(minVCOIn), uint64(mm)*uint64(maxVCOIn)) {
			continue
		}
		for _, pp := range pllPs {
			nn := uint32(uint64(target) * uint64(pp) * uint64(mm) / uint64(src))
			nn = mathx.Clamp(nn, 0, maxPLLN)
			for ; nn >= minPLLN; nn-- {
				vco := uint64(src) * uint64(nn) / uint64(mm)
				if vco > uint64(maxVCOOut) {
					continue
				}
				if vco < uint64(minVCOOut) {
					break
				}
				sys := vco / uint64(pp)
				if sys <= best {
					break
				}
				if sys > uint64(target) {
					continue
				}
				qq, qok := pickQ(vco, need48)
				if !qok {
					continue
				}
				best, m, n, p, q, ok = sys, mm, nn, pp, qq, true
				break
			}
		}
	}
	return
}

// pickQ returns the PLLQ divider for vco. With need48 the result must land
// within tolerance of 48 MHz; otherwise Q only keeps the 48 MHz domain from
// running above 48 MHz.
func pickQ(vco uint64, need48 bool) (uint32, bool) {
	if !need48 {
		return mathx.Clamp(uint32(mathx.CeilDiv(vco, uint64(PLL48Freq))), minPLLQ, maxPLLQ), true
	}
	q := mathx.RoundDiv(vco, uint64(PLL48Freq))
	if !mathx.Between(q, minPLLQ, maxPLLQ) {
		return 0, false
	}
	return uint32(q), mathx.WithinPPM(vco/q, uint64(PLL48Freq), pll48PPM)
}

// pickDiv returns the smallest divisor in divs that brings in down to at most want.
func pickDiv(in, want types.Hertz, divs []uint32) (uint32, types.Hertz, bool) {
	for _, d := range divs {
		if out := in / types.Hertz(d); out <= want {
			return d, out, true
		}
	}
	return 0, 0, false
}

func pickAPB(hclk, req, max types.Hertz) (uint32, types.Hertz, bool) {
	if req > max {
		return 0, 0, false
	}
	if req == 0 {
		req = max
	}
	return pickDiv(hclk, req, apbDivs[:])
}

// Register encodings.

func hpreBits(div uint32) uint32 {
	switch div {
	case 2:
		return 0b1000
	case 4:
		return 0b1001
	case 8:
		return 0b1010
	case 16:
		return 0b1011
	case 64:
		return 0b1100
	case 128:
		return 0b1101
	case 256:
		return 0b1110
	case 512:
		return 0b1111
	}
	return 0
}

func ppreBits(div uint32) uint32 {
	switch div {
	case 2:
		return 0b100
	case 4:
		return 0b101
	case 8:
		return 0b110
	case 16:
		return 0b111
	}
	return 0
}

func pllpBits(p uint32) uint32 { return p/2 - 1 }
