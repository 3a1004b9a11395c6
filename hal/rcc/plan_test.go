package rcc

import (
	"errors"
	"testing"

	"f7hal/errcode"
	"f7hal/types"
)

const mhz = types.MHz

func TestSolveKnownPlans(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want Settings
	}{
		{
			name: "f723 disco 216 MHz from 25 MHz bypass",
			plan: Plan{HSE: &HSE{25 * mhz, Bypass}, SYSCLK: 216 * mhz, UsePLL: true, UsePLL48: true},
			want: Settings{
				Source: SourcePLL, PLLSource: SourceHSE,
				PLLM: 25, PLLN: 432, PLLP: 2, PLLQ: 9,
				HPRE: 1, PPRE1: 4, PPRE2: 2,
				FlashLatency: 7, OverDrive: true, PLL48: true,
				SYSCLK: 216 * mhz, HCLK: 216 * mhz, PCLK1: 54 * mhz, PCLK2: 108 * mhz, PLL48CLK: 48 * mhz,
			},
		},
		{
			name: "216 MHz from HSI",
			plan: Plan{SYSCLK: 216 * mhz, UsePLL48: true},
			want: Settings{
				Source: SourcePLL, PLLSource: SourceHSI,
				PLLM: 8, PLLN: 216, PLLP: 2, PLLQ: 9,
				HPRE: 1, PPRE1: 4, PPRE2: 2,
				FlashLatency: 7, OverDrive: true, PLL48: true,
				SYSCLK: 216 * mhz, HCLK: 216 * mhz, PCLK1: 54 * mhz, PCLK2: 108 * mhz, PLL48CLK: 48 * mhz,
			},
		},
		{
			name: "HSE straight to SYSCLK",
			plan: Plan{HSE: &HSE{25 * mhz, Oscillator}},
			want: Settings{
				Source: SourceHSE, PLLSource: SourceHSE,
				HPRE: 1, PPRE1: 1, PPRE2: 1,
				SYSCLK: 25 * mhz, HCLK: 25 * mhz, PCLK1: 25 * mhz, PCLK2: 25 * mhz,
			},
		},
		{
			name: "reset default",
			plan: Plan{},
			want: Settings{
				Source: SourceHSI, PLLSource: SourceHSI,
				HPRE: 1, PPRE1: 1, PPRE2: 1,
				SYSCLK: 16 * mhz, HCLK: 16 * mhz, PCLK1: 16 * mhz, PCLK2: 16 * mhz,
			},
		},
		{
			name: "divided buses",
			plan: Plan{SYSCLK: 16 * mhz, HCLK: 8 * mhz, PCLK1: 2 * mhz, PCLK2: 4 * mhz},
			want: Settings{
				Source: SourceHSI, PLLSource: SourceHSI,
				HPRE: 2, PPRE1: 4, PPRE2: 2,
				SYSCLK: 16 * mhz, HCLK: 8 * mhz, PCLK1: 2 * mhz, PCLK2: 4 * mhz,
			},
		},
	}
	for _, tt := range tests {
		got, err := tt.plan.Solve()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s:\n got %+v\nwant %+v", tt.name, got, tt.want)
		}
	}
}

func TestSolveRejects(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
	}{
		{"sysclk above max", Plan{SYSCLK: 250 * mhz}},
		{"hclk above max", Plan{SYSCLK: 216 * mhz, HCLK: 240 * mhz}},
		{"pclk1 above max", Plan{SYSCLK: 216 * mhz, PCLK1: 60 * mhz}},
		{"pclk2 above max", Plan{SYSCLK: 216 * mhz, PCLK2: 120 * mhz}},
		{"crystal too fast", Plan{HSE: &HSE{30 * mhz, Oscillator}}},
		{"bypass too slow", Plan{HSE: &HSE{500 * types.KHz, Bypass}}},
		{"below PLL range", Plan{SYSCLK: 8 * mhz}},
	}
	for _, tt := range tests {
		_, err := tt.plan.Solve()
		if !errors.Is(err, errcode.InvalidClockPlan) {
			t.Fatalf("%s: err = %v, want %s", tt.name, err, errcode.InvalidClockPlan)
		}
	}
}

// Every solved plan must respect the device limits whatever the request.
func TestSolveStaysInLimits(t *testing.T) {
	sources := []*HSE{nil, {8 * mhz, Oscillator}, {12 * mhz, Oscillator}, {25 * mhz, Bypass}, {26 * mhz, Oscillator}}
	targets := []types.Hertz{24, 32, 48, 72, 84, 96, 100, 120, 144, 168, 180, 192, 200, 216}

	for _, src := range sources {
		srcFreq := HSIFreq
		if src != nil {
			srcFreq = src.Freq
		}
		for _, tmhz := range targets {
			for _, need48 := range []bool{false, true} {
				target := tmhz * mhz
				p := Plan{HSE: src, SYSCLK: target, UsePLL48: need48}
				s, err := p.Solve()
				if err != nil {
					if !need48 {
						t.Fatalf("src=%d target=%d: %v", srcFreq, target, err)
					}
					continue
				}
				if s.SYSCLK > target || s.SYSCLK > MaxSYSCLK {
					t.Fatalf("src=%d target=%d: sysclk %d", srcFreq, target, s.SYSCLK)
				}
				// A 1 MHz VCO input reaches every whole-MHz target; tying Q
				// to 48 MHz costs at most 10 %.
				if !need48 && s.SYSCLK != target {
					t.Fatalf("src=%d target=%d: sysclk %d, want exact", srcFreq, target, s.SYSCLK)
				}
				if need48 && (target-s.SYSCLK)*10 > target {
					t.Fatalf("src=%d target=%d: sysclk %d with 48 MHz", srcFreq, target, s.SYSCLK)
				}
				if s.HCLK > MaxHCLK || s.PCLK1 > MaxPCLK1 || s.PCLK2 > MaxPCLK2 {
					t.Fatalf("src=%d target=%d: bus over limit %+v", srcFreq, target, s)
				}
				if s.PCLK1 > s.HCLK || s.PCLK2 > s.HCLK {
					t.Fatalf("src=%d target=%d: APB above AHB %+v", srcFreq, target, s)
				}
				if s.Source == SourcePLL {
					vin := uint64(srcFreq) / uint64(s.PLLM)
					vco := uint64(srcFreq) * uint64(s.PLLN) / uint64(s.PLLM)
					if vin < 1_000_000 || vin > 2_000_000 {
						t.Fatalf("src=%d target=%d: VCO input %d", srcFreq, target, vin)
					}
					if vco < 100_000_000 || vco > 432_000_000 {
						t.Fatalf("src=%d target=%d: VCO %d", srcFreq, target, vco)
					}
					if s.PLLN < 50 || s.PLLN > 432 || s.PLLQ < 2 || s.PLLQ > 15 {
						t.Fatalf("src=%d target=%d: dividers %+v", srcFreq, target, s)
					}
					switch s.PLLP {
					case 2, 4, 6, 8:
					default:
						t.Fatalf("src=%d target=%d: PLLP %d", srcFreq, target, s.PLLP)
					}
				}
				if need48 {
					d := int64(s.PLL48CLK) - int64(PLL48Freq)
					if d < 0 {
						d = -d
					}
					if d*400 > int64(PLL48Freq) {
						t.Fatalf("src=%d target=%d: 48 MHz domain at %d", srcFreq, target, s.PLL48CLK)
					}
				}
				if uint64(s.HCLK) > uint64(s.FlashLatency+1)*30_000_000 {
					t.Fatalf("src=%d target=%d: %d wait states at %d", srcFreq, target, s.FlashLatency, s.HCLK)
				}
				if s.OverDrive != (s.HCLK > 180*mhz) {
					t.Fatalf("src=%d target=%d: over-drive %v at %d", srcFreq, target, s.OverDrive, s.HCLK)
				}
			}
		}
	}
}

func TestFlashLatency(t *testing.T) {
	tests := []struct {
		hclk types.Hertz
		want uint32
	}{
		{16 * mhz, 0},
		{30 * mhz, 0},
		{30*mhz + 1, 1},
		{90 * mhz, 2},
		{180 * mhz, 5},
		{216 * mhz, 7},
	}
	for _, tt := range tests {
		if got := FlashLatency(tt.hclk); got != tt.want {
			t.Fatalf("FlashLatency(%d) = %d, want %d", tt.hclk, got, tt.want)
		}
	}
}

func TestEncodings(t *testing.T) {
	if hpreBits(1) != 0 || hpreBits(2) != 0b1000 || hpreBits(512) != 0b1111 {
		t.Fatalf("hpre encodings")
	}
	if ppreBits(1) != 0 || ppreBits(4) != 0b101 || ppreBits(16) != 0b111 {
		t.Fatalf("ppre encodings")
	}
	if pllpBits(2) != 0 || pllpBits(8) != 3 {
		t.Fatalf("pllp encodings")
	}
}
