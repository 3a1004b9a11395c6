//go:build !baremetal

package sim

import (
	"strconv"

	"f7hal/device/stm32"
	"f7hal/x/mmio"
)

// RCC simulates the reset and clock controller together with PWR and FLASH.
// Ready flags follow their enable bits unless a fault is injected.
type RCC struct {
	b     *Board
	r     *stm32.RCC_Type
	pwr   *stm32.PWR_Type
	flash *stm32.FLASH_Type

	// Fault injection.
	HSEDead       bool // HSERDY never rises
	PLLDead       bool // PLLRDY never rises
	SwitchStuck   bool // SWS never follows SW
	OverDriveDead bool // ODRDY never rises

	// HSEDelay is how many CR loads pass before HSERDY rises.
	HSEDelay int

	// Violations lists ordering rules the code under test broke.
	Violations []string

	hsePending bool
	hseLoads   int
	crLoads    int
}

func newRCC(b *Board) *RCC {
	s := &RCC{b: b, r: b.P.RCC, pwr: b.P.PWR, flash: b.P.FLASH}
	for _, reg := range []*mmio.Register32{
		&s.r.CR, &s.r.CFGR, &s.r.PLLCFGR,
		&s.r.AHB1ENR, &s.r.AHB2ENR, &s.r.APB1ENR, &s.r.APB2ENR,
		&s.r.AHB1RSTR, &s.r.AHB2RSTR, &s.r.APB1RSTR, &s.r.APB2RSTR,
		&s.r.DCKCFGR2,
		&s.pwr.CR1, &s.flash.ACR,
	} {
		reg.Attach(s)
	}
	return s
}

// CRLoads is how many times RCC_CR has been read, which bounds every
// oscillator and PLL ready poll.
func (s *RCC) CRLoads() int { return s.crLoads }

func (s *RCC) violate(what string) { s.Violations = append(s.Violations, what) }

func (s *RCC) OnLoad(r *mmio.Register32, cur uint32) uint32 {
	if r == &s.r.CR {
		s.crLoads++
		if s.hsePending {
			s.hseLoads++
			if s.hseLoads > s.HSEDelay {
				s.hsePending = false
				r.Reg |= stm32.RCC_CR_HSERDY
				s.b.record("rcc", "hse_ready")
			}
		}
		return r.Reg
	}
	return cur
}

const crReadOnly = stm32.RCC_CR_HSIRDY | stm32.RCC_CR_HSERDY | stm32.RCC_CR_PLLRDY

func (s *RCC) OnStore(r *mmio.Register32, old, v uint32) uint32 {
	switch r {
	case &s.r.CR:
		return s.storeCR(old, v)
	case &s.r.CFGR:
		return s.storeCFGR(old, v)
	case &s.r.PLLCFGR:
		if s.r.CR.Reg&stm32.RCC_CR_PLLON != 0 {
			s.violate("PLLCFGR written while PLL on")
		}
		s.b.record("rcc", "pllcfgr")
	case &s.pwr.CR1:
		return s.storePWR(old, v)
	case &s.flash.ACR:
		if (old^v)&stm32.FLASH_ACR_LATENCY_Msk != 0 {
			s.b.record("flash", "latency="+strconv.Itoa(int(v&stm32.FLASH_ACR_LATENCY_Msk)))
		}
	default:
		s.recordGates(r, old, v)
	}
	return v
}

func (s *RCC) storeCR(old, v uint32) uint32 {
	v = v&^crReadOnly | old&crReadOnly
	if rose(old, v, stm32.RCC_CR_HSEBYP) && v&stm32.RCC_CR_HSEON != 0 && old&stm32.RCC_CR_HSEON != 0 {
		s.violate("HSEBYP changed while HSE on")
	}
	if rose(old, v, stm32.RCC_CR_HSION) {
		v |= stm32.RCC_CR_HSIRDY
	}
	if rose(old, v, stm32.RCC_CR_HSEON) {
		s.b.record("rcc", "hse_on")
		if !s.HSEDead {
			if s.HSEDelay == 0 {
				v |= stm32.RCC_CR_HSERDY
				s.b.record("rcc", "hse_ready")
			} else {
				s.hsePending, s.hseLoads = true, 0
			}
		}
	}
	if fell(old, v, stm32.RCC_CR_HSEON) {
		v &^= stm32.RCC_CR_HSERDY
		s.hsePending = false
	}
	if rose(old, v, stm32.RCC_CR_PLLON) {
		s.b.record("rcc", "pll_on")
		if !s.PLLDead {
			v |= stm32.RCC_CR_PLLRDY
		}
	}
	if fell(old, v, stm32.RCC_CR_PLLON) {
		s.b.record("rcc", "pll_off")
		v &^= stm32.RCC_CR_PLLRDY
	}
	return v
}

var swNames = [...]string{"sw=hsi", "sw=hse", "sw=pll", "sw=?"}

func (s *RCC) storeCFGR(old, v uint32) uint32 {
	const swsMask = stm32.RCC_CFGR_SWS_Msk << stm32.RCC_CFGR_SWS_Pos
	sw := v >> stm32.RCC_CFGR_SW_Pos & stm32.RCC_CFGR_SW_Msk
	if sw != old>>stm32.RCC_CFGR_SW_Pos&stm32.RCC_CFGR_SW_Msk {
		s.b.record("rcc", swNames[sw])
		switch sw {
		case stm32.RCC_CFGR_SW_PLL:
			if s.r.CR.Reg&stm32.RCC_CR_PLLRDY == 0 {
				s.violate("SYSCLK switched to PLL before lock")
			}
		case stm32.RCC_CFGR_SW_HSE:
			if s.r.CR.Reg&stm32.RCC_CR_HSERDY == 0 {
				s.violate("SYSCLK switched to HSE before ready")
			}
		}
	}
	if s.SwitchStuck {
		return v&^swsMask | old&swsMask
	}
	return v&^swsMask | sw<<stm32.RCC_CFGR_SWS_Pos
}

func (s *RCC) storePWR(old, v uint32) uint32 {
	csr := &s.pwr.CSR1
	if v&(stm32.PWR_CR1_VOS_Msk<<stm32.PWR_CR1_VOS_Pos) != 0 {
		csr.Reg |= stm32.PWR_CSR1_VOSRDY
	}
	if rose(old, v, stm32.PWR_CR1_ODEN) {
		s.b.record("pwr", "oden")
		if s.r.CR.Reg&stm32.RCC_CR_PLLRDY == 0 && s.r.CR.Reg&stm32.RCC_CR_PLLON != 0 {
			s.violate("over-drive enabled before PLL lock")
		}
		if !s.OverDriveDead {
			csr.Reg |= stm32.PWR_CSR1_ODRDY
		}
	}
	if rose(old, v, stm32.PWR_CR1_ODSWEN) {
		s.b.record("pwr", "odswen")
		if csr.Reg&stm32.PWR_CSR1_ODRDY == 0 {
			s.violate("over-drive switch before ODRDY")
		} else {
			csr.Reg |= stm32.PWR_CSR1_ODSWRDY
		}
	}
	return v
}

func (s *RCC) regName(r *mmio.Register32) string {
	switch r {
	case &s.r.AHB1ENR:
		return "ahb1enr"
	case &s.r.AHB2ENR:
		return "ahb2enr"
	case &s.r.APB1ENR:
		return "apb1enr"
	case &s.r.APB2ENR:
		return "apb2enr"
	case &s.r.AHB1RSTR:
		return "ahb1rstr"
	case &s.r.AHB2RSTR:
		return "ahb2rstr"
	case &s.r.APB1RSTR:
		return "apb1rstr"
	case &s.r.APB2RSTR:
		return "apb2rstr"
	case &s.r.DCKCFGR2:
		return "dckcfgr2"
	}
	return "?"
}

// recordGates logs every bit that changes in an enable or reset register as
// "<reg>+<bit>" or "<reg>-<bit>".
func (s *RCC) recordGates(r *mmio.Register32, old, v uint32) {
	name := s.regName(r)
	for bit := uint32(0); bit < 32; bit++ {
		m := uint32(1) << bit
		switch {
		case rose(old, v, m):
			s.b.record("rcc", name+"+"+strconv.Itoa(int(bit)))
		case fell(old, v, m):
			s.b.record("rcc", name+"-"+strconv.Itoa(int(bit)))
		}
	}
}
