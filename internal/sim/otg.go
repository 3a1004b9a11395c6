//go:build !baremetal

package sim

import (
	"strconv"

	"f7hal/device/stm32"
	"f7hal/x/mmio"
)

// OTG simulates the global reset logic of both OTG cores and the internal
// high-speed PHY controller.
type OTG struct {
	b   *Board
	fs  *stm32.OTG_GLOBAL_Type
	hs  *stm32.OTG_GLOBAL_Type
	phy *stm32.USBPHYC_Type

	// LDODelay is how many LDO loads pass before LDO_STATUS rises.
	LDODelay int
	// ResetLoads is how many GRSTCTL loads a core soft reset takes.
	ResetLoads int

	// Violations lists ordering rules the code under test broke.
	Violations []string

	ldoPending bool
	ldoLoads   int
	ldoSeen    bool
	ldoLoadsN  int

	fsReset, hsReset int
}

func newOTG(b *Board) *OTG {
	s := &OTG{b: b, fs: b.P.OTG_FS, hs: b.P.OTG_HS, phy: b.P.USBPHYC, ResetLoads: 2}
	for _, reg := range []*mmio.Register32{
		&s.fs.GRSTCTL, &s.hs.GRSTCTL,
		&s.phy.PLL1, &s.phy.TUNE, &s.phy.LDO,
	} {
		reg.Attach(s)
	}
	return s
}

// LDOLoads is how many times the LDO register has been read.
func (s *OTG) LDOLoads() int { return s.ldoLoadsN }

func (s *OTG) violate(what string) { s.Violations = append(s.Violations, what) }

func (s *OTG) OnLoad(r *mmio.Register32, cur uint32) uint32 {
	switch r {
	case &s.fs.GRSTCTL:
		return s.loadReset(r, &s.fsReset, "otg_fs")
	case &s.hs.GRSTCTL:
		return s.loadReset(r, &s.hsReset, "otg_hs")
	case &s.phy.LDO:
		s.ldoLoadsN++
		if s.ldoPending {
			s.ldoLoads++
			if s.ldoLoads > s.LDODelay {
				s.ldoPending = false
				r.Reg |= stm32.USBPHYC_LDO_STATUS
				s.b.record("phyc", "ldo_ready")
			}
		}
		if r.Reg&stm32.USBPHYC_LDO_STATUS != 0 && !s.ldoSeen {
			s.ldoSeen = true
			s.b.record("phyc", "ldo_ready_seen")
		}
		return r.Reg
	}
	return cur
}

func (s *OTG) loadReset(r *mmio.Register32, pending *int, block string) uint32 {
	if *pending > 0 {
		*pending--
		if *pending == 0 {
			r.Reg &^= stm32.OTG_GRSTCTL_CSRST
			s.b.record(block, "csrst_done")
		}
	}
	return r.Reg
}

func (s *OTG) OnStore(r *mmio.Register32, old, v uint32) uint32 {
	switch r {
	case &s.fs.GRSTCTL:
		return s.storeReset(old, v, &s.fsReset, "otg_fs", s.b.P.RCC.AHB2ENR.Reg&stm32.RCC_AHB2ENR_OTGFSEN != 0)
	case &s.hs.GRSTCTL:
		if v&stm32.OTG_GRSTCTL_CSRST != 0 && s.phy.PLL1.Reg&stm32.USBPHYC_PLL1_PLL1EN == 0 {
			s.violate("HS core reset before PHY PLL enabled")
		}
		return s.storeReset(old, v, &s.hsReset, "otg_hs", s.b.P.RCC.AHB1ENR.Reg&stm32.RCC_AHB1ENR_OTGHSEN != 0)
	case &s.phy.LDO:
		s.checkPHYClock()
		v = v&^(stm32.USBPHYC_LDO_STATUS|stm32.USBPHYC_LDO_USED) | old&(stm32.USBPHYC_LDO_STATUS|stm32.USBPHYC_LDO_USED)
		if rose(old, v, stm32.USBPHYC_LDO_DISABLE) {
			s.b.record("phyc", "ldo_on")
			s.ldoPending, s.ldoLoads = true, 0
		}
	case &s.phy.PLL1:
		s.checkPHYClock()
		sel := v >> stm32.USBPHYC_PLL1_PLL1SEL_Pos & stm32.USBPHYC_PLL1_PLL1SEL_Msk
		if sel != old>>stm32.USBPHYC_PLL1_PLL1SEL_Pos&stm32.USBPHYC_PLL1_PLL1SEL_Msk {
			s.b.record("phyc", "pll1sel="+strconv.Itoa(int(sel)))
		}
		if rose(old, v, stm32.USBPHYC_PLL1_PLL1EN) {
			s.b.record("phyc", "pll1en")
			if !s.ldoSeen {
				s.violate("PLL1EN before LDO ready")
			}
		}
	case &s.phy.TUNE:
		s.checkPHYClock()
		s.b.record("phyc", "tune=0x"+strconv.FormatUint(uint64(v), 16))
	}
	return v
}

func (s *OTG) storeReset(old, v uint32, pending *int, block string, clocked bool) uint32 {
	v = v&^stm32.OTG_GRSTCTL_AHBIDL | old&stm32.OTG_GRSTCTL_AHBIDL
	if rose(old, v, stm32.OTG_GRSTCTL_CSRST) {
		s.b.record(block, "csrst")
		if !clocked {
			s.violate(block + " core reset with clock gated")
		}
		*pending = s.ResetLoads
		if *pending == 0 {
			v &^= stm32.OTG_GRSTCTL_CSRST
		}
	}
	return v
}

func (s *OTG) checkPHYClock() {
	if s.b.P.RCC.APB2ENR.Reg&stm32.RCC_APB2ENR_OTGPHYCEN == 0 {
		s.violate("USBPHYC written with clock gated")
	}
}
