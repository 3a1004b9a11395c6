//go:build !baremetal

package stm32

// gpioPorts remembers which port each simulated GPIO block was issued as.
var gpioPorts = map[*GPIO_Type]int{}

// GPIOIndex returns the port number (0 for GPIOA) of a GPIO block.
func GPIOIndex(regs *GPIO_Type) (int, bool) {
	i, ok := gpioPorts[regs]
	return i, ok
}

// steal allocates a zeroed register file. Reset values the HAL depends on are
// seeded the way the silicon comes out of reset.
func steal() *Peripherals {
	p := &Peripherals{
		RCC:     new(RCC_Type),
		PWR:     new(PWR_Type),
		FLASH:   new(FLASH_Type),
		I2C1:    new(I2C_Type),
		I2C2:    new(I2C_Type),
		I2C3:    new(I2C_Type),
		OTG_FS:  new(OTG_GLOBAL_Type),
		OTG_HS:  new(OTG_GLOBAL_Type),
		USBPHYC: new(USBPHYC_Type),
	}
	for i := range p.GPIO {
		p.GPIO[i] = new(GPIO_Type)
		gpioPorts[p.GPIO[i]] = i
	}
	// HSI on and ready, SYSCLK from HSI.
	p.RCC.CR.Reg = RCC_CR_HSION | RCC_CR_HSIRDY
	p.RCC.PLLCFGR.Reg = 0x24003010
	p.PWR.CR1.Reg = 0x3 << PWR_CR1_VOS_Pos
	// Debug pins PA13/PA14/PA15 and PB3/PB4 come up in AF mode.
	p.GPIO[0].MODER.Reg = 0xA8000000
	p.GPIO[1].MODER.Reg = 0x00000280
	p.OTG_FS.GRSTCTL.Reg = OTG_GRSTCTL_AHBIDL
	p.OTG_HS.GRSTCTL.Reg = OTG_GRSTCTL_AHBIDL
	return p
}
