//go:build baremetal

package stm32

import "unsafe"

func steal() *Peripherals {
	p := &Peripherals{
		RCC:     (*RCC_Type)(unsafe.Pointer(uintptr(RCC_BASE))),
		PWR:     (*PWR_Type)(unsafe.Pointer(uintptr(PWR_BASE))),
		FLASH:   (*FLASH_Type)(unsafe.Pointer(uintptr(FLASH_BASE))),
		I2C1:    (*I2C_Type)(unsafe.Pointer(uintptr(I2C1_BASE))),
		I2C2:    (*I2C_Type)(unsafe.Pointer(uintptr(I2C2_BASE))),
		I2C3:    (*I2C_Type)(unsafe.Pointer(uintptr(I2C3_BASE))),
		OTG_FS:  (*OTG_GLOBAL_Type)(unsafe.Pointer(uintptr(OTG_FS_BASE))),
		OTG_HS:  (*OTG_GLOBAL_Type)(unsafe.Pointer(uintptr(OTG_HS_BASE))),
		USBPHYC: (*USBPHYC_Type)(unsafe.Pointer(uintptr(USBPHYC_BASE))),
	}
	for i := range p.GPIO {
		p.GPIO[i] = (*GPIO_Type)(unsafe.Pointer(uintptr(GPIOA_BASE + i*GPIO_STRIDE)))
	}
	return p
}

// GPIOIndex returns the port number (0 for GPIOA) of a GPIO block from its
// bus address.
func GPIOIndex(regs *GPIO_Type) (int, bool) {
	base := BaseOf(regs)
	if base < GPIOA_BASE || (base-GPIOA_BASE)%GPIO_STRIDE != 0 {
		return 0, false
	}
	i := int((base - GPIOA_BASE) / GPIO_STRIDE)
	return i, i < NumPorts
}
