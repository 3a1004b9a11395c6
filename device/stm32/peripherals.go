package stm32

import "unsafe"

// Port count modelled for the F72x/F73x (GPIOA..GPIOI).
const NumPorts = 9

// Peripherals is the set of register blocks the HAL owns. It is issued once
// per boot by Take; every handle built from it takes exclusive ownership of
// the block it wraps.
type Peripherals struct {
	RCC     *RCC_Type
	PWR     *PWR_Type
	FLASH   *FLASH_Type
	GPIO    [NumPorts]*GPIO_Type
	I2C1    *I2C_Type
	I2C2    *I2C_Type
	I2C3    *I2C_Type
	OTG_FS  *OTG_GLOBAL_Type
	OTG_HS  *OTG_GLOBAL_Type
	USBPHYC *USBPHYC_Type
}

var taken bool

// Take returns the peripheral set the first time it is called and nil, false
// afterwards.
func Take() (*Peripherals, bool) {
	if taken {
		return nil, false
	}
	taken = true
	return steal(), true
}

// Steal returns the peripheral set without the ownership check. Using it next
// to Take aliases every block; it exists for board bring-up code that runs
// before Take and for host tests, where each call yields a fresh simulated
// register file.
func Steal() *Peripherals { return steal() }

// BaseOf returns the bus address of a register block (the heap address of
// the simulated block on the host).
func BaseOf[T any](block *T) uintptr { return uintptr(unsafe.Pointer(block)) }
