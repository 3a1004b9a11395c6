// Package stm32 describes the STM32F72x/F73x register blocks the HAL drives.
//
// Only the blocks and fields used by the bring-up code are modelled. Offsets
// and bit positions follow RM0431. Field names mirror the reference manual
// (and TinyGo's generated device packages) so they can be checked against the
// datasheet directly.
package stm32

import "f7hal/x/mmio"

// Base addresses.
const (
	PWR_BASE     = 0x40007000
	I2C1_BASE    = 0x40005400
	I2C2_BASE    = 0x40005800
	I2C3_BASE    = 0x40005C00
	USBPHYC_BASE = 0x40017C00
	GPIOA_BASE   = 0x40020000
	GPIO_STRIDE  = 0x400
	RCC_BASE     = 0x40023800
	FLASH_BASE   = 0x40023C00
	OTG_HS_BASE  = 0x40040000
	OTG_FS_BASE  = 0x50000000
)

type RCC_Type struct {
	CR         mmio.Register32 // 0x00
	PLLCFGR    mmio.Register32 // 0x04
	CFGR       mmio.Register32 // 0x08
	CIR        mmio.Register32 // 0x0C
	AHB1RSTR   mmio.Register32 // 0x10
	AHB2RSTR   mmio.Register32 // 0x14
	AHB3RSTR   mmio.Register32 // 0x18
	_          [1]mmio.Register32
	APB1RSTR   mmio.Register32 // 0x20
	APB2RSTR   mmio.Register32 // 0x24
	_          [2]mmio.Register32
	AHB1ENR    mmio.Register32 // 0x30
	AHB2ENR    mmio.Register32 // 0x34
	AHB3ENR    mmio.Register32 // 0x38
	_          [1]mmio.Register32
	APB1ENR    mmio.Register32 // 0x40
	APB2ENR    mmio.Register32 // 0x44
	_          [2]mmio.Register32
	AHB1LPENR  mmio.Register32 // 0x50
	AHB2LPENR  mmio.Register32 // 0x54
	AHB3LPENR  mmio.Register32 // 0x58
	_          [1]mmio.Register32
	APB1LPENR  mmio.Register32 // 0x60
	APB2LPENR  mmio.Register32 // 0x64
	_          [2]mmio.Register32
	BDCR       mmio.Register32 // 0x70
	CSR        mmio.Register32 // 0x74
	_          [2]mmio.Register32
	SSCGR      mmio.Register32 // 0x80
	PLLI2SCFGR mmio.Register32 // 0x84
	PLLSAICFGR mmio.Register32 // 0x88
	DCKCFGR1   mmio.Register32 // 0x8C
	DCKCFGR2   mmio.Register32 // 0x90
}

const (
	RCC_CR_HSION  = 1 << 0
	RCC_CR_HSIRDY = 1 << 1
	RCC_CR_HSEON  = 1 << 16
	RCC_CR_HSERDY = 1 << 17
	RCC_CR_HSEBYP = 1 << 18
	RCC_CR_CSSON  = 1 << 19
	RCC_CR_PLLON  = 1 << 24
	RCC_CR_PLLRDY = 1 << 25

	RCC_PLLCFGR_PLLM_Pos   = 0
	RCC_PLLCFGR_PLLM_Msk   = 0x3F
	RCC_PLLCFGR_PLLN_Pos   = 6
	RCC_PLLCFGR_PLLN_Msk   = 0x1FF
	RCC_PLLCFGR_PLLP_Pos   = 16
	RCC_PLLCFGR_PLLP_Msk   = 0x3
	RCC_PLLCFGR_PLLSRC_HSE = 1 << 22
	RCC_PLLCFGR_PLLQ_Pos   = 24
	RCC_PLLCFGR_PLLQ_Msk   = 0xF

	RCC_CFGR_SW_Pos    = 0
	RCC_CFGR_SW_Msk    = 0x3
	RCC_CFGR_SWS_Pos   = 2
	RCC_CFGR_SWS_Msk   = 0x3
	RCC_CFGR_HPRE_Pos  = 4
	RCC_CFGR_HPRE_Msk  = 0xF
	RCC_CFGR_PPRE1_Pos = 10
	RCC_CFGR_PPRE1_Msk = 0x7
	RCC_CFGR_PPRE2_Pos = 13
	RCC_CFGR_PPRE2_Msk = 0x7

	RCC_CFGR_SW_HSI = 0
	RCC_CFGR_SW_HSE = 1
	RCC_CFGR_SW_PLL = 2

	// AHB1ENR / AHB1RSTR share positions for GPIOA..GPIOK (bits 0..10).
	RCC_AHB1ENR_GPIOAEN     = 1 << 0
	RCC_AHB1ENR_OTGHSEN     = 1 << 29
	RCC_AHB1ENR_OTGHSULPIEN = 1 << 30
	RCC_AHB1RSTR_OTGHSRST   = 1 << 29

	RCC_AHB2ENR_OTGFSEN   = 1 << 7
	RCC_AHB2RSTR_OTGFSRST = 1 << 7

	RCC_APB1ENR_I2C1EN = 1 << 21
	RCC_APB1ENR_I2C2EN = 1 << 22
	RCC_APB1ENR_I2C3EN = 1 << 23
	RCC_APB1ENR_PWREN  = 1 << 28

	RCC_APB2ENR_OTGPHYCEN   = 1 << 31
	RCC_APB2RSTR_OTGPHYCRST = 1 << 31

	RCC_DCKCFGR2_CK48MSEL = 1 << 27
)

type PWR_Type struct {
	CR1  mmio.Register32 // 0x00
	CSR1 mmio.Register32 // 0x04
	CR2  mmio.Register32 // 0x08
	CSR2 mmio.Register32 // 0x0C
}

const (
	PWR_CR1_VOS_Pos  = 14
	PWR_CR1_VOS_Msk  = 0x3
	PWR_CR1_ODEN     = 1 << 16
	PWR_CR1_ODSWEN   = 1 << 17
	PWR_CSR1_VOSRDY  = 1 << 14
	PWR_CSR1_ODRDY   = 1 << 16
	PWR_CSR1_ODSWRDY = 1 << 17
)

type FLASH_Type struct {
	ACR     mmio.Register32 // 0x00
	KEYR    mmio.Register32 // 0x04
	OPTKEYR mmio.Register32 // 0x08
	SR      mmio.Register32 // 0x0C
	CR      mmio.Register32 // 0x10
}

const (
	FLASH_ACR_LATENCY_Pos = 0
	FLASH_ACR_LATENCY_Msk = 0xF
	FLASH_ACR_PRFTEN      = 1 << 8
	FLASH_ACR_ARTEN       = 1 << 9
)

type GPIO_Type struct {
	MODER   mmio.Register32 // 0x00
	OTYPER  mmio.Register32 // 0x04
	OSPEEDR mmio.Register32 // 0x08
	PUPDR   mmio.Register32 // 0x0C
	IDR     mmio.Register32 // 0x10
	ODR     mmio.Register32 // 0x14
	BSRR    mmio.Register32 // 0x18
	LCKR    mmio.Register32 // 0x1C
	AFRL    mmio.Register32 // 0x20
	AFRH    mmio.Register32 // 0x24
}

type I2C_Type struct {
	CR1      mmio.Register32 // 0x00
	CR2      mmio.Register32 // 0x04
	OAR1     mmio.Register32 // 0x08
	OAR2     mmio.Register32 // 0x0C
	TIMINGR  mmio.Register32 // 0x10
	TIMEOUTR mmio.Register32 // 0x14
	ISR      mmio.Register32 // 0x18
	ICR      mmio.Register32 // 0x1C
	PECR     mmio.Register32 // 0x20
	RXDR     mmio.Register32 // 0x24
	TXDR     mmio.Register32 // 0x28
}

const (
	I2C_CR1_PE     = 1 << 0
	I2C_CR1_ANFOFF = 1 << 12

	I2C_CR2_SADD_Pos   = 0
	I2C_CR2_SADD_Msk   = 0x3FF
	I2C_CR2_RD_WRN     = 1 << 10
	I2C_CR2_START      = 1 << 13
	I2C_CR2_STOP       = 1 << 14
	I2C_CR2_NBYTES_Pos = 16
	I2C_CR2_NBYTES_Msk = 0xFF
	I2C_CR2_RELOAD     = 1 << 24
	I2C_CR2_AUTOEND    = 1 << 25

	I2C_TIMINGR_SCLL_Pos   = 0
	I2C_TIMINGR_SCLH_Pos   = 8
	I2C_TIMINGR_SDADEL_Pos = 16
	I2C_TIMINGR_SCLDEL_Pos = 20
	I2C_TIMINGR_PRESC_Pos  = 28

	I2C_ISR_TXE   = 1 << 0
	I2C_ISR_TXIS  = 1 << 1
	I2C_ISR_RXNE  = 1 << 2
	I2C_ISR_NACKF = 1 << 4
	I2C_ISR_STOPF = 1 << 5
	I2C_ISR_TC    = 1 << 6
	I2C_ISR_BERR  = 1 << 8
	I2C_ISR_ARLO  = 1 << 9
	I2C_ISR_OVR   = 1 << 10
	I2C_ISR_BUSY  = 1 << 15

	I2C_ICR_NACKCF = 1 << 4
	I2C_ICR_STOPCF = 1 << 5
	I2C_ICR_BERRCF = 1 << 8
	I2C_ICR_ARLOCF = 1 << 9
	I2C_ICR_OVRCF  = 1 << 10
)

// OTG_GLOBAL_Type is the core global register window shared by both OTG
// controllers. Device and power/clock windows are left to the USB stack.
type OTG_GLOBAL_Type struct {
	GOTGCTL  mmio.Register32 // 0x000
	GOTGINT  mmio.Register32 // 0x004
	GAHBCFG  mmio.Register32 // 0x008
	GUSBCFG  mmio.Register32 // 0x00C
	GRSTCTL  mmio.Register32 // 0x010
	GINTSTS  mmio.Register32 // 0x014
	GINTMSK  mmio.Register32 // 0x018
	GRXSTSR  mmio.Register32 // 0x01C
	GRXSTSP  mmio.Register32 // 0x020
	GRXFSIZ  mmio.Register32 // 0x024
	DIEPTXF0 mmio.Register32 // 0x028
	GNPTXSTS mmio.Register32 // 0x02C
	_        [2]mmio.Register32
	GCCFG    mmio.Register32 // 0x038
	CID      mmio.Register32 // 0x03C
}

const (
	OTG_GRSTCTL_CSRST  = 1 << 0
	OTG_GRSTCTL_AHBIDL = 1 << 31
)

// USBPHYC_Type is the controller of the internal high-speed PHY
// (STM32F72x/F73x only).
type USBPHYC_Type struct {
	PLL1 mmio.Register32 // 0x000
	_    [2]mmio.Register32
	TUNE mmio.Register32 // 0x00C
	_    [2]mmio.Register32
	LDO  mmio.Register32 // 0x018
}

const (
	USBPHYC_PLL1_PLL1EN      = 1 << 0
	USBPHYC_PLL1_PLL1SEL_Pos = 1
	USBPHYC_PLL1_PLL1SEL_Msk = 0x7
	USBPHYC_LDO_USED         = 1 << 0
	USBPHYC_LDO_STATUS       = 1 << 1
	USBPHYC_LDO_DISABLE      = 1 << 2
)
