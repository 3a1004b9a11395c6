// Package bringup boots a board from its profile: clock tree, codec bus and
// the USB controller the board routes to its connector.
package bringup

import (
	"f7hal/board"
	"f7hal/device/stm32"
	"f7hal/drivers/wm8994"
	"f7hal/errcode"
	"f7hal/hal/gpio"
	"f7hal/hal/i2c"
	"f7hal/hal/otg"
	"f7hal/hal/rcc"
	"f7hal/x/logx"
)

// System is a board after boot.
type System struct {
	Profile board.Profile
	RCC     *rcc.RCC
	Clocks  rcc.Clocks
	I2C     *i2c.BlockingI2C
	Codec   *wm8994.Device
	USB     otg.Peripheral
}

// Run brings the board up. Boot failures halt inside the HAL; the returned
// error is only set when the USB core refuses its endpoint memory.
func Run(p *stm32.Peripherals, prof board.Profile, epMemory []uint32) (*System, error) {
	r := rcc.Constrain(p.RCC, p.PWR, p.FLASH)
	clk := prof.Apply(&r.CFGR).Freeze()

	gpiob := gpio.Split(p.GPIO[gpio.PortB], gpio.PortB, r)
	scl := gpio.IntoAlternate[gpio.AF4, gpio.OpenDrain](gpiob.P8)
	sda := gpio.IntoAlternate[gpio.AF4, gpio.OpenDrain](gpiob.P9)
	bus := i2c.New(p.I2C1, i2c.I2C1, scl, sda, prof.I2CMode(), clk, r, prof.I2CTimeout)

	s := &System{
		Profile: prof,
		RCC:     r,
		Clocks:  clk,
		I2C:     bus,
		Codec:   wm8994.New(bus),
	}

	var err error
	if prof.USBPHYRefHz != 0 {
		dm := gpiob.P14.IntoAlternateAF12()
		dp := gpiob.P15.IntoAlternateAF12()
		hs := otg.NewHS(p.OTG_HS, p.USBPHYC, dm, dp, clk, r, prof.PHYRef())
		s.USB = hs
		err = otg.NewBus(hs).Init(epMemory)
	} else {
		gpioa := gpio.Split(p.GPIO[gpio.PortA], gpio.PortA, r)
		fs := otg.NewFS(p.OTG_FS, gpioa.P11.IntoAlternateAF10(), gpioa.P12.IntoAlternateAF10(), clk, r)
		s.USB = fs
		err = otg.NewBus(fs).Init(epMemory)
	}
	if err != nil {
		return s, err
	}
	logx.Infof("boot", "%s: sysclk %d Hz, flash %d ws, usb %s", prof.Name, uint32(clk.SYSCLK()), clk.FlashLatency(), s.USB.Speed().String())
	return s, nil
}

// Report is one pass over the codec.
type Report struct {
	ID      uint16
	Volume  uint16
	Written uint16
	After   uint16
}

// Probe reads the codec ID and volume, writes vol and reads it back.
// Retryable bus errors are logged and returned so the caller can try again
// on the next pass.
func (s *System) Probe(vol uint16) (Report, error) {
	var (
		rep Report
		err error
	)
	if rep.ID, err = s.Codec.ReadRegister(wm8994.RegID); err != nil {
		return rep, s.probeFailed("id", err)
	}
	logx.Infof("codec", "device id: %x", rep.ID)

	if rep.Volume, err = s.Codec.Volume(); err != nil {
		return rep, s.probeFailed("volume", err)
	}
	logx.Infof("codec", "vol: %x", rep.Volume)

	if err = s.Codec.SetVolume(vol); err != nil {
		return rep, s.probeFailed("set volume", err)
	}
	rep.Written = vol

	if rep.After, err = s.Codec.Volume(); err != nil {
		return rep, s.probeFailed("volume", err)
	}
	logx.Infof("codec", "vol: %x", rep.After)
	return rep, nil
}

func (s *System) probeFailed(what string, err error) error {
	if errcode.Retryable(err) {
		logx.Warnf("codec", "%s: %s", what, errcode.Of(err))
	} else {
		logx.Errorf("codec", "%s: %v", what, err)
	}
	return err
}
