// Package otg brings the USB OTG controllers up to the point where a device
// stack can take over: clocks on, core reset and, for the high-speed core,
// the internal UTMI PHY calibrated.
//
// FS and HS share one capability interface so a generic bus front-end can
// drive either.
package otg

import (
	"f7hal/device/stm32"
	"f7hal/types"
	"f7hal/x/logx"
)

// State is where a controller is in its bring-up.
type State uint8

const (
	Unpowered State = iota
	Enabled
	Reset
	PHYCalibrated
	Ready
)

func (s State) String() string {
	switch s {
	case Unpowered:
		return "unpowered"
	case Enabled:
		return "enabled"
	case Reset:
		return "reset"
	case PHYCalibrated:
		return "phy-calibrated"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Peripheral is what a USB device stack needs to know about a controller.
type Peripheral interface {
	// RegisterBase is the address of the core global registers.
	RegisterBase() uintptr
	Global() *stm32.OTG_GLOBAL_Type
	// AHBFrequency is the bus clock the core runs from (HCLK).
	AHBFrequency() types.Hertz
	Speed() types.Speed
	FIFODepthWords() int
	EndpointCount() int
	// Enable turns the core clock on and pulses its reset.
	Enable()
	State() State
}

// PHYCalibrator is implemented by controllers with an on-chip PHY that has
// to be started after the core is enabled.
type PHYCalibrator interface {
	CalibratePHY()
}

// core is the state both variants share.
type core struct {
	name   string
	global *stm32.OTG_GLOBAL_Type
	hclk   types.Hertz
	state  State
}

func (c *core) RegisterBase() uintptr          { return stm32.BaseOf(c.global) }
func (c *core) Global() *stm32.OTG_GLOBAL_Type { return c.global }
func (c *core) AHBFrequency() types.Hertz      { return c.hclk }
func (c *core) State() State                   { return c.state }

func (c *core) moveTo(s State) {
	logx.Debugf("otg", "%s: %s -> %s", c.name, c.state.String(), s.String())
	c.state = s
}
