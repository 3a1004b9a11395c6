// Package board holds the per-board bring-up parameters: oscillator, clock
// targets, bus speed and poll bounds. Profiles are JSON compiled into the
// image.
package board

import (
	"bytes"
	"encoding/json"

	"f7hal/errcode"
	"f7hal/hal/i2c"
	"f7hal/hal/otg"
	"f7hal/hal/rcc"
	"f7hal/types"
	"f7hal/x/fmtx"
)

// Profile describes one board.
type Profile struct {
	Name string `json:"name"`

	HSEHz     uint32 `json:"hse_hz"` // 0: run from HSI
	HSEBypass bool   `json:"hse_bypass"`

	SYSCLKHz uint32 `json:"sysclk_hz"`
	HCLKHz   uint32 `json:"hclk_hz,omitempty"`
	PCLK1Hz  uint32 `json:"pclk1_hz,omitempty"`
	PCLK2Hz  uint32 `json:"pclk2_hz,omitempty"`
	UsePLL48 bool   `json:"use_pll48"`

	// StartupSpins bounds the clock ready polls; 0 keeps the default.
	StartupSpins uint32 `json:"startup_spins,omitempty"`

	I2CHz      uint32 `json:"i2c_hz"`
	I2CTimeout uint32 `json:"i2c_timeout"`

	// USBPHYRefHz is the HS PHY reference; 0 when the board has no HS port.
	USBPHYRefHz uint32 `json:"usb_phy_ref_hz,omitempty"`
}

// ProfileLookup resolves a board name to raw profile JSON. Tests and
// out-of-tree boards can replace it.
var ProfileLookup = func(name string) ([]byte, bool) {
	b, ok := embeddedProfiles[name]
	return b, ok
}

// Lookup returns the validated profile for a named board.
func Lookup(name string) (Profile, error) {
	raw, ok := ProfileLookup(name)
	if !ok || len(raw) == 0 {
		return Profile{}, errcode.Wrap(errcode.UnknownBoard, "board.lookup", name)
	}
	return Decode(raw)
}

// Decode parses and validates a profile. Unknown fields are rejected.
func Decode(raw []byte) (Profile, error) {
	var p Profile
	if err := decodeJSON(raw, &p); err != nil {
		return Profile{}, &errcode.E{C: errcode.InvalidConfig, Op: "board.decode", Err: err}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func decodeJSON[T any](src []byte, dst *T) error {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func invalid(p *Profile, format string, a ...any) error {
	return errcode.Wrap(errcode.InvalidConfig, "board."+p.Name, fmtx.Sprintf(format, a...))
}

// Validate checks the profile against what the HAL can build. It solves the
// clock plan and the I2C timing without touching hardware.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return invalid(p, "missing name")
	}
	s, err := p.Plan().Solve()
	if err != nil {
		return err
	}
	if _, err := i2c.Timing(s.PCLK1, p.I2CMode()); err != nil {
		return err
	}
	if p.I2CTimeout == 0 {
		return invalid(p, "i2c_timeout must be positive")
	}
	if p.USBPHYRefHz != 0 {
		if _, ok := otg.PLL1Sel(types.Hertz(p.USBPHYRefHz)); !ok {
			return errcode.Wrap(errcode.UnsupportedPHYRef, "board."+p.Name, fmtx.Sprintf("%d Hz", p.USBPHYRefHz))
		}
	}
	return nil
}

// HSE returns the external clock description, or nil for HSI boards.
func (p *Profile) HSE() *rcc.HSE {
	if p.HSEHz == 0 {
		return nil
	}
	mode := rcc.Oscillator
	if p.HSEBypass {
		mode = rcc.Bypass
	}
	return &rcc.HSE{Freq: types.Hertz(p.HSEHz), Mode: mode}
}

// Plan is the clock request the profile describes.
func (p *Profile) Plan() rcc.Plan {
	return rcc.Plan{
		HSE:      p.HSE(),
		SYSCLK:   types.Hertz(p.SYSCLKHz),
		HCLK:     types.Hertz(p.HCLKHz),
		PCLK1:    types.Hertz(p.PCLK1Hz),
		PCLK2:    types.Hertz(p.PCLK2Hz),
		UsePLL48: p.UsePLL48,
	}
}

// Apply programs the profile's clock request into c.
func (p *Profile) Apply(c *rcc.CFGR) *rcc.CFGR {
	if h := p.HSE(); h != nil {
		c.HSE(*h)
	}
	c.SYSCLK(types.Hertz(p.SYSCLKHz)).
		HCLK(types.Hertz(p.HCLKHz)).
		PCLK1(types.Hertz(p.PCLK1Hz)).
		PCLK2(types.Hertz(p.PCLK2Hz)).
		StartupSpins(p.StartupSpins)
	if p.UsePLL48 {
		c.UsePLL48Clk()
	}
	return c
}

// I2CMode is the bus speed class for the profile's I2C frequency.
func (p *Profile) I2CMode() i2c.Mode { return i2c.ModeFor(types.Hertz(p.I2CHz)) }

// PHYRef is the HS PHY reference frequency.
func (p *Profile) PHYRef() types.Hertz { return types.Hertz(p.USBPHYRefHz) }

// Names lists the embedded boards.
func Names() []string {
	names := make([]string, 0, len(embeddedProfiles))
	for n := range embeddedProfiles {
		names = append(names, n)
	}
	return names
}
