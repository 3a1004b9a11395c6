package board

// -----------------------------------------------------------------------------
// Embedded board profiles
//
// Key: board name (Profile.Name)
// Val: raw JSON for that board
// -----------------------------------------------------------------------------

const cfgF723Disco = `{
  "name": "stm32f723-disco",
  "hse_hz": 25000000,
  "hse_bypass": true,
  "sysclk_hz": 216000000,
  "use_pll48": true,
  "i2c_hz": 400000,
  "i2c_timeout": 10000,
  "usb_phy_ref_hz": 25000000
}`

const cfgF746Nucleo = `{
  "name": "stm32f746-nucleo",
  "hse_hz": 8000000,
  "hse_bypass": true,
  "sysclk_hz": 216000000,
  "use_pll48": true,
  "i2c_hz": 100000,
  "i2c_timeout": 10000
}`

var embeddedProfiles = map[string][]byte{
	"stm32f723-disco":  []byte(cfgF723Disco),
	"stm32f746-nucleo": []byte(cfgF746Nucleo),
}
