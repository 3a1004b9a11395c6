package types

// Speed is the USB signalling class a controller variant runs at.
type Speed uint8

const (
	SpeedUnknown Speed = iota
	SpeedFull          // 12 Mbit/s
	SpeedHigh          // 480 Mbit/s
)

func (s Speed) String() string {
	switch s {
	case SpeedFull:
		return "full-speed"
	case SpeedHigh:
		return "high-speed"
	default:
		return "unknown"
	}
}
