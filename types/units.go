package types

// Hertz is a frequency in Hz. Every clock in the HAL fits in 32 bits.
type Hertz uint32

const (
	Hz  Hertz = 1
	KHz Hertz = 1_000
	MHz Hertz = 1_000_000
)

func (f Hertz) Uint32() uint32 { return uint32(f) }

// MHzFloor returns f in whole MHz, rounded down.
func (f Hertz) MHzFloor() uint32 { return uint32(f / MHz) }

// Cycles returns how many periods of f elapse in us microseconds, rounded up.
func (f Hertz) Cycles(us uint32) uint32 {
	n := uint64(f) * uint64(us)
	return uint32((n + 999_999) / 1_000_000)
}
