package gpio

// Mode is the type-level state of a pin. The concrete tag types below are
// the only implementations.
type Mode interface {
	moder() uint32
}

// Drive is the output stage of an output or alternate-function pin.
type Drive interface {
	otyper() uint32
}

// AF is an alternate-function number.
type AF interface {
	afr() uint32
}

type (
	// Input is a floating or pulled digital input. Every pin starts here.
	Input struct{}
	// Output is a GPIO output with drive D.
	Output[D Drive] struct{}
	// Alternate routes the pin to a peripheral function F with drive D.
	Alternate[F AF, D Drive] struct{}
	// Analog disconnects the digital input stage.
	Analog struct{}
)

func (Input) moder() uint32           { return 0b00 }
func (Output[D]) moder() uint32       { return 0b01 }
func (Alternate[F, D]) moder() uint32 { return 0b10 }
func (Analog) moder() uint32          { return 0b11 }

type (
	PushPull  struct{}
	OpenDrain struct{}
)

func (PushPull) otyper() uint32  { return 0 }
func (OpenDrain) otyper() uint32 { return 1 }

type (
	AF0  struct{}
	AF1  struct{}
	AF2  struct{}
	AF3  struct{}
	AF4  struct{}
	AF5  struct{}
	AF6  struct{}
	AF7  struct{}
	AF8  struct{}
	AF9  struct{}
	AF10 struct{}
	AF11 struct{}
	AF12 struct{}
	AF13 struct{}
	AF14 struct{}
	AF15 struct{}
)

func (AF0) afr() uint32  { return 0 }
func (AF1) afr() uint32  { return 1 }
func (AF2) afr() uint32  { return 2 }
func (AF3) afr() uint32  { return 3 }
func (AF4) afr() uint32  { return 4 }
func (AF5) afr() uint32  { return 5 }
func (AF6) afr() uint32  { return 6 }
func (AF7) afr() uint32  { return 7 }
func (AF8) afr() uint32  { return 8 }
func (AF9) afr() uint32  { return 9 }
func (AF10) afr() uint32 { return 10 }
func (AF11) afr() uint32 { return 11 }
func (AF12) afr() uint32 { return 12 }
func (AF13) afr() uint32 { return 13 }
func (AF14) afr() uint32 { return 14 }
func (AF15) afr() uint32 { return 15 }

// Speed is the output slew-rate setting.
type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
	SpeedVeryHigh
)

// Pull is the internal pull resistor setting.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)
