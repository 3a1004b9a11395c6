package errcode

// Code is a stable, short error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Boot-time codes. These reach arch.Halt; nothing returns them to callers
// except the Try* validation helpers.
const (
	ClockNotReady     Code = "clock_not_ready"
	AlreadyFrozen     Code = "already_frozen"
	InvalidClockPlan  Code = "invalid_clock_plan"
	UnsupportedPHYRef Code = "unsupported_phy_ref"
	InvalidPin        Code = "invalid_pin"
	PinConsumed       Code = "pin_consumed"
	PeripheralTaken   Code = "peripheral_taken"
	UnknownBoard      Code = "unknown_board"
	InvalidConfig     Code = "invalid_config"
)

// Transaction codes. Ordinary results; callers decide whether to retry.
const (
	OK              Code = "ok"
	AddressNACK     Code = "address_nack"
	DataNACK        Code = "data_nack"
	Timeout         Code = "timeout"
	ArbitrationLost Code = "arbitration_lost"
	BusError        Code = "bus_error"
	InvalidParams   Code = "invalid_params"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Timeout) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E for op. msg is optional detail.
func Wrap(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Retryable reports whether err is a bus-level condition that may clear on
// a later attempt (absent device, stretch timeout, lost arbitration).
func Retryable(err error) bool {
	switch Of(err) {
	case AddressNACK, DataNACK, Timeout, ArbitrationLost, BusError:
		return true
	default:
		return false
	}
}
