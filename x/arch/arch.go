// Package arch holds the few CPU-level primitives the bring-up code needs:
// a nestable interrupt-masking critical section, a busy cycle delay and a
// fatal halt for boot failures that have no recovery path.
package arch

import "f7hal/x/logx"

var depth int

// Critical runs fn with interrupts masked. Nested use is allowed.
func Critical(fn func()) {
	s := DisableInterrupts()
	defer RestoreInterrupts(s)
	fn()
}

// DisableInterrupts masks interrupts and returns the state to hand back to
// RestoreInterrupts.
func DisableInterrupts() State {
	s := disable()
	depth++
	return s
}

func RestoreInterrupts(s State) {
	if depth > 0 {
		depth--
	}
	restore(s)
}

// InCritical reports whether the caller is inside a critical section opened
// through this package.
func InCritical() bool { return depth > 0 }

// spinCycles busy-waits until counter, a free-running 32-bit cycle count,
// has advanced by at least n. Wraparound is handled by the unsigned
// difference.
func spinCycles(counter func() uint32, n uint32) {
	start := counter()
	for counter()-start < n {
	}
}

// Halted is the reason carried by a fatal halt.
type Halted struct {
	Reason error
}

func (h *Halted) Error() string { return "halted: " + h.Reason.Error() }
func (h *Halted) Unwrap() error { return h.Reason }

// Halt stops the system. It never returns.
func Halt(reason error) {
	logx.Errorf("arch", "halt: %s", reason.Error())
	halt(&Halted{Reason: reason})
}
