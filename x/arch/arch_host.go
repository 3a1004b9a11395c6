//go:build !baremetal

package arch

// State is the saved interrupt mask. On the host it only tracks nesting.
type State uintptr

var cycles uint64

func disable() State  { return State(depth) }
func restore(s State) {}
func halt(h *Halted)  { panic(h) }

// DelayCycles accounts n cycles on the host instead of spinning.
func DelayCycles(n uint32) { cycles += uint64(n) }

// Cycles returns the cycles consumed by DelayCycles since the last reset.
func Cycles() uint64 { return cycles }

func ResetCycles() { cycles = 0 }
