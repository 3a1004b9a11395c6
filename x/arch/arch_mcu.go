//go:build baremetal

package arch

import (
	"device/arm"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

type State = interrupt.State

func disable() State  { return interrupt.Disable() }
func restore(s State) { interrupt.Restore(s) }

func halt(*Halted) {
	interrupt.Disable()
	for {
		arm.Asm("wfi")
	}
}

// Core debug and DWT registers (ARMv7-M ARM, C1.6 and C1.8).
var (
	demcr     = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000EDFC)))
	dwtCtrl   = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE0001000)))
	dwtCyccnt = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE0001004)))
	dwtLAR    = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE0001FB0)))
)

const (
	demcrTRCENA     = 1 << 24
	dwtCtrlCYCCNTEN = 1 << 0
	dwtUnlock       = 0xC5ACCE55
)

func cyccnt() uint32 { return dwtCyccnt.Get() }

// DelayCycles spins for at least n core cycles, timed by the DWT cycle
// counter so dual issue on the M7 cannot shorten it.
func DelayCycles(n uint32) {
	if !dwtCtrl.HasBits(dwtCtrlCYCCNTEN) {
		demcr.SetBits(demcrTRCENA)
		dwtLAR.Set(dwtUnlock)
		dwtCtrl.SetBits(dwtCtrlCYCCNTEN)
	}
	spinCycles(cyccnt, n)
}
