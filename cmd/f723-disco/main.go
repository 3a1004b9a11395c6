//go:build baremetal

// Command f723-disco boots an STM32F7 discovery board and polls its audio
// codec once a second over I2C1.
package main

import (
	"f7hal/board"
	"f7hal/device/stm32"
	"f7hal/errcode"
	"f7hal/hal/otg"
	"f7hal/internal/bringup"
	"f7hal/x/arch"
	"f7hal/x/logx"
)

// boardName can be overridden with -ldflags "-X main.boardName=...".
var boardName = "stm32f723-disco"

var epMemory [otg.HSFIFODepthWords]uint32

func main() {
	p, ok := stm32.Take()
	if !ok {
		arch.Halt(errcode.PeripheralTaken)
	}
	prof, err := board.Lookup(boardName)
	if err != nil {
		arch.Halt(err)
	}
	sys, err := bringup.Run(p, prof, epMemory[:])
	if err != nil {
		arch.Halt(err)
	}

	second := sys.Clocks.SYSCLK().Cycles(1_000_000)
	arch.DelayCycles(second)
	for {
		arch.DelayCycles(second)
		if _, err := sys.Probe(0x11); err != nil && !errcode.Retryable(err) {
			logx.Errorf("main", "giving up: %v", err)
			arch.Halt(err)
		}
	}
}
