package arch

import (
	"errors"
	"testing"

	"f7hal/x/logx"
)

func TestCriticalNesting(t *testing.T) {
	if InCritical() {
		t.Fatal("unexpected critical section at start")
	}
	Critical(func() {
		if !InCritical() {
			t.Fatal("not inside critical section")
		}
		s := DisableInterrupts()
		RestoreInterrupts(s)
		if !InCritical() {
			t.Fatal("inner restore left the outer section")
		}
	})
	if InCritical() {
		t.Fatal("critical section leaked")
	}
}

func TestHaltPanicsWithReason(t *testing.T) {
	prev := logx.SetLevel(logx.LevelOff)
	defer logx.SetLevel(prev)

	boom := errors.New("hse not ready")
	defer func() {
		r := recover()
		h, ok := r.(*Halted)
		if !ok {
			t.Fatalf("recovered %T, want *Halted", r)
		}
		if !errors.Is(h, boom) {
			t.Fatalf("halt reason = %v", h.Reason)
		}
	}()
	Halt(boom)
	t.Fatal("Halt returned")
}

func TestDelayCyclesAccounting(t *testing.T) {
	ResetCycles()
	DelayCycles(432000)
	DelayCycles(8)
	if got := Cycles(); got != 432008 {
		t.Fatalf("Cycles = %d", got)
	}
}

func TestSpinCyclesWaitsFullCount(t *testing.T) {
	tests := []struct {
		name        string
		start, step uint32
		n           uint32
	}{
		{"single steps", 0, 1, 432000},
		{"dual issue", 100, 2, 1001},
		{"wraps", 0xFFFFFFF0, 7, 64},
		{"zero", 5, 1, 0},
	}
	for _, tt := range tests {
		now := tt.start
		reads := 0
		counter := func() uint32 {
			reads++
			v := now
			now += tt.step
			return v
		}
		spinCycles(counter, tt.n)
		elapsed := (now - tt.step) - tt.start
		if elapsed < tt.n {
			t.Fatalf("%s: returned after %d cycles, want >= %d", tt.name, elapsed, tt.n)
		}
		if elapsed >= tt.n+tt.step && tt.n > 0 {
			t.Fatalf("%s: overshot to %d cycles", tt.name, elapsed)
		}
		if tt.n == 0 && reads != 2 {
			t.Fatalf("%s: %d counter reads", tt.name, reads)
		}
	}
}
