package logx

import (
	"bytes"
	"testing"
)

func TestTaggedLinesAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(prev)
	})

	Debugf("rcc", "hidden %d", 1)
	Infof("rcc", "sysclk=%d", 216000000)
	Errorf("i2c", "nack from %x", 0x1a)

	want := "[rcc] sysclk=216000000\n[i2c] nack from 1a\n"
	if got := buf.String(); got != want {
		t.Fatalf("log output = %q, want %q", got, want)
	}
}

func TestLevelOffSilences(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := SetLevel(LevelOff)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(prev)
	})

	Errorf("arch", "halt")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	if Enabled(LevelError) {
		t.Fatalf("LevelOff should disable every level")
	}
}
