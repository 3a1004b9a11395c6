// Package logx is the HAL's tagged line logger:
//
//	[rcc] pll locked after 12 spins
//
// Lines go to the builtin print console by default (UART/semihosting on the
// target, stderr on the host) and are formatted with fmtx so MCU builds do
// not pull in fmt.
package logx

import (
	"io"

	"f7hal/x/fmtx"
)

type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "off"
	}
}

var (
	out   io.Writer = console{}
	level           = LevelInfo
)

// console writes through the runtime's print builtin.
type console struct{}

func (console) Write(p []byte) (int, error) {
	print(string(p))
	return len(p), nil
}

// SetOutput redirects log lines. A nil writer restores the console.
func SetOutput(w io.Writer) {
	if w == nil {
		w = console{}
	}
	out = w
}

// SetLevel sets the minimum level that is written and returns the previous one.
func SetLevel(l Level) Level {
	prev := level
	level = l
	return prev
}

func Enabled(l Level) bool { return l >= level && l < LevelOff }

func Debugf(tag, format string, a ...any) { logf(LevelDebug, tag, format, a) }
func Infof(tag, format string, a ...any)  { logf(LevelInfo, tag, format, a) }
func Warnf(tag, format string, a ...any)  { logf(LevelWarn, tag, format, a) }
func Errorf(tag, format string, a ...any) { logf(LevelError, tag, format, a) }

func logf(l Level, tag, format string, a []any) {
	if !Enabled(l) {
		return
	}
	_, _ = fmtx.Fprintf(out, "[%s] %s\n", tag, fmtx.Sprintf(format, a...))
}
