//go:build baremetal

package fmtx

import (
	"io"

	"f7hal/x/conv"
)

// Sprintf supports %s %d %x %X %v %t %% and a zero-padded width for %x/%X
// (e.g. %08x). Anything else is written literally.
func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a)
	return string(b.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var b builder
	b.format(format, a)
	return w.Write(b.buf)
}

func Errorf(format string, a ...any) error {
	return &stringError{Sprintf(format, a...)}
}

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

type builder struct {
	buf     []byte
	scratch [20]byte
}

func (b *builder) format(format string, args []any) {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.buf = append(b.buf, c)
			continue
		}
		i++
		if i >= len(format) {
			return
		}
		if format[i] == '%' {
			b.buf = append(b.buf, '%')
			continue
		}
		width := 0
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb := format[i]
		arg := args[ai]
		ai++
		switch verb {
		case 'x', 'X':
			h := conv.Hex(b.scratch[:], toU64(arg), verb == 'X')
			for pad := width - len(h); pad > 0; pad-- {
				b.buf = append(b.buf, '0')
			}
			b.buf = append(b.buf, h...)
		default:
			b.any(arg)
		}
	}
}

func (b *builder) any(v any) {
	switch x := v.(type) {
	case string:
		b.buf = append(b.buf, x...)
	case []byte:
		b.buf = append(b.buf, x...)
	case error:
		b.buf = append(b.buf, x.Error()...)
	case bool:
		if x {
			b.buf = append(b.buf, "true"...)
		} else {
			b.buf = append(b.buf, "false"...)
		}
	case int:
		b.buf = append(b.buf, conv.Itoa(b.scratch[:], int64(x))...)
	case int8:
		b.buf = append(b.buf, conv.Itoa(b.scratch[:], int64(x))...)
	case int16:
		b.buf = append(b.buf, conv.Itoa(b.scratch[:], int64(x))...)
	case int32:
		b.buf = append(b.buf, conv.Itoa(b.scratch[:], int64(x))...)
	case int64:
		b.buf = append(b.buf, conv.Itoa(b.scratch[:], x)...)
	case interface{ String() string }:
		b.buf = append(b.buf, x.String()...)
	default:
		b.buf = append(b.buf, conv.Utoa(b.scratch[:], toU64(v))...)
	}
}

func toU64(v any) uint64 {
	switch t := v.(type) {
	case uint:
		return uint64(t)
	case uint8:
		return uint64(t)
	case uint16:
		return uint64(t)
	case uint32:
		return uint64(t)
	case uint64:
		return t
	case uintptr:
		return uint64(t)
	case int:
		return uint64(t)
	case int32:
		return uint64(t)
	case int64:
		return uint64(t)
	case interface{ Uint32() uint32 }:
		return uint64(t.Uint32())
	default:
		return 0
	}
}
