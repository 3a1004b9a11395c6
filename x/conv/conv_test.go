package conv

import (
	"math"
	"testing"
)

func TestDecimal(t *testing.T) {
	var buf [20]byte
	for _, c := range []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{216000000, "216000000"},
		{-42, "-42"},
		{math.MinInt64 + 1, "-9223372036854775807"},
	} {
		if got := string(Itoa(buf[:], c.n)); got != c.want {
			t.Fatalf("Itoa(%d) = %q, want %q", c.n, got, c.want)
		}
	}
	if got := string(Utoa(buf[:], math.MaxUint64)); got != "18446744073709551615" {
		t.Fatalf("Utoa(max) = %q", got)
	}
}

func TestHex(t *testing.T) {
	var buf [16]byte
	if got := string(Hex(buf[:], 0x8994, false)); got != "8994" {
		t.Fatalf("Hex = %q", got)
	}
	if got := string(Hex(buf[:], 0xF13, true)); got != "F13" {
		t.Fatalf("Hex upper = %q", got)
	}
	if got := string(Hex(buf[:], 0, false)); got != "0" {
		t.Fatalf("Hex zero = %q", got)
	}
}
