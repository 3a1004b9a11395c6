package mathx

import "testing"

func TestDivisions(t *testing.T) {
	if got := CeilDiv[uint32](25_000_000, 2_000_000); got != 13 {
		t.Fatalf("CeilDiv = %d", got)
	}
	if got := CeilDiv[uint32](4, 0); got != 0 {
		t.Fatalf("CeilDiv by zero = %d", got)
	}
	if got := RoundDiv[uint64](216_000_000, 500); got != 432_000 {
		t.Fatalf("RoundDiv = %d", got)
	}
	if got := RoundDiv[uint8](7, 2); got != 4 {
		t.Fatalf("RoundDiv half-up = %d", got)
	}
}

func TestClampBetween(t *testing.T) {
	if got := Clamp(70, 2, 63); got != 63 {
		t.Fatalf("Clamp hi = %d", got)
	}
	if got := Clamp(1, 63, 2); got != 2 {
		t.Fatalf("Clamp swapped = %d", got)
	}
	if !Between[uint32](1_000_000, 2_000_000, 1_000_000) {
		t.Fatal("Between should include the bound")
	}
	if Between(433, 100, 432) {
		t.Fatal("Between should exclude 433")
	}
}

func TestWithinPPM(t *testing.T) {
	if !WithinPPM(48_000_000, 48_000_000, 0) {
		t.Fatal("exact match rejected")
	}
	if !WithinPPM(48_100_000, 48_000_000, 2500) {
		t.Fatal("0.21% should pass a 0.25% window")
	}
	if WithinPPM(48_200_000, 48_000_000, 2500) {
		t.Fatal("0.42% should fail a 0.25% window")
	}
	if got := AbsDiff[uint32](3, 10); got != 7 {
		t.Fatalf("AbsDiff = %d", got)
	}
}
