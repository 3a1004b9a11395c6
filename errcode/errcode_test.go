package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"address_nack":     AddressNACK,
		"timeout":          Timeout,
		"arbitration_lost": ArbitrationLost,
		"bus_error":        BusError,
		"clock_not_ready":  ClockNotReady,
		"already_frozen":   AlreadyFrozen,
		"pin_consumed":     PinConsumed,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestWrappedCodeMatches(t *testing.T) {
	err := Wrap(Timeout, "i2c.WriteRead", "TXIS")
	if err.Error() != "i2c.WriteRead: timeout: TXIS" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, Timeout) {
		t.Fatal("errors.Is should match the code")
	}
	if errors.Is(err, AddressNACK) {
		t.Fatal("errors.Is matched the wrong code")
	}
	if Of(err) != Timeout {
		t.Fatalf("Of = %q", Of(err))
	}
	if Of(nil) != OK || Of(errors.New("x")) != Error {
		t.Fatal("Of fallbacks wrong")
	}
}

func TestRetryable(t *testing.T) {
	for _, c := range []Code{AddressNACK, Timeout, ArbitrationLost} {
		if !Retryable(Wrap(c, "op", "")) {
			t.Fatalf("%s should be retryable", c)
		}
	}
	if Retryable(InvalidParams) || Retryable(nil) {
		t.Fatal("invalid params / nil must not be retryable")
	}
}
