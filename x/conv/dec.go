// Package conv holds allocation-free integer to text helpers for MCU builds,
// where strconv and fmt are avoided on the logging path.
package conv

// Utoa writes the base-10 digits of n into buf and returns the used slice.
// buf should be length >= 20.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf[:0]
	}
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 || i == 0 {
			break
		}
	}
	return buf[i:]
}

// Itoa is Utoa with a leading '-' for negative n. buf should be length >= 20.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	if len(buf) < 2 {
		return buf[:0]
	}
	d := Utoa(buf[1:], uint64(-n))
	start := len(buf) - len(d) - 1
	buf[start] = '-'
	return buf[start:]
}
