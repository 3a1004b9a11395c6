package conv

// Hex writes the lower- or upper-case hex digits of n (no prefix, no padding)
// into buf and returns the used slice. buf should be length >= 16.
func Hex(buf []byte, n uint64, upper bool) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	digits := "0123456789abcdef"
	if upper {
		digits = "0123456789ABCDEF"
	}
	i := len(buf)
	for {
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
		if n == 0 || i == 0 {
			break
		}
	}
	return buf[i:]
}
