package gpio

// Output operations only accept output pins. They write BSRR, which sets or
// clears a single pin without a read-modify-write of the port.

func SetHigh[D Drive](p Pin[Output[D]]) {
	p.check("gpio.write")
	p.p.regs.BSRR.Set(1 << p.n)
}

func SetLow[D Drive](p Pin[Output[D]]) {
	p.check("gpio.write")
	p.p.regs.BSRR.Set(1 << (p.n + 16))
}

func Set[D Drive](p Pin[Output[D]], high bool) {
	if high {
		SetHigh(p)
	} else {
		SetLow(p)
	}
}

// IsSetHigh reports the level p is driving, which for open-drain may differ
// from what IsHigh reads back.
func IsSetHigh[D Drive](p Pin[Output[D]]) bool {
	p.check("gpio.read")
	return p.p.regs.ODR.Get()&(1<<p.n) != 0
}

func Toggle[D Drive](p Pin[Output[D]]) {
	Set(p, !IsSetHigh(p))
}
