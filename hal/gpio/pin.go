package gpio

import (
	"f7hal/x/arch"
)

func into[N Mode, M Mode](p Pin[M], op string, configure func(r *port, n uint8)) Pin[N] {
	p.check(op)
	arch.Critical(func() { configure(p.p, p.n) })
	return Pin[N]{p: p.p, n: p.n, gen: p.retire()}
}

func setMode(r *port, n uint8, m Mode) { field2(&r.regs.MODER, n, m.moder()) }

func setOType(r *port, n uint8, d Drive) {
	r.regs.OTYPER.ReplaceBits(d.otyper(), 1, n)
}

func setAF(r *port, n uint8, f AF) {
	if n < 8 {
		r.regs.AFRL.ReplaceBits(f.afr(), 0xF, 4*n)
	} else {
		r.regs.AFRH.ReplaceBits(f.afr(), 0xF, 4*(n-8))
	}
}

func (p Pin[M]) IntoInput() Pin[Input] {
	return into[Input](p, "gpio.input", func(r *port, n uint8) { setMode(r, n, Input{}) })
}

func (p Pin[M]) IntoAnalog() Pin[Analog] {
	return into[Analog](p, "gpio.analog", func(r *port, n uint8) {
		field2(&r.regs.PUPDR, n, uint32(PullNone))
		setMode(r, n, Analog{})
	})
}

func (p Pin[M]) IntoPushPullOutput() Pin[Output[PushPull]] {
	return intoOutput[PushPull](p)
}

func (p Pin[M]) IntoOpenDrainOutput() Pin[Output[OpenDrain]] {
	return intoOutput[OpenDrain](p)
}

func intoOutput[D Drive, M Mode](p Pin[M]) Pin[Output[D]] {
	return into[Output[D]](p, "gpio.output", func(r *port, n uint8) {
		var d D
		setOType(r, n, d)
		setMode(r, n, Output[D]{})
	})
}

// IntoAlternate routes p to alternate function F with drive D. The function
// is selected and the output stage set up before the pin is switched over,
// so the peripheral never sees a glitch from a stale selection.
func IntoAlternate[F AF, D Drive, M Mode](p Pin[M]) Pin[Alternate[F, D]] {
	return into[Alternate[F, D]](p, "gpio.alternate", func(r *port, n uint8) {
		var (
			f F
			d D
		)
		setAF(r, n, f)
		setOType(r, n, d)
		field2(&r.regs.OSPEEDR, n, uint32(SpeedVeryHigh))
		setMode(r, n, Alternate[F, D]{})
	})
}

// IntoAlternateAF4 selects AF4 (I2C1..3 on most pins), push-pull.
func (p Pin[M]) IntoAlternateAF4() Pin[Alternate[AF4, PushPull]] {
	return IntoAlternate[AF4, PushPull](p)
}

// IntoAlternateAF10 selects AF10 (OTG FS), push-pull.
func (p Pin[M]) IntoAlternateAF10() Pin[Alternate[AF10, PushPull]] {
	return IntoAlternate[AF10, PushPull](p)
}

// IntoAlternateAF12 selects AF12 (OTG HS), push-pull.
func (p Pin[M]) IntoAlternateAF12() Pin[Alternate[AF12, PushPull]] {
	return IntoAlternate[AF12, PushPull](p)
}

// SetOpenDrain switches a live alternate-function pin to open-drain. The pin
// has been driving push-pull until now; IntoAlternate[F, OpenDrain] avoids
// that window.
func SetOpenDrain[F AF](p Pin[Alternate[F, PushPull]]) Pin[Alternate[F, OpenDrain]] {
	return into[Alternate[F, OpenDrain]](p, "gpio.open_drain", func(r *port, n uint8) {
		setOType(r, n, OpenDrain{})
	})
}

// WithSpeed sets the output slew rate, keeping the mode.
func (p Pin[M]) WithSpeed(s Speed) Pin[M] {
	return into[M](p, "gpio.speed", func(r *port, n uint8) {
		field2(&r.regs.OSPEEDR, n, uint32(s))
	})
}

// WithPull sets the pull resistor, keeping the mode.
func (p Pin[M]) WithPull(pl Pull) Pin[M] {
	return into[M](p, "gpio.pull", func(r *port, n uint8) {
		field2(&r.regs.PUPDR, n, uint32(pl))
	})
}
