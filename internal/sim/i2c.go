//go:build !baremetal

package sim

import (
	"f7hal/device/stm32"
	"f7hal/x/mmio"

	"tinygo.org/x/drivers/tester"
)

// I2C simulates an I2Cv2 controller in master mode with tester devices as
// the targets on its bus. Register-pointer peers are emulated the usual way:
// a single-byte write only moves the pointer, and a read without a preceding
// write phase starts at the pointer.
type I2C struct {
	b    *Board
	r    *stm32.I2C_Type
	name string

	peers   map[uint8]tester.I2CDevice
	stretch map[uint8]bool
	pointer map[uint8]byte

	// LoseArbitration makes the next START lose arbitration.
	LoseArbitration bool
	// BusFault makes the next START report a misplaced start/stop.
	BusFault bool

	// Stops counts STOP conditions put on the bus.
	Stops int

	active    bool
	reading   bool
	autoend   bool
	addr      uint8
	remaining int
	wbuf      []byte
	rbuf      []byte
	rpos      int
	ptr       [1]byte
}

func newI2C(b *Board, r *stm32.I2C_Type, name string) *I2C {
	s := &I2C{
		b:       b,
		r:       r,
		name:    name,
		peers:   map[uint8]tester.I2CDevice{},
		stretch: map[uint8]bool{},
		pointer: map[uint8]byte{},
	}
	for _, reg := range []*mmio.Register32{&r.CR1, &r.CR2, &r.ISR, &r.ICR, &r.TXDR, &r.RXDR} {
		reg.Attach(s)
	}
	return s
}

// AddPeer puts dev on the bus at its address.
func (s *I2C) AddPeer(dev tester.I2CDevice) { s.peers[dev.Addr()] = dev }

// Stretch makes the target at addr acknowledge its address and then hold SCL
// low indefinitely.
func (s *I2C) Stretch(addr uint8) { s.stretch[addr] = true }

// Idle reports whether the bus is released: no transfer in progress and BUSY clear.
func (s *I2C) Idle() bool { return !s.active && s.r.ISR.Reg&stm32.I2C_ISR_BUSY == 0 }

func (s *I2C) set(bits uint32)   { s.r.ISR.Reg |= bits }
func (s *I2C) clear(bits uint32) { s.r.ISR.Reg &^= bits }

func (s *I2C) OnLoad(r *mmio.Register32, cur uint32) uint32 {
	if r != &s.r.RXDR {
		return cur
	}
	if !s.active || !s.reading || s.rpos >= len(s.rbuf) {
		return 0
	}
	v := s.rbuf[s.rpos]
	s.rpos++
	s.remaining--
	s.b.record(s.name, "rx")
	if s.remaining > 0 {
		return uint32(v)
	}
	s.clear(stm32.I2C_ISR_RXNE)
	s.phaseDone()
	return uint32(v)
}

func (s *I2C) OnStore(r *mmio.Register32, old, v uint32) uint32 {
	switch r {
	case &s.r.CR1:
		if fell(old, v, stm32.I2C_CR1_PE) {
			s.active = false
			s.r.ISR.Reg = 0
		}
	case &s.r.CR2:
		if v&stm32.I2C_CR2_STOP != 0 {
			s.stop()
		}
		if v&stm32.I2C_CR2_START != 0 {
			s.start(v)
		}
		return v &^ (stm32.I2C_CR2_START | stm32.I2C_CR2_STOP)
	case &s.r.TXDR:
		s.transmit(byte(v))
	case &s.r.ICR:
		var clr uint32
		if v&stm32.I2C_ICR_NACKCF != 0 {
			clr |= stm32.I2C_ISR_NACKF
		}
		if v&stm32.I2C_ICR_STOPCF != 0 {
			clr |= stm32.I2C_ISR_STOPF
		}
		if v&stm32.I2C_ICR_BERRCF != 0 {
			clr |= stm32.I2C_ISR_BERR
		}
		if v&stm32.I2C_ICR_ARLOCF != 0 {
			clr |= stm32.I2C_ISR_ARLO
		}
		if v&stm32.I2C_ICR_OVRCF != 0 {
			clr |= stm32.I2C_ISR_OVR
		}
		s.clear(clr)
		return 0
	case &s.r.ISR:
		return old
	}
	return v
}

func (s *I2C) start(cr2 uint32) {
	if s.r.CR1.Reg&stm32.I2C_CR1_PE == 0 {
		return
	}
	restart := s.active
	if restart {
		s.b.record(s.name, "restart")
	} else {
		s.b.record(s.name, "start")
	}
	s.addr = uint8(cr2>>stm32.I2C_CR2_SADD_Pos&stm32.I2C_CR2_SADD_Msk) >> 1
	s.reading = cr2&stm32.I2C_CR2_RD_WRN != 0
	s.autoend = cr2&stm32.I2C_CR2_AUTOEND != 0
	s.remaining = int(cr2 >> stm32.I2C_CR2_NBYTES_Pos & stm32.I2C_CR2_NBYTES_Msk)
	s.clear(stm32.I2C_ISR_TC)
	s.set(stm32.I2C_ISR_BUSY)

	if s.LoseArbitration {
		s.LoseArbitration = false
		s.b.record(s.name, "arlo")
		s.active = false
		s.set(stm32.I2C_ISR_ARLO)
		s.clear(stm32.I2C_ISR_BUSY)
		return
	}
	if s.BusFault {
		s.BusFault = false
		s.b.record(s.name, "berr")
		s.active = false
		s.set(stm32.I2C_ISR_BERR)
		s.clear(stm32.I2C_ISR_BUSY)
		return
	}
	peer, ok := s.peers[s.addr]
	if !ok {
		s.b.record(s.name, "nack")
		s.set(stm32.I2C_ISR_NACKF)
		s.stop()
		return
	}
	s.active = true
	if s.stretch[s.addr] {
		s.b.record(s.name, "stretch")
		return
	}
	if !s.reading {
		if !restart {
			s.wbuf = s.wbuf[:0]
		}
		if s.remaining > 0 {
			s.set(stm32.I2C_ISR_TXIS)
		} else {
			s.phaseDone()
		}
		return
	}

	w := s.wbuf
	if !restart || len(w) == 0 {
		s.ptr[0] = s.pointer[s.addr]
		w = s.ptr[:]
	}
	if cap(s.rbuf) < s.remaining {
		s.rbuf = make([]byte, s.remaining)
	}
	s.rbuf = s.rbuf[:s.remaining]
	s.rpos = 0
	err := peer.Tx(w, s.rbuf)
	s.wbuf = s.wbuf[:0]
	if err != nil {
		s.b.record(s.name, "nack")
		s.set(stm32.I2C_ISR_NACKF)
		s.stop()
		return
	}
	if s.remaining > 0 {
		s.set(stm32.I2C_ISR_RXNE)
	} else {
		s.phaseDone()
	}
}

func (s *I2C) transmit(v byte) {
	if !s.active || s.reading || s.remaining == 0 {
		s.b.record(s.name, "txdr_dropped")
		return
	}
	s.b.record(s.name, "tx")
	s.wbuf = append(s.wbuf, v)
	s.remaining--
	s.clear(stm32.I2C_ISR_TXIS)
	if s.remaining > 0 {
		s.set(stm32.I2C_ISR_TXIS)
		return
	}
	s.phaseDone()
}

func (s *I2C) phaseDone() {
	if !s.autoend {
		s.set(stm32.I2C_ISR_TC)
		return
	}
	if !s.reading && !s.flush() {
		s.set(stm32.I2C_ISR_NACKF)
	}
	s.stop()
}

// flush delivers a finished write phase to the target.
func (s *I2C) flush() bool {
	w := s.wbuf
	s.wbuf = s.wbuf[:0]
	switch len(w) {
	case 0:
		return true
	case 1:
		s.pointer[s.addr] = w[0]
		return true
	}
	peer := s.peers[s.addr]
	if err := peer.Tx(w, nil); err != nil {
		s.b.record(s.name, "data_nack")
		return false
	}
	return true
}

func (s *I2C) stop() {
	if s.active && !s.reading && len(s.wbuf) > 0 && !s.flush() {
		s.set(stm32.I2C_ISR_NACKF)
	}
	s.b.record(s.name, "stop")
	s.active = false
	s.Stops++
	s.clear(stm32.I2C_ISR_TXIS | stm32.I2C_ISR_RXNE | stm32.I2C_ISR_TC | stm32.I2C_ISR_BUSY)
	s.set(stm32.I2C_ISR_STOPF)
}
