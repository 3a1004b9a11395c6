//go:build !baremetal

package mmio

// Hook observes and shapes accesses to a host register so a simulator can
// model the hardware side effects of a load or store.
type Hook interface {
	// OnLoad returns the value a load observes; cur is the latched value.
	OnLoad(r *Register32, cur uint32) uint32
	// OnStore returns the value that actually latches when v is written over old.
	OnStore(r *Register32, old, v uint32) uint32
}

// Register32 is a 32-bit memory-mapped register. On the host it is plain
// memory with an optional hook.
type Register32 struct {
	Reg  uint32
	hook Hook
}

// Attach installs h on r. A nil hook turns r back into plain memory.
func (r *Register32) Attach(h Hook) { r.hook = h }

func (r *Register32) Get() uint32 {
	if r.hook != nil {
		return r.hook.OnLoad(r, r.Reg)
	}
	return r.Reg
}

func (r *Register32) Set(value uint32) {
	if r.hook != nil {
		value = r.hook.OnStore(r, r.Reg, value)
	}
	r.Reg = value
}

func (r *Register32) SetBits(value uint32)      { r.Set(r.Get() | value) }
func (r *Register32) ClearBits(value uint32)    { r.Set(r.Get() &^ value) }
func (r *Register32) HasBits(value uint32) bool { return r.Get()&value != 0 }
func (r *Register32) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | value<<pos)
}
