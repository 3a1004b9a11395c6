// Package mmio is the register cell used by every register block in the HAL.
//
// Target builds alias TinyGo's volatile register so peripheral code compiles
// to plain volatile loads and stores. Host builds keep the same method set on
// ordinary memory and allow a Hook, which is how the bring-up sequences are
// exercised without hardware.
package mmio
