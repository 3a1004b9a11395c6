//go:build baremetal

package mmio

import "runtime/volatile"

// Register32 is a 32-bit memory-mapped register accessed with volatile
// loads and stores.
type Register32 = volatile.Register32
