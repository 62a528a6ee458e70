// Package membus defines the memory bus capability that decouples the
// 6502 core from whatever sits behind it: flat RAM for standalone CPU
// tests, or the composite Commodore 64 memory map wired up in package
// c64. No operation on a Bus ever fails; side effects (a collision
// register clearing on read, a timer latching on write) belong to the
// device behind the bus.
package membus

// Bus is the capability the CPU core depends on. Implementations must
// be safe to call from a single goroutine driving the CPU loop; nothing
// in this package or cpu introduces concurrency of its own.
type Bus interface {
	// Read returns the byte at addr. Unmapped reads return an
	// implementation-defined value; reads never fail.
	Read(addr uint16) byte

	// Write stores value at addr. Writes to ROM or unmapped regions are
	// silently discarded; writes never fail.
	Write(addr uint16, value byte)

	// IRQActive reports the level-sensitive logical OR of every device
	// IRQ line on the bus. Called once per CPU instruction boundary.
	IRQActive() bool
}

// FlatRAM is the simplest Bus implementation: 64KB of undifferentiated
// read/write memory with no attached devices, used for CPU unit tests.
type FlatRAM struct {
	mem [65536]byte
}

// NewFlatRAM returns a zeroed 64K RAM bus.
func NewFlatRAM() *FlatRAM {
	return &FlatRAM{}
}

func (r *FlatRAM) Read(addr uint16) byte {
	return r.mem[addr]
}

func (r *FlatRAM) Write(addr uint16, value byte) {
	r.mem[addr] = value
}

func (r *FlatRAM) IRQActive() bool {
	return false
}

// LoadAt copies data into RAM starting at addr, wrapping at the top of
// the address space.
func (r *FlatRAM) LoadAt(addr uint16, data []byte) {
	for i, b := range data {
		r.mem[uint16(int(addr)+i)] = b
	}
}

// Snapshot returns a copy of the full 64K backing array, for save-state
// capture.
func (r *FlatRAM) Snapshot() [65536]byte {
	return r.mem
}

// Restore overwrites the full 64K backing array from a captured
// snapshot.
func (r *FlatRAM) Restore(data [65536]byte) {
	r.mem = data
}
