// Package cpu implements a cycle-accurate MOS 6502 execution engine. It
// fetches, decodes and executes against the shared opcode.Table, so its
// timing and addressing-mode facts can never drift from the assembler
// and disassembler in package asm.
//
// The CPU holds exclusive mutable access to its membus.Bus for the
// duration of a Step; nothing in this package introduces concurrency of
// its own, matching the single-threaded, cooperative scheduling model
// the surrounding system uses.
package cpu

import (
	"github.com/go-retro/c64core/membus"
	"github.com/go-retro/c64core/opcode"
)

const (
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
	nmiVector   = 0xFFFA
	stackBase   = 0x0100
)

// Status flag bit positions within the packed status byte.
const (
	flagC byte = 1 << 0
	flagZ byte = 1 << 1
	flagI byte = 1 << 2
	flagD byte = 1 << 3
	flagB byte = 1 << 4
	flag5 byte = 1 << 5 // always 1 when pushed
	flagV byte = 1 << 6
	flagN byte = 1 << 7
)

// CPU is the MOS 6502 register file plus the bus it executes against.
// B is not a persistent field: spec requires it be observable only in
// the pushed copy of the status byte, never retained across pulls.
type CPU struct {
	A, X, Y byte
	PC      uint16
	SP      byte

	N, V, D, I, Z, C bool

	Cycles uint64

	Bus membus.Bus

	nmiLevel   bool
	nmiPending bool
}

// New constructs a CPU wired to bus and immediately resets it, loading
// PC from the reset vector.
func New(bus membus.Bus) *CPU {
	c := &CPU{Bus: bus}
	c.Reset()
	return c
}

// Reset loads PC from 0xFFFC/0xFFFD, sets SP to 0xFD, clears A/X/Y,
// clears all flags except I, and zeroes the cycle counter.
func (c *CPU) Reset() {
	c.PC = c.readWord(resetVector)
	c.SP = 0xFD
	c.A, c.X, c.Y = 0, 0, 0
	c.N, c.V, c.D, c.Z, c.C = false, false, false, false, false
	c.I = true
	c.Cycles = 0
	c.nmiLevel = false
	c.nmiPending = false
}

// SetNMILine updates the level of the NMI input. NMI is edge-sensitive:
// a low-to-high transition latches exactly one pending service request,
// independent of what the line does afterwards.
func (c *CPU) SetNMILine(active bool) {
	if active && !c.nmiLevel {
		c.nmiPending = true
	}
	c.nmiLevel = active
}

// Step fetches, decodes and executes a single instruction, then checks
// for a pending NMI edge or an asserted IRQ line and services it if
// appropriate. It returns *UnimplementedOpcode if the fetched opcode has
// no handler; all other behaviour is defined.
func (c *CPU) Step() error {
	opcodeAddr := c.PC
	op := c.Bus.Read(opcodeAddr)
	entry := opcode.Table[op]

	if !entry.Implemented {
		c.PC += uint16(entry.SizeBytes)
		c.Cycles += uint64(entry.BaseCycles)
		c.checkInterrupts()
		return &UnimplementedOpcode{Opcode: op, PC: opcodeAddr}
	}

	nextPC := c.PC + uint16(entry.SizeBytes)
	extra := c.execute(entry, opcodeAddr, &nextPC)
	c.PC = nextPC
	c.Cycles += uint64(entry.BaseCycles) + uint64(extra)

	c.checkInterrupts()
	return nil
}

// RunForCycles executes whole instructions until the cycle counter
// reaches or exceeds budget beyond its starting value, then returns the
// actual number of cycles consumed. Overshoot is bounded by the largest
// single instruction cost (7 cycles, including interrupt entry).
func (c *CPU) RunForCycles(budget uint64) uint64 {
	start := c.Cycles
	for c.Cycles-start < budget {
		_ = c.Step()
	}
	return c.Cycles - start
}

func (c *CPU) checkInterrupts() {
	if c.nmiPending {
		c.nmiPending = false
		c.serviceInterrupt(nmiVector)
		return
	}
	if c.Bus.IRQActive() && !c.I {
		c.serviceInterrupt(irqVector)
	}
}

// serviceInterrupt pushes PC and status (with B=0) and vectors in. Both
// NMI and IRQ entry cost 7 cycles.
func (c *CPU) serviceInterrupt(vector uint16) {
	c.pushWord(c.PC)
	c.push(c.packStatus(false))
	c.I = true
	c.PC = c.readWord(vector)
	c.Cycles += 7
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.Bus.Read(addr))
	hi := uint16(c.Bus.Read(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) push(value byte) {
	c.Bus.Write(stackBase|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pull() byte {
	c.SP++
	return c.Bus.Read(stackBase | uint16(c.SP))
}

func (c *CPU) pushWord(value uint16) {
	c.push(byte(value >> 8))
	c.push(byte(value))
}

func (c *CPU) pullWord() uint16 {
	lo := uint16(c.pull())
	hi := uint16(c.pull())
	return hi<<8 | lo
}

// packStatus returns the 7 individual flags packed into a status byte.
// Bit 5 is always 1; bit 4 (B) takes the value the caller wants
// observed in this particular pushed copy.
func (c *CPU) packStatus(withB bool) byte {
	var s byte
	if c.C {
		s |= flagC
	}
	if c.Z {
		s |= flagZ
	}
	if c.I {
		s |= flagI
	}
	if c.D {
		s |= flagD
	}
	if withB {
		s |= flagB
	}
	s |= flag5
	if c.V {
		s |= flagV
	}
	if c.N {
		s |= flagN
	}
	return s
}

// unpackStatus restores N,V,D,I,Z,C from a popped status byte, ignoring
// bits 4 (B) and 5.
func (c *CPU) unpackStatus(s byte) {
	c.C = s&flagC != 0
	c.Z = s&flagZ != 0
	c.I = s&flagI != 0
	c.D = s&flagD != 0
	c.V = s&flagV != 0
	c.N = s&flagN != 0
}

func (c *CPU) setZN(v byte) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}
