package cpu

import (
	"testing"

	"github.com/go-retro/c64core/membus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCPU() (*CPU, *membus.FlatRAM) {
	ram := membus.NewFlatRAM()
	c := New(ram)
	return c, ram
}

func TestResetAndNOP(t *testing.T) {
	ram := membus.NewFlatRAM()
	ram.Write(0xFFFC, 0x00)
	ram.Write(0xFFFD, 0x80)
	ram.Write(0x8000, 0xEA) // NOP

	c := New(ram)
	require.Equal(t, uint16(0x8000), c.PC)
	require.True(t, c.I)

	err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x8001), c.PC)
	assert.EqualValues(t, 2, c.Cycles)
	assert.True(t, c.I)
}

func TestADCOverflow(t *testing.T) {
	c, ram := newTestCPU()
	ram.Write(0xFFFC, 0x00)
	ram.Write(0xFFFD, 0x80)
	c.Reset()
	c.A = 0x7F
	c.C = false
	c.D = false
	ram.Write(0x8000, 0x69) // ADC #imm
	ram.Write(0x8001, 0x01)

	require.NoError(t, c.Step())
	assert.Equal(t, byte(0x80), c.A)
	assert.True(t, c.N)
	assert.True(t, c.V)
	assert.False(t, c.Z)
	assert.False(t, c.C)
}

func TestBCDADC(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	c.A = 0x09
	c.C = false
	c.D = true
	ram.Write(0x8000, 0x69)
	ram.Write(0x8001, 0x01)
	c.PC = 0x8000

	require.NoError(t, c.Step())
	assert.Equal(t, byte(0x10), c.A)
	assert.False(t, c.C)
	assert.False(t, c.Z)
}

func TestADCThenSBCRestoresA(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	c.A = 0x40
	c.C = false
	ram.Write(0x8000, 0x69) // ADC #imm
	ram.Write(0x8001, 0x20)
	ram.Write(0x8002, 0xE9) // SBC #imm
	ram.Write(0x8003, 0x20)
	c.PC = 0x8000

	require.NoError(t, c.Step())
	c.C = true
	require.NoError(t, c.Step())
	assert.Equal(t, byte(0x40), c.A)
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, ram := newTestCPU()
	ram.Write(0x10FF, 0x34)
	ram.Write(0x1000, 0x12)
	ram.Write(0x1100, 0xAA)
	ram.Write(0x8000, 0x6C) // JMP (ind)
	ram.Write(0x8001, 0xFF)
	ram.Write(0x8002, 0x10)
	c.Reset()
	c.PC = 0x8000
	c.Cycles = 0

	require.NoError(t, c.Step())
	assert.Equal(t, uint16(0x1234), c.PC)
	assert.EqualValues(t, 5, c.Cycles)
}

func TestPHAPLARoundTrip(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	c.A = 0x55
	sp := c.SP
	ram.Write(0x8000, 0x48) // PHA
	ram.Write(0x8001, 0x68) // PLA
	c.PC = 0x8000

	require.NoError(t, c.Step())
	require.NoError(t, c.Step())
	assert.Equal(t, byte(0x55), c.A)
	assert.Equal(t, sp, c.SP)
}

func TestUnimplementedOpcodeAdvancesPCAndCycles(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	// 0x02 is not in the documented NMOS set.
	ram.Write(0x8000, 0x02)
	c.PC = 0x8000

	err := c.Step()
	require.Error(t, err)
	var uo *UnimplementedOpcode
	require.ErrorAs(t, err, &uo)
	assert.Equal(t, byte(0x02), uo.Opcode)
	assert.Equal(t, uint16(0x8001), c.PC)
	assert.EqualValues(t, 0, c.Cycles)
}

func TestBranchTakenAndPageCrossPenalty(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	c.Z = true
	ram.Write(0x80FD, 0xF0) // BEQ
	ram.Write(0x80FE, 0x7F) // +127 -> target 0x817E (crosses page)
	c.PC = 0x80FD
	c.Cycles = 0

	require.NoError(t, c.Step())
	assert.Equal(t, uint16(0x817E), c.PC)
	assert.EqualValues(t, 4, c.Cycles) // base 2 + taken 1 + page-cross 1
}

func TestIRQServicedAtInstructionBoundary(t *testing.T) {
	c, ram := newTestCPU()
	ram.Write(0xFFFE, 0x00)
	ram.Write(0xFFFF, 0x90)
	c.Reset()
	c.I = false
	ram.Write(0x8000, 0xEA) // NOP
	c.PC = 0x8000

	bus := &alwaysIRQBus{FlatRAM: ram}
	c.Bus = bus

	require.NoError(t, c.Step())
	assert.Equal(t, uint16(0x9000), c.PC)
	assert.True(t, c.I)
}

type alwaysIRQBus struct {
	*membus.FlatRAM
}

func (b *alwaysIRQBus) IRQActive() bool { return true }

func TestNMIEdgeLatchesOnce(t *testing.T) {
	c, ram := newTestCPU()
	ram.Write(0xFFFA, 0x00)
	ram.Write(0xFFFB, 0xA0)
	c.Reset()
	ram.Write(0x8000, 0xEA)
	ram.Write(0xA000, 0xEA) // instruction at NMI target, but we stop there.
	c.PC = 0x8000

	c.SetNMILine(false)
	c.SetNMILine(true) // 0->1 edge
	require.NoError(t, c.Step())
	assert.Equal(t, uint16(0xA000), c.PC)
}

func TestStackAddressAlwaysPage1(t *testing.T) {
	c, ram := newTestCPU()
	c.Reset()
	c.SP = 0xFF
	c.push(0x42)
	assert.Equal(t, byte(0x42), ram.Read(0x01FF))
	assert.Equal(t, byte(0xFE), c.SP)
}
