package c64

import (
	"testing"

	"github.com/go-retro/c64core/sid"
	"github.com/go-retro/c64core/vicii"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *Bus {
	return NewBus(vicii.NewPAL(), sid.New(clockHzPAL, sampleHz), NewCIA(), NewCIA())
}

func TestBusRoutesVICRegistersWhenIOVisible(t *testing.T) {
	b := newTestBus()
	b.Write(0xD020, 0x05)
	assert.Equal(t, byte(0x05), b.Read(0xD020))
}

func TestBusFallsBackToRAMWhenIOBankedOut(t *testing.T) {
	b := newTestBus()
	b.Write(0x0001, 0x00) // CHAREN clear: IO not visible
	b.Write(0xD020, 0xAB)
	assert.Equal(t, byte(0xAB), b.Read(0xD020))
	assert.Equal(t, byte(0), b.VIC.Registers[vicii.RegBorderColor])
}

func TestColorRAMReadsMaskedToLowNibbleWithHighBitsSet(t *testing.T) {
	b := newTestBus()
	b.Write(0xD800, 0x03)
	assert.Equal(t, byte(0xF3), b.Read(0xD800))
}

func TestBusRoutesCIARegisters(t *testing.T) {
	b := newTestBus()
	b.Write(0xDC0E, 0x11)
	assert.Equal(t, byte(0x11), b.Read(0xDC0E))
	assert.True(t, b.CIA1.RunningA)
}

func TestKeyboardMatrixScanViaCIA1(t *testing.T) {
	b := newTestBus()
	b.CIA1.DDRA = 0xFF
	b.Write(0xDC00, 0xFE) // select column 0 (active low)
	b.CIA1.DDRB = 0x00    // port B all input
	b.SetKey(0, 3, true)

	got := b.Read(0xDC01)
	assert.Equal(t, byte(0xF7), got)
}

func TestIRQActiveReflectsVICAndCIA1(t *testing.T) {
	b := newTestBus()
	assert.False(t, b.IRQActive())

	b.VIC.Registers[vicii.RegInterrupt] = 0x80
	assert.True(t, b.IRQActive())
	b.VIC.Registers[vicii.RegInterrupt] = 0

	b.CIA1.ICRFlags = icrTimerA
	b.CIA1.ICRMask = icrTimerA
	assert.True(t, b.IRQActive())
}

func TestCIATimerUnderflowSetsICRFlagAndStopsOneShot(t *testing.T) {
	cia := NewCIA()
	cia.LatchA = 2
	cia.TimerA = 2
	cia.CRA = 0x09 // start, one-shot
	cia.RunningA = true
	cia.OneShotA = true

	cia.Tick(3)
	assert.True(t, cia.ICRFlags&icrTimerA != 0)
	assert.False(t, cia.RunningA)
}

func TestCIATODAlarmMatchSetsICRFlag(t *testing.T) {
	cia := NewCIA()
	cia.AlarmTenths = 0x01
	cia.TODTenths = 0x00
	cia.TickTOD()
	assert.True(t, cia.ICRFlags&icrAlarm != 0)
}

func TestSystemStepAdvancesPC(t *testing.T) {
	sys := NewSystem("PAL")
	sys.Bus.LoadAt(0xFFFC, []byte{0x00, 0x80})
	sys.Bus.LoadAt(0x8000, []byte{0xA9, 0x42}) // LDA #$42
	sys.CPU.Reset()

	require.NoError(t, sys.Step())
	assert.Equal(t, byte(0x42), sys.CPU.A)
	assert.Equal(t, uint16(0x8002), sys.CPU.PC)
}

func TestSystemRunFrameAdvancesFrameCount(t *testing.T) {
	sys := NewSystem("PAL")
	sys.Bus.LoadAt(0xFFFC, []byte{0x00, 0x80})
	sys.Bus.LoadAt(0x8000, []byte{0xEA}) // one NOP, then zeroed RAM (BRK)
	sys.CPU.Reset()

	sys.RunFrame()
	assert.Equal(t, uint64(1), sys.FrameCount)
}

func TestSaveStateRoundTrip(t *testing.T) {
	sys := NewSystem("PAL")
	sys.Bus.LoadAt(0xFFFC, []byte{0x00, 0x80})
	sys.CPU.Reset()
	sys.CPU.A = 0x42
	sys.CPU.PC = 0x9000
	sys.Bus.ColorRAM[5] = 0x0A
	sys.Bus.KeyMatrix[2] = 0x10
	sys.Bus.Write(0xD020, 0x07)
	sys.FrameCount = 123

	st := sys.Capture(1700000000)
	encoded, err := Encode(st)
	require.NoError(t, err)
	assert.Equal(t, "C64S", string(encoded[:4]))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), decoded.Version)
	assert.Equal(t, uint64(1700000000), decoded.Timestamp)
	assert.Equal(t, byte(0x42), decoded.A)
	assert.Equal(t, uint16(0x9000), decoded.PC)
	assert.Equal(t, byte(0x0A), decoded.ColorRAM[5])
	assert.Equal(t, byte(0x10), decoded.KeyMatrix[2])
	assert.Equal(t, byte(0x07), decoded.VICRegisters[vicii.RegBorderColor])
	assert.Equal(t, uint64(123), decoded.FrameCount)
	assert.Equal(t, "PAL", decoded.Region)

	fresh := NewSystem("NTSC")
	fresh.Restore(decoded)
	assert.Equal(t, byte(0x42), fresh.CPU.A)
	assert.Equal(t, uint16(0x9000), fresh.CPU.PC)
	assert.Equal(t, "PAL", fresh.Region)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("NOPE0000000000"))
	assert.Error(t, err)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	data := []byte("C64S")
	data = append(data, 0x02, 0x00, 0x00, 0x00) // version 2
	_, err := Decode(data)
	assert.Error(t, err)
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	_, err := Decode([]byte("C64S"))
	assert.Error(t, err)
}

func TestLoadConfigDefaultsToPAL(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "PAL", cfg.Region)
	assert.Equal(t, clockHzPAL, cfg.ClockHz)
}
