package sid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoice3Readback(t *testing.T) {
	c := New(985248, 44100)
	c.voices[2].accumulator = 0x123456
	c.voices[2].envCounter = 0x42
	assert.Equal(t, byte(0x12), c.Read(regVoice3Osc))
	assert.Equal(t, byte(0x42), c.Read(regVoice3Env))
}

func TestPotentiometerRegistersReadFF(t *testing.T) {
	c := New(985248, 44100)
	assert.Equal(t, byte(0xFF), c.Read(0x19))
	assert.Equal(t, byte(0xFF), c.Read(0x1A))
}

func TestGateOnEntersAttack(t *testing.T) {
	c := New(985248, 44100)
	c.Write(regControl, ctrlGate|ctrlTri)
	assert.Equal(t, stageAttack, c.voices[0].stage)
	assert.True(t, c.voices[0].gateOn)
}

func TestGateOffEntersRelease(t *testing.T) {
	c := New(985248, 44100)
	c.Write(regControl, ctrlGate)
	c.Write(regControl, 0)
	assert.Equal(t, stageRelease, c.voices[0].stage)
	assert.False(t, c.voices[0].gateOn)
}

func TestWaveformZeroWhenNoneSelected(t *testing.T) {
	c := New(985248, 44100)
	assert.Equal(t, uint16(0), c.waveform(0))
}

func TestSawtoothWaveformTracksAccumulator(t *testing.T) {
	c := New(985248, 44100)
	c.Registers[regControl] = ctrlSaw
	c.voices[0].accumulator = 0xABC000
	assert.Equal(t, uint16(0xABC), c.waveform(0))
}

func TestHardSyncResetsAccumulatorOnSourceMSBRisingEdge(t *testing.T) {
	c := New(985248, 44100)
	// voice 1 (index 1) syncs from voice 0 (syncSource(1) == 0).
	c.Registers[regVoiceStride+regControl] = ctrlSync | ctrlSaw
	c.voices[0].accumulator = 0x7FFFFF
	c.voices[0].prevMSB = false
	c.voices[1].accumulator = 0x400000

	regs0 := c.voiceRegs(0)
	regs0[regFreqLo] = 0xFF
	regs0[regFreqHi] = 0xFF

	c.Clock()
	assert.Equal(t, uint32(0), c.voices[1].accumulator)
}

func TestClockEmitsSamplesAtResampledRate(t *testing.T) {
	c := New(1000, 100) // 10 clocks per sample
	c.Registers[regModeVolume] = 0x0F
	c.Registers[regControl] = ctrlTri
	c.voices[0].envCounter = 0xFF

	for i := 0; i < 25; i++ {
		c.Clock()
	}
	require.NotEmpty(t, c.Samples)
	assert.LessOrEqual(t, len(c.Samples), 3)
}

func TestMixSampleSilentWhenVolumeZero(t *testing.T) {
	c := New(985248, 44100)
	c.Registers[regModeVolume] = 0
	assert.Equal(t, float32(0), c.mixSample())
}

func TestNoiseOutputBitMapping(t *testing.T) {
	var lfsr uint32
	lfsr |= 1 << 0
	lfsr |= 1 << 20
	out := noiseOutput(lfsr)
	assert.NotZero(t, out&(1<<4))
	assert.NotZero(t, out&(1<<11))
	assert.Zero(t, out&^((1<<4)|(1<<11)))
}
