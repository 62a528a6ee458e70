package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInvariants(t *testing.T) {
	implemented := 0
	for op := 0; op < 256; op++ {
		e := Table[op]
		assert.Equalf(t, SizeForMode(e.Mode), e.SizeBytes, "opcode 0x%02X size/mode mismatch", op)
		if e.Implemented {
			implemented++
			assert.NotEqual(t, UnimplementedMnemonic, e.Mnemonic)
		} else {
			assert.Equal(t, UnimplementedMnemonic, e.Mnemonic)
			assert.EqualValues(t, 0, e.BaseCycles)
			assert.EqualValues(t, 1, e.SizeBytes)
		}
	}
	require.Equal(t, 151, implemented)
}

func TestByMnemonicMode(t *testing.T) {
	op, ok := ByMnemonicMode("LDA", Immediate)
	require.True(t, ok)
	assert.Equal(t, byte(0xA9), op)

	_, ok = ByMnemonicMode("LDA", IndirectX)
	assert.True(t, ok)

	_, ok = ByMnemonicMode("LDA", ZeroPageY)
	assert.False(t, ok)
}

func TestSizeForMode(t *testing.T) {
	cases := []struct {
		mode AddressingMode
		want uint8
	}{
		{Implicit, 1}, {Accumulator, 1},
		{Immediate, 2}, {ZeroPage, 2}, {ZeroPageX, 2}, {ZeroPageY, 2},
		{Relative, 2}, {IndirectX, 2}, {IndirectY, 2},
		{Absolute, 3}, {AbsoluteX, 3}, {AbsoluteY, 3}, {Indirect, 3},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, SizeForMode(c.mode), "mode %s", c.mode)
	}
}
