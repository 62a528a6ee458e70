package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleConstantAndBackwardBranch(t *testing.T) {
	src := "MAX = $42\nSTART: LDA #MAX\nBEQ START\n"
	res, errs := Assemble(src)
	require.Empty(t, errs)
	require.Equal(t, []byte{0xA9, 0x42, 0xF0, 0xFC}, res.Bytes)

	start, ok := res.Symbols["START"]
	require.True(t, ok)
	assert.Equal(t, uint16(0), start.Value)
	maxConst, ok := res.Symbols["MAX"]
	require.True(t, ok)
	assert.Equal(t, uint16(0x42), maxConst.Value)
}

func TestAssembleOrgDirective(t *testing.T) {
	src := ".org $C000\nNOP\nNOP\n"
	res, errs := Assemble(src)
	require.Empty(t, errs)
	assert.Equal(t, uint16(0xC000), res.Origin)
	assert.Equal(t, []byte{0xEA, 0xEA}, res.Bytes)
}

func TestAssembleByteAndWordDirectives(t *testing.T) {
	src := ".byte $01,$02,3\n.word $1234\n"
	res, errs := Assemble(src)
	require.Empty(t, errs)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x34, 0x12}, res.Bytes)
}

func TestAssembleAbsoluteVsZeroPageFromHexWidth(t *testing.T) {
	src := "LDA $13\nLDA $0013\n"
	res, errs := Assemble(src)
	require.Empty(t, errs)
	assert.Equal(t, []byte{0xA5, 0x13, 0xAD, 0x13, 0x00}, res.Bytes)
}

func TestAssembleIndexedModes(t *testing.T) {
	src := "LDA $10,X\nLDA $1000,X\nLDX $10,Y\nLDA ($10,X)\nLDA ($10),Y\n"
	res, errs := Assemble(src)
	require.Empty(t, errs)
	assert.Equal(t, []byte{
		0xB5, 0x10,
		0xBD, 0x00, 0x10,
		0xB6, 0x10,
		0xA1, 0x10,
		0xB1, 0x10,
	}, res.Bytes)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	src := "START: NOP\nSTART: NOP\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, DuplicateLabel, errs[0].Kind)
}

func TestAssembleNameCollisionBetweenLabelAndConstant(t *testing.T) {
	src := "FOO = $10\nFOO: NOP\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, NameCollision, errs[0].Kind)
}

func TestAssembleUndefinedLabel(t *testing.T) {
	src := "JMP NOWHERE\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, UndefinedLabel, errs[0].Kind)
}

func TestAssembleConstantReferencingUndefinedSymbol(t *testing.T) {
	src := "FOO = BAR\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, UndefinedConstant, errs[0].Kind)
}

func TestAssembleConstantWithMalformedLiteral(t *testing.T) {
	src := "FOO = $ZZZZ\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, InvalidConstantValue, errs[0].Kind)
}

func TestAssembleBranchOutOfRange(t *testing.T) {
	src := "START: NOP\n"
	for i := 0; i < 200; i++ {
		src += ".byte 0\n"
	}
	src += "BEQ START\n"
	_, errs := Assemble(src)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Kind == RangeError {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssembleInvalidDirective(t *testing.T) {
	src := ".bogus 1,2,3\n"
	_, errs := Assemble(src)
	require.Len(t, errs, 1)
	assert.Equal(t, InvalidDirective, errs[0].Kind)
}

func TestAssembleThenDisassembleRoundTrip(t *testing.T) {
	res, errs := Assemble("LDA #$10\nSTA $D020\nRTS\n")
	require.Empty(t, errs)

	instrs := Disassemble(res.Bytes, res.Origin)
	require.Len(t, instrs, 3)
	assert.Equal(t, "LDA #$10", instrs[0].Text())
	assert.Equal(t, "STA $D020", instrs[1].Text())
	assert.Equal(t, "RTS", instrs[2].Text())
}

func TestDisassembleIllegalByte(t *testing.T) {
	instrs := Disassemble([]byte{0x02, 0xEA}, 0x8000)
	require.Len(t, instrs, 2)
	assert.False(t, instrs[0].Legal)
	assert.Equal(t, ".byte $02", instrs[0].Text())
	assert.Equal(t, "NOP", instrs[1].Text())
}

func TestDisassembleTruncatedTrailingOperand(t *testing.T) {
	// LDA absolute (0xAD) needs 2 operand bytes but only 1 remains.
	instrs := Disassemble([]byte{0xAD, 0x10}, 0x8000)
	require.Len(t, instrs, 2)
	assert.False(t, instrs[0].Legal)
	assert.Equal(t, uint16(0x8000), instrs[0].Address)
	assert.False(t, instrs[1].Legal)
	assert.Equal(t, uint16(0x8001), instrs[1].Address)
}

func TestDisassembleRelativeFormatsTargetAddress(t *testing.T) {
	instrs := Disassemble([]byte{0xF0, 0x7F}, 0x80FD)
	require.Len(t, instrs, 1)
	assert.Equal(t, "BEQ $817E", instrs[0].Text())
}
