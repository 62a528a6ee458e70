package asm

import (
	"fmt"

	"github.com/go-retro/c64core/opcode"
)

// Instruction is one decoded unit from a linear disassembly pass: either
// a real opcode, or an undecodable byte surfaced as a pseudo .byte.
type Instruction struct {
	Address  uint16
	Opcode   byte
	Mnemonic string
	Mode     opcode.AddressingMode
	Operand  []byte
	Size     int
	Legal    bool
}

// Text renders the instruction the way the assembler's own syntax would
// accept it back, so disassemble-then-assemble round trips without
// manual massaging (other than resolving any address back through a
// symbol).
func (in Instruction) Text() string {
	if !in.Legal {
		return fmt.Sprintf(".byte $%02X", in.Opcode)
	}
	operand := formatOperand(in.Mode, in.Address, in.Operand)
	if operand == "" {
		return in.Mnemonic
	}
	return in.Mnemonic + " " + operand
}

func formatOperand(mode opcode.AddressingMode, addr uint16, bytes []byte) string {
	switch mode {
	case opcode.Implicit:
		return ""
	case opcode.Accumulator:
		return "A"
	case opcode.Immediate:
		return fmt.Sprintf("#$%02X", bytes[0])
	case opcode.ZeroPage:
		return fmt.Sprintf("$%02X", bytes[0])
	case opcode.ZeroPageX:
		return fmt.Sprintf("$%02X,X", bytes[0])
	case opcode.ZeroPageY:
		return fmt.Sprintf("$%02X,Y", bytes[0])
	case opcode.Relative:
		offset := int8(bytes[0])
		target := uint16(int32(addr) + 2 + int32(offset))
		return fmt.Sprintf("$%04X", target)
	case opcode.Absolute:
		return fmt.Sprintf("$%04X", le16(bytes))
	case opcode.AbsoluteX:
		return fmt.Sprintf("$%04X,X", le16(bytes))
	case opcode.AbsoluteY:
		return fmt.Sprintf("$%04X,Y", le16(bytes))
	case opcode.Indirect:
		return fmt.Sprintf("($%04X)", le16(bytes))
	case opcode.IndirectX:
		return fmt.Sprintf("($%02X,X)", bytes[0])
	case opcode.IndirectY:
		return fmt.Sprintf("($%02X),Y", bytes[0])
	default:
		return ""
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// Disassemble walks data as a single linear sweep starting at origin
// (no branch-following, no code/data separation). An opcode byte whose
// table entry is unimplemented, or one that runs past the end of data,
// is emitted as a single illegal byte and the sweep resumes at the next
// address.
func Disassemble(data []byte, origin uint16) []Instruction {
	var out []Instruction
	pc := 0
	for pc < len(data) {
		addr := origin + uint16(pc)
		opByte := data[pc]
		entry := opcode.Table[opByte]
		size := int(entry.SizeBytes)
		if !entry.Implemented || pc+size > len(data) {
			out = append(out, Instruction{Address: addr, Opcode: opByte, Legal: false, Size: 1})
			pc++
			continue
		}
		operand := append([]byte(nil), data[pc+1:pc+size]...)
		out = append(out, Instruction{
			Address:  addr,
			Opcode:   opByte,
			Mnemonic: entry.Mnemonic,
			Mode:     entry.Mode,
			Operand:  operand,
			Size:     size,
			Legal:    true,
		})
		pc += size
	}
	return out
}
