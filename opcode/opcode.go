// Package opcode is the single source of truth for MOS 6502 instruction
// encoding: a fixed 256-entry table describing every opcode byte's
// mnemonic, addressing mode, base cycle cost and instruction size. The
// CPU, assembler and disassembler all dispatch through this table so
// that encoding and timing facts can never drift between them.
package opcode

import "fmt"

// AddressingMode enumerates the 13 6502 addressing modes.
type AddressingMode int

const (
	Implicit AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
)

func (m AddressingMode) String() string {
	switch m {
	case Implicit:
		return "Implicit"
	case Accumulator:
		return "Accumulator"
	case Immediate:
		return "Immediate"
	case ZeroPage:
		return "ZeroPage"
	case ZeroPageX:
		return "ZeroPageX"
	case ZeroPageY:
		return "ZeroPageY"
	case Relative:
		return "Relative"
	case Absolute:
		return "Absolute"
	case AbsoluteX:
		return "AbsoluteX"
	case AbsoluteY:
		return "AbsoluteY"
	case Indirect:
		return "Indirect"
	case IndirectX:
		return "IndirectX"
	case IndirectY:
		return "IndirectY"
	default:
		return "Unknown"
	}
}

// SizeForMode returns the instruction size in bytes that a mode implies.
// size_bytes is fully determined by mode: Implicit/Accumulator -> 1,
// Immediate/ZP*/Relative/Indirect(X|Y) -> 2, Absolute*/Indirect -> 3.
func SizeForMode(mode AddressingMode) uint8 {
	switch mode {
	case Implicit, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

// UnimplementedMnemonic is the sentinel mnemonic for illegal/unimplemented
// opcodes.
const UnimplementedMnemonic = "???"

// Entry is one row of the 256-entry opcode metadata table.
type Entry struct {
	Mnemonic    string
	Mode        AddressingMode
	BaseCycles  uint8
	SizeBytes   uint8
	Implemented bool
}

// Table is the fixed 256-entry opcode metadata table, indexed by opcode
// byte.
var Table [256]Entry

// byMnemonicMode is the reverse index the assembler's encoder uses to
// find the concrete opcode byte for a (mnemonic, mode) pair.
var byMnemonicMode map[string]byte

type def struct {
	opcode  byte
	mnem    string
	mode    AddressingMode
	cycles  uint8
}

// documented NMOS 6502 opcodes: 151 entries.
var documented = []def{
	// ADC
	{0x69, "ADC", Immediate, 2}, {0x65, "ADC", ZeroPage, 3}, {0x75, "ADC", ZeroPageX, 4},
	{0x6D, "ADC", Absolute, 4}, {0x7D, "ADC", AbsoluteX, 4}, {0x79, "ADC", AbsoluteY, 4},
	{0x61, "ADC", IndirectX, 6}, {0x71, "ADC", IndirectY, 5},
	// AND
	{0x29, "AND", Immediate, 2}, {0x25, "AND", ZeroPage, 3}, {0x35, "AND", ZeroPageX, 4},
	{0x2D, "AND", Absolute, 4}, {0x3D, "AND", AbsoluteX, 4}, {0x39, "AND", AbsoluteY, 4},
	{0x21, "AND", IndirectX, 6}, {0x31, "AND", IndirectY, 5},
	// ASL
	{0x0A, "ASL", Accumulator, 2}, {0x06, "ASL", ZeroPage, 5}, {0x16, "ASL", ZeroPageX, 6},
	{0x0E, "ASL", Absolute, 6}, {0x1E, "ASL", AbsoluteX, 7},
	// Branches
	{0x90, "BCC", Relative, 2}, {0xB0, "BCS", Relative, 2}, {0xF0, "BEQ", Relative, 2},
	{0x30, "BMI", Relative, 2}, {0xD0, "BNE", Relative, 2}, {0x10, "BPL", Relative, 2},
	{0x50, "BVC", Relative, 2}, {0x70, "BVS", Relative, 2},
	// BIT
	{0x24, "BIT", ZeroPage, 3}, {0x2C, "BIT", Absolute, 4},
	// BRK
	{0x00, "BRK", Implicit, 7},
	// Clear/set flags
	{0x18, "CLC", Implicit, 2}, {0xD8, "CLD", Implicit, 2}, {0x58, "CLI", Implicit, 2},
	{0xB8, "CLV", Implicit, 2}, {0x38, "SEC", Implicit, 2}, {0xF8, "SED", Implicit, 2},
	{0x78, "SEI", Implicit, 2},
	// CMP
	{0xC9, "CMP", Immediate, 2}, {0xC5, "CMP", ZeroPage, 3}, {0xD5, "CMP", ZeroPageX, 4},
	{0xCD, "CMP", Absolute, 4}, {0xDD, "CMP", AbsoluteX, 4}, {0xD9, "CMP", AbsoluteY, 4},
	{0xC1, "CMP", IndirectX, 6}, {0xD1, "CMP", IndirectY, 5},
	// CPX / CPY
	{0xE0, "CPX", Immediate, 2}, {0xE4, "CPX", ZeroPage, 3}, {0xEC, "CPX", Absolute, 4},
	{0xC0, "CPY", Immediate, 2}, {0xC4, "CPY", ZeroPage, 3}, {0xCC, "CPY", Absolute, 4},
	// DEC
	{0xC6, "DEC", ZeroPage, 5}, {0xD6, "DEC", ZeroPageX, 6}, {0xCE, "DEC", Absolute, 6},
	{0xDE, "DEC", AbsoluteX, 7},
	// DEX/DEY/INX/INY
	{0xCA, "DEX", Implicit, 2}, {0x88, "DEY", Implicit, 2},
	{0xE8, "INX", Implicit, 2}, {0xC8, "INY", Implicit, 2},
	// EOR
	{0x49, "EOR", Immediate, 2}, {0x45, "EOR", ZeroPage, 3}, {0x55, "EOR", ZeroPageX, 4},
	{0x4D, "EOR", Absolute, 4}, {0x5D, "EOR", AbsoluteX, 4}, {0x59, "EOR", AbsoluteY, 4},
	{0x41, "EOR", IndirectX, 6}, {0x51, "EOR", IndirectY, 5},
	// INC
	{0xE6, "INC", ZeroPage, 5}, {0xF6, "INC", ZeroPageX, 6}, {0xEE, "INC", Absolute, 6},
	{0xFE, "INC", AbsoluteX, 7},
	// JMP/JSR/RTS/RTI
	{0x4C, "JMP", Absolute, 3}, {0x6C, "JMP", Indirect, 5},
	{0x20, "JSR", Absolute, 6}, {0x60, "RTS", Implicit, 6}, {0x40, "RTI", Implicit, 6},
	// LDA
	{0xA9, "LDA", Immediate, 2}, {0xA5, "LDA", ZeroPage, 3}, {0xB5, "LDA", ZeroPageX, 4},
	{0xAD, "LDA", Absolute, 4}, {0xBD, "LDA", AbsoluteX, 4}, {0xB9, "LDA", AbsoluteY, 4},
	{0xA1, "LDA", IndirectX, 6}, {0xB1, "LDA", IndirectY, 5},
	// LDX
	{0xA2, "LDX", Immediate, 2}, {0xA6, "LDX", ZeroPage, 3}, {0xB6, "LDX", ZeroPageY, 4},
	{0xAE, "LDX", Absolute, 4}, {0xBE, "LDX", AbsoluteY, 4},
	// LDY
	{0xA0, "LDY", Immediate, 2}, {0xA4, "LDY", ZeroPage, 3}, {0xB4, "LDY", ZeroPageX, 4},
	{0xAC, "LDY", Absolute, 4}, {0xBC, "LDY", AbsoluteX, 4},
	// LSR
	{0x4A, "LSR", Accumulator, 2}, {0x46, "LSR", ZeroPage, 5}, {0x56, "LSR", ZeroPageX, 6},
	{0x4E, "LSR", Absolute, 6}, {0x5E, "LSR", AbsoluteX, 7},
	// NOP
	{0xEA, "NOP", Implicit, 2},
	// ORA
	{0x09, "ORA", Immediate, 2}, {0x05, "ORA", ZeroPage, 3}, {0x15, "ORA", ZeroPageX, 4},
	{0x0D, "ORA", Absolute, 4}, {0x1D, "ORA", AbsoluteX, 4}, {0x19, "ORA", AbsoluteY, 4},
	{0x01, "ORA", IndirectX, 6}, {0x11, "ORA", IndirectY, 5},
	// Stack
	{0x48, "PHA", Implicit, 3}, {0x08, "PHP", Implicit, 3},
	{0x68, "PLA", Implicit, 4}, {0x28, "PLP", Implicit, 4},
	// ROL
	{0x2A, "ROL", Accumulator, 2}, {0x26, "ROL", ZeroPage, 5}, {0x36, "ROL", ZeroPageX, 6},
	{0x2E, "ROL", Absolute, 6}, {0x3E, "ROL", AbsoluteX, 7},
	// ROR
	{0x6A, "ROR", Accumulator, 2}, {0x66, "ROR", ZeroPage, 5}, {0x76, "ROR", ZeroPageX, 6},
	{0x6E, "ROR", Absolute, 6}, {0x7E, "ROR", AbsoluteX, 7},
	// SBC
	{0xE9, "SBC", Immediate, 2}, {0xE5, "SBC", ZeroPage, 3}, {0xF5, "SBC", ZeroPageX, 4},
	{0xED, "SBC", Absolute, 4}, {0xFD, "SBC", AbsoluteX, 4}, {0xF9, "SBC", AbsoluteY, 4},
	{0xE1, "SBC", IndirectX, 6}, {0xF1, "SBC", IndirectY, 5},
	// STA
	{0x85, "STA", ZeroPage, 3}, {0x95, "STA", ZeroPageX, 4}, {0x8D, "STA", Absolute, 4},
	{0x9D, "STA", AbsoluteX, 5}, {0x99, "STA", AbsoluteY, 5},
	{0x81, "STA", IndirectX, 6}, {0x91, "STA", IndirectY, 6},
	// STX/STY
	{0x86, "STX", ZeroPage, 3}, {0x96, "STX", ZeroPageY, 4}, {0x8E, "STX", Absolute, 4},
	{0x84, "STY", ZeroPage, 3}, {0x94, "STY", ZeroPageX, 4}, {0x8C, "STY", Absolute, 4},
	// Register transfers
	{0xAA, "TAX", Implicit, 2}, {0xA8, "TAY", Implicit, 2},
	{0xBA, "TSX", Implicit, 2}, {0x8A, "TXA", Implicit, 2},
	{0x9A, "TXS", Implicit, 2}, {0x98, "TYA", Implicit, 2},
}

func init() {
	for i := range Table {
		Table[i] = Entry{Mnemonic: UnimplementedMnemonic, Mode: Implicit, BaseCycles: 0, SizeBytes: 1, Implemented: false}
	}
	byMnemonicMode = make(map[string]byte, len(documented))
	for _, d := range documented {
		Table[d.opcode] = Entry{
			Mnemonic:    d.mnem,
			Mode:        d.mode,
			BaseCycles:  d.cycles,
			SizeBytes:   SizeForMode(d.mode),
			Implemented: true,
		}
		byMnemonicMode[key(d.mnem, d.mode)] = d.opcode
	}
	assertInvariants()
}

func key(mnemonic string, mode AddressingMode) string {
	return fmt.Sprintf("%s#%d", mnemonic, mode)
}

// ByMnemonicMode looks up the concrete opcode byte for a documented
// (mnemonic, addressing mode) pair.
func ByMnemonicMode(mnemonic string, mode AddressingMode) (byte, bool) {
	b, ok := byMnemonicMode[key(mnemonic, mode)]
	return b, ok
}

func assertInvariants() {
	implemented := 0
	for op, e := range Table {
		if e.Implemented {
			implemented++
		}
		if e.SizeBytes != SizeForMode(e.Mode) {
			panic(fmt.Sprintf("opcode table: entry 0x%02X has size %d inconsistent with mode %s", op, e.SizeBytes, e.Mode))
		}
	}
	if implemented != len(documented) {
		panic(fmt.Sprintf("opcode table: expected %d implemented entries, got %d", len(documented), implemented))
	}
	if implemented != 151 {
		panic(fmt.Sprintf("opcode table: expected exactly 151 implemented NMOS opcodes, got %d", implemented))
	}
}
