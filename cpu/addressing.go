package cpu

import "github.com/go-retro/c64core/opcode"

// operand carries whatever a handler needs from an addressing mode: the
// effective address (for RMW/stores), the byte already read at that
// address (for reads), and whether fetching it crossed a page boundary.
type operand struct {
	addr        uint16
	value       byte
	pageCrossed bool
}

// fetchOperand resolves an addressing mode relative to the instruction
// at opcodeAddr. Operand bytes are read relative to opcodeAddr, which the
// caller passes in explicitly; fetchOperand does not read c.PC.
func (c *CPU) fetchOperand(mode opcode.AddressingMode, opcodeAddr uint16) operand {
	switch mode {
	case opcode.Implicit:
		return operand{}

	case opcode.Accumulator:
		return operand{value: c.A}

	case opcode.Immediate:
		addr := opcodeAddr + 1
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.ZeroPage:
		base := c.Bus.Read(opcodeAddr + 1)
		addr := uint16(base)
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.ZeroPageX:
		base := c.Bus.Read(opcodeAddr + 1)
		addr := uint16(base + c.X)
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.ZeroPageY:
		base := c.Bus.Read(opcodeAddr + 1)
		addr := uint16(base + c.Y)
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.Relative:
		offset := int8(c.Bus.Read(opcodeAddr + 1))
		target := uint16(int32(opcodeAddr) + 2 + int32(offset))
		return operand{addr: target}

	case opcode.Absolute:
		addr := c.readWord(opcodeAddr + 1)
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.AbsoluteX:
		base := c.readWord(opcodeAddr + 1)
		addr := base + uint16(c.X)
		return operand{addr: addr, value: c.Bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}

	case opcode.AbsoluteY:
		base := c.readWord(opcodeAddr + 1)
		addr := base + uint16(c.Y)
		return operand{addr: addr, value: c.Bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}

	case opcode.Indirect:
		ptr := c.readWord(opcodeAddr + 1)
		// JMP (ind) page-wrap bug: the high byte is fetched from
		// (ptr & 0xFF00) | ((ptr+1) & 0x00FF), never crossing into the
		// next page, reproducing the NMOS hardware fault.
		lo := c.Bus.Read(ptr)
		hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
		hi := c.Bus.Read(hiAddr)
		return operand{addr: uint16(hi)<<8 | uint16(lo)}

	case opcode.IndirectX:
		zp := c.Bus.Read(opcodeAddr+1) + c.X
		lo := uint16(c.Bus.Read(uint16(zp)))
		hi := uint16(c.Bus.Read(uint16(zp + 1)))
		addr := hi<<8 | lo
		return operand{addr: addr, value: c.Bus.Read(addr)}

	case opcode.IndirectY:
		zp := c.Bus.Read(opcodeAddr + 1)
		lo := uint16(c.Bus.Read(uint16(zp)))
		hi := uint16(c.Bus.Read(uint16(zp + 1)))
		base := hi<<8 | lo
		addr := base + uint16(c.Y)
		return operand{addr: addr, value: c.Bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}
	}
	return operand{}
}

// readPenalty applies the load/compare page-cross penalty: AbsoluteX,
// AbsoluteY and IndirectY reads pay 1 extra cycle when they cross a
// page; stores pay a fixed extra cycle unconditionally; RMW instructions
// never get the penalty (their base cycle cost already accounts for it).
func readPenalty(mode opcode.AddressingMode, op operand) uint8 {
	switch mode {
	case opcode.AbsoluteX, opcode.AbsoluteY, opcode.IndirectY:
		if op.pageCrossed {
			return 1
		}
	}
	return 0
}
