package cpu

import "github.com/go-retro/c64core/opcode"

// execute dispatches a decoded, implemented instruction by mnemonic. It
// returns additional cycles beyond entry.BaseCycles (page-cross and
// branch-taken penalties) and may overwrite *nextPC for control-flow
// instructions.
func (c *CPU) execute(entry opcode.Entry, opcodeAddr uint16, nextPC *uint16) uint8 {
	mode := entry.Mode
	op := c.fetchOperand(mode, opcodeAddr)

	switch entry.Mnemonic {
	// Loads
	case "LDA":
		c.A = op.value
		c.setZN(c.A)
		return readPenalty(mode, op)
	case "LDX":
		c.X = op.value
		c.setZN(c.X)
		return readPenalty(mode, op)
	case "LDY":
		c.Y = op.value
		c.setZN(c.Y)
		return readPenalty(mode, op)

	// Stores: fixed extra cycle on indexed modes, never page-cross-
	// conditional.
	case "STA":
		c.Bus.Write(op.addr, c.A)
		return 0
	case "STX":
		c.Bus.Write(op.addr, c.X)
		return 0
	case "STY":
		c.Bus.Write(op.addr, c.Y)
		return 0

	// Transfers
	case "TAX":
		c.X = c.A
		c.setZN(c.X)
	case "TAY":
		c.Y = c.A
		c.setZN(c.Y)
	case "TXA":
		c.A = c.X
		c.setZN(c.A)
	case "TYA":
		c.A = c.Y
		c.setZN(c.A)
	case "TSX":
		c.X = c.SP
		c.setZN(c.X)
	case "TXS":
		c.SP = c.X

	// Stack
	case "PHA":
		c.push(c.A)
	case "PHP":
		c.push(c.packStatus(true))
	case "PLA":
		c.A = c.pull()
		c.setZN(c.A)
	case "PLP":
		c.unpackStatus(c.pull())

	// Logical
	case "AND":
		c.A &= op.value
		c.setZN(c.A)
		return readPenalty(mode, op)
	case "ORA":
		c.A |= op.value
		c.setZN(c.A)
		return readPenalty(mode, op)
	case "EOR":
		c.A ^= op.value
		c.setZN(c.A)
		return readPenalty(mode, op)
	case "BIT":
		c.bit(op.value)

	// Arithmetic
	case "ADC":
		c.adc(op.value)
		return readPenalty(mode, op)
	case "SBC":
		c.sbc(op.value)
		return readPenalty(mode, op)
	case "CMP":
		c.cmp(c.A, op.value)
		return readPenalty(mode, op)
	case "CPX":
		c.cmp(c.X, op.value)
	case "CPY":
		c.cmp(c.Y, op.value)

	// Increment/decrement memory
	case "INC":
		v := op.value + 1
		c.Bus.Write(op.addr, v)
		c.setZN(v)
	case "DEC":
		v := op.value - 1
		c.Bus.Write(op.addr, v)
		c.setZN(v)
	case "INX":
		c.X++
		c.setZN(c.X)
	case "INY":
		c.Y++
		c.setZN(c.Y)
	case "DEX":
		c.X--
		c.setZN(c.X)
	case "DEY":
		c.Y--
		c.setZN(c.Y)

	// Shifts/rotates: RMW, never pay the read page-cross penalty.
	case "ASL":
		if mode == opcode.Accumulator {
			c.A = c.asl(c.A)
		} else {
			v := c.asl(op.value)
			c.Bus.Write(op.addr, v)
		}
	case "LSR":
		if mode == opcode.Accumulator {
			c.A = c.lsr(c.A)
		} else {
			v := c.lsr(op.value)
			c.Bus.Write(op.addr, v)
		}
	case "ROL":
		if mode == opcode.Accumulator {
			c.A = c.rol(c.A)
		} else {
			v := c.rol(op.value)
			c.Bus.Write(op.addr, v)
		}
	case "ROR":
		if mode == opcode.Accumulator {
			c.A = c.ror(c.A)
		} else {
			v := c.ror(op.value)
			c.Bus.Write(op.addr, v)
		}

	// Jumps & calls
	case "JMP":
		*nextPC = op.addr
	case "JSR":
		c.pushWord(opcodeAddr + 2)
		*nextPC = op.addr
	case "RTS":
		*nextPC = c.pullWord() + 1
	case "RTI":
		c.unpackStatus(c.pull())
		*nextPC = c.pullWord()

	// Branches
	case "BCC":
		return c.branch(!c.C, op.addr, *nextPC, nextPC)
	case "BCS":
		return c.branch(c.C, op.addr, *nextPC, nextPC)
	case "BEQ":
		return c.branch(c.Z, op.addr, *nextPC, nextPC)
	case "BNE":
		return c.branch(!c.Z, op.addr, *nextPC, nextPC)
	case "BMI":
		return c.branch(c.N, op.addr, *nextPC, nextPC)
	case "BPL":
		return c.branch(!c.N, op.addr, *nextPC, nextPC)
	case "BVC":
		return c.branch(!c.V, op.addr, *nextPC, nextPC)
	case "BVS":
		return c.branch(c.V, op.addr, *nextPC, nextPC)

	// Flags
	case "CLC":
		c.C = false
	case "CLD":
		c.D = false
	case "CLI":
		c.I = false
	case "CLV":
		c.V = false
	case "SEC":
		c.C = true
	case "SED":
		c.D = true
	case "SEI":
		c.I = true

	case "NOP":
		// no-op

	case "BRK":
		c.pushWord(opcodeAddr + 2)
		c.push(c.packStatus(true))
		c.I = true
		*nextPC = c.readWord(irqVector)
	}
	return 0
}

// branch takes the branch if condition holds, returning the 1-or-2-cycle
// penalty; otherwise nextPC is left at its default (fall-through) value.
func (c *CPU) branch(condition bool, target, fallthroughPC uint16, nextPC *uint16) uint8 {
	if !condition {
		return 0
	}
	*nextPC = target
	if (fallthroughPC & 0xFF00) != (target & 0xFF00) {
		return 2
	}
	return 1
}
