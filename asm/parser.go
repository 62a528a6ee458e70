package asm

import (
	"strconv"
	"strings"

	"github.com/go-retro/c64core/opcode"
)

// sourceLine is one parsed line of assembly, before any symbol is
// resolved.
type sourceLine struct {
	number int
	raw    string

	label        string // "" if no label
	constName    string // "" if not a constant assignment
	constExpr    string

	directive    string // "" if not a directive
	directiveArg string

	mnemonic string // "" if no instruction on this line
	operand  string // raw operand text, already stripped of whitespace
	mode     opcode.AddressingMode
	isInsn   bool
}

var branchMnemonics = map[string]bool{
	"BCC": true, "BCS": true, "BEQ": true, "BNE": true,
	"BMI": true, "BPL": true, "BVC": true, "BVS": true,
}

// parseLine tokenizes a single line. Comments start with ';' and run to
// end of line. A line may carry a label, then either a constant
// assignment, a directive, or an instruction, never more than one of
// those three.
func parseLine(raw string, lineNo int) (*sourceLine, *Error) {
	text := raw
	if i := strings.IndexByte(text, ';'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimRight(text, " \t\r")
	trimmed := strings.TrimSpace(text)
	sl := &sourceLine{number: lineNo, raw: raw}
	if trimmed == "" {
		return sl, nil
	}

	rest := trimmed

	// Label: "NAME:" at the start of the line.
	if idx := strings.IndexByte(rest, ':'); idx > 0 && !strings.Contains(rest[:idx], " ") {
		name := rest[:idx]
		if !isValidIdentifier(name) {
			return nil, newErr(InvalidLabel, lineNo, 1, len(name), "invalid label name %q", name)
		}
		sl.label = name
		rest = strings.TrimSpace(rest[idx+1:])
		if rest == "" {
			return sl, nil
		}
	}

	// Constant assignment: "NAME = expr".
	if idx := strings.Index(rest, "="); idx > 0 {
		name := strings.TrimSpace(rest[:idx])
		if isValidIdentifier(name) && !strings.ContainsAny(name, " \t") {
			sl.constName = name
			sl.constExpr = strings.TrimSpace(rest[idx+1:])
			return sl, nil
		}
	}

	// Directive: starts with '.'.
	if strings.HasPrefix(rest, ".") {
		fields := strings.SplitN(rest, " ", 2)
		sl.directive = strings.ToUpper(fields[0])
		if len(fields) == 2 {
			sl.directiveArg = strings.TrimSpace(fields[1])
		}
		return sl, nil
	}

	// Instruction: "MNEM" or "MNEM OPERAND".
	fields := strings.SplitN(rest, " ", 2)
	mnem := strings.ToUpper(fields[0])
	if !isValidIdentifier(mnem) {
		return nil, newErr(SyntaxError, lineNo, 1, len(mnem), "cannot parse %q as an instruction, directive or assignment", mnem)
	}
	sl.isInsn = true
	sl.mnemonic = mnem
	if len(fields) == 2 {
		sl.operand = strings.TrimSpace(fields[1])
		sl.operand = strings.ReplaceAll(sl.operand, " ", "")
	}
	return sl, nil
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// operandWidth reports whether a numeric literal token lexically denotes
// an 8-bit (zero page) or 16-bit (absolute) value, per the hex/binary
// digit width the source actually wrote. Every identifier (label or
// constant, defined or not) is assumed 16-bit/absolute, since operand
// width is decided lexically during pass 1.
func operandWidth(tok string) int {
	switch {
	case strings.HasPrefix(tok, "$"):
		digits := tok[1:]
		if len(digits) <= 2 {
			return 1
		}
		return 2
	case strings.HasPrefix(tok, "%"):
		digits := tok[1:]
		if len(digits) <= 8 {
			return 1
		}
		return 2
	case isAllDigits(tok):
		v, err := strconv.Atoi(tok)
		if err == nil && v >= 0 && v <= 0xFF {
			return 1
		}
		return 2
	default:
		return 2
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseNumber parses a literal in $hex, %binary or decimal form. It does
// not resolve identifiers; callers must look those up in the symbol
// table first.
func parseNumber(tok string) (uint16, bool) {
	switch {
	case strings.HasPrefix(tok, "$"):
		v, err := strconv.ParseUint(tok[1:], 16, 16)
		if err != nil {
			return 0, false
		}
		return uint16(v), true
	case strings.HasPrefix(tok, "%"):
		v, err := strconv.ParseUint(tok[1:], 2, 16)
		if err != nil {
			return 0, false
		}
		return uint16(v), true
	case isAllDigits(tok):
		v, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			return 0, false
		}
		return uint16(v), true
	default:
		return 0, false
	}
}

// classifyOperand determines the addressing mode a raw operand string
// implies, lexically, without resolving any symbol's value. branchForm
// forces Relative mode for branch mnemonics, which always take a single
// label/address operand.
func classifyOperand(mnemonic, operand string, branchForm bool) (opcode.AddressingMode, string, bool) {
	if operand == "" {
		return opcode.Implicit, "", true
	}
	if operand == "A" || operand == "a" {
		return opcode.Accumulator, "", true
	}
	if branchForm {
		return opcode.Relative, operand, true
	}
	if strings.HasPrefix(operand, "#") {
		return opcode.Immediate, operand[1:], true
	}
	if strings.HasPrefix(operand, "(") {
		switch {
		case strings.HasSuffix(operand, ",X)") || strings.HasSuffix(operand, ",x)"):
			return opcode.IndirectX, operand[1 : len(operand)-3], true
		case strings.HasSuffix(operand, "),Y") || strings.HasSuffix(operand, "),y"):
			return opcode.IndirectY, operand[1 : len(operand)-3], true
		case strings.HasSuffix(operand, ")"):
			return opcode.Indirect, operand[1 : len(operand)-1], true
		default:
			return opcode.Implicit, "", false
		}
	}
	base := operand
	indexed := byte(0)
	if strings.HasSuffix(operand, ",X") || strings.HasSuffix(operand, ",x") {
		base = operand[:len(operand)-2]
		indexed = 'X'
	} else if strings.HasSuffix(operand, ",Y") || strings.HasSuffix(operand, ",y") {
		base = operand[:len(operand)-2]
		indexed = 'Y'
	}
	width := operandWidth(base)
	switch indexed {
	case 'X':
		if width == 1 {
			return opcode.ZeroPageX, base, true
		}
		return opcode.AbsoluteX, base, true
	case 'Y':
		if width == 1 {
			return opcode.ZeroPageY, base, true
		}
		return opcode.AbsoluteY, base, true
	default:
		if width == 1 {
			return opcode.ZeroPage, base, true
		}
		return opcode.Absolute, base, true
	}
}
