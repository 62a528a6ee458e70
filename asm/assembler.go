package asm

import (
	"strings"

	"github.com/go-retro/c64core/opcode"
)

// SourceMapEntry associates one emitted instruction or directive with
// the source line that produced it, for disassembly-adjacent tooling
// and error reporting against the original text.
type SourceMapEntry struct {
	Address uint16
	Line    int
	Length  int
}

// Result is the product of a successful assembly.
type Result struct {
	Bytes     []byte
	Origin    uint16
	Symbols   map[string]Symbol
	SourceMap []SourceMapEntry
}

// lineInfo is what pass 1 records per source line so pass 2 does not
// need to re-lex.
type lineInfo struct {
	sl      *sourceLine
	address uint16
	size    int
}

// Assemble runs both passes over src and returns the assembled image
// plus the resolved symbol table, or every error found. Pass 2 always
// runs to completion and accumulates all encoding errors rather than
// stopping at the first.
func Assemble(src string) (*Result, []*Error) {
	rawLines := strings.Split(src, "\n")

	var errs []*Error
	symtab := newSymbolTable()
	infos := make([]lineInfo, 0, len(rawLines))

	addr := uint16(0)
	origin := uint16(0)
	originSet := false

	// Pass 1: walk the source, assign an address to every line, and
	// populate the symbol table with labels and constants.
	for i, raw := range rawLines {
		lineNo := i + 1
		sl, err := parseLine(raw, lineNo)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if sl.label != "" {
			if e := symtab.define(sl.label, addr, SymbolLabel, lineNo, 1); e != nil {
				errs = append(errs, e)
			}
		}

		size := 0
		switch {
		case sl.constName != "":
			v, ok, undefined := resolveConstExpr(sl.constExpr, symtab)
			switch {
			case undefined:
				errs = append(errs, newErr(UndefinedConstant, lineNo, 1, len(sl.constExpr), "undefined constant %q", sl.constExpr))
			case !ok:
				errs = append(errs, newErr(InvalidConstantValue, lineNo, 1, len(sl.constExpr), "cannot resolve constant expression %q", sl.constExpr))
			default:
				if e := symtab.define(sl.constName, v, SymbolConstant, lineNo, 1); e != nil {
					errs = append(errs, e)
				}
			}

		case sl.directive != "":
			n, dErr := directiveSize(sl, lineNo)
			if dErr != nil {
				errs = append(errs, dErr)
			}
			if sl.directive == ".ORG" {
				v, ok, _ := resolveConstExpr(sl.directiveArg, symtab)
				if !ok {
					errs = append(errs, newErr(InvalidDirective, lineNo, 1, len(sl.directiveArg), "cannot resolve .org address %q", sl.directiveArg))
				} else {
					addr = v
					if !originSet {
						origin = v
						originSet = true
					}
				}
			}
			size = n

		case sl.isInsn:
			branch := branchMnemonics[sl.mnemonic]
			mode, _, ok := classifyOperand(sl.mnemonic, sl.operand, branch)
			if !ok {
				errs = append(errs, newErr(InvalidOperand, lineNo, 1, len(sl.operand), "cannot parse operand %q", sl.operand))
			} else {
				sl.mode = mode
				size = int(opcode.SizeForMode(mode))
			}
		}

		info := lineInfo{sl: sl, address: addr, size: size}
		infos = append(infos, info)
		if sl.directive != ".ORG" {
			addr += uint16(size)
		}
	}

	out := make([]byte, 0, len(infos))
	var sourceMap []SourceMapEntry

	for _, info := range infos {
		sl := info.sl
		switch {
		case sl.isInsn:
			branch := branchMnemonics[sl.mnemonic]
			mode, operandTok, ok := classifyOperand(sl.mnemonic, sl.operand, branch)
			if !ok {
				continue // already reported in pass 1
			}
			opByte, found := opcode.ByMnemonicMode(sl.mnemonic, mode)
			if !found {
				errs = append(errs, newErr(InvalidMnemonic, sl.number, 1, len(sl.mnemonic), "no addressing-mode form %s %s", sl.mnemonic, mode))
				continue
			}
			bytes := []byte{opByte}
			switch mode {
			case opcode.Implicit, opcode.Accumulator:
				// no operand bytes
			case opcode.Relative:
				target, e := resolveOperandValue(operandTok, symtab, sl.number)
				if e != nil {
					errs = append(errs, e)
					continue
				}
				offset := int32(target) - int32(info.address+2)
				if offset < -128 || offset > 127 {
					errs = append(errs, newErr(RangeError, sl.number, 1, len(sl.operand), "branch target %q is out of range (%d bytes)", operandTok, offset))
					continue
				}
				bytes = append(bytes, byte(int8(offset)))
			case opcode.Immediate, opcode.ZeroPage, opcode.ZeroPageX, opcode.ZeroPageY, opcode.IndirectX, opcode.IndirectY:
				v, e := resolveOperandValue(operandTok, symtab, sl.number)
				if e != nil {
					errs = append(errs, e)
					continue
				}
				if v > 0xFF {
					errs = append(errs, newErr(RangeError, sl.number, 1, len(sl.operand), "value %q does not fit in one byte", operandTok))
					continue
				}
				bytes = append(bytes, byte(v))
			case opcode.Absolute, opcode.AbsoluteX, opcode.AbsoluteY, opcode.Indirect:
				v, e := resolveOperandValue(operandTok, symtab, sl.number)
				if e != nil {
					errs = append(errs, e)
					continue
				}
				bytes = append(bytes, byte(v), byte(v>>8))
			}
			out = append(out, bytes...)
			sourceMap = append(sourceMap, SourceMapEntry{Address: info.address, Line: sl.number, Length: len(bytes)})

		case sl.directive == ".BYTE":
			vals := splitArgs(sl.directiveArg)
			emitted := 0
			for _, tok := range vals {
				v, e := resolveOperandValue(tok, symtab, sl.number)
				if e != nil {
					errs = append(errs, e)
					continue
				}
				if v > 0xFF {
					errs = append(errs, newErr(RangeError, sl.number, 1, len(tok), "value %q does not fit in .byte", tok))
					continue
				}
				out = append(out, byte(v))
				emitted++
			}
			if emitted > 0 {
				sourceMap = append(sourceMap, SourceMapEntry{Address: info.address, Line: sl.number, Length: emitted})
			}

		case sl.directive == ".WORD":
			vals := splitArgs(sl.directiveArg)
			emitted := 0
			for _, tok := range vals {
				v, e := resolveOperandValue(tok, symtab, sl.number)
				if e != nil {
					errs = append(errs, e)
					continue
				}
				out = append(out, byte(v), byte(v>>8))
				emitted += 2
			}
			if emitted > 0 {
				sourceMap = append(sourceMap, SourceMapEntry{Address: info.address, Line: sl.number, Length: emitted})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Result{Bytes: out, Origin: origin, Symbols: symtab.Symbols(), SourceMap: sourceMap}, nil
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// directiveSize returns how many bytes a directive will advance the
// location counter by, without emitting anything (pass 1 only sizes).
func directiveSize(sl *sourceLine, lineNo int) (int, *Error) {
	switch sl.directive {
	case ".ORG":
		if sl.directiveArg == "" {
			return 0, newErr(InvalidDirective, lineNo, 1, 4, ".org requires an address")
		}
		return 0, nil
	case ".BYTE":
		vals := splitArgs(sl.directiveArg)
		if len(vals) == 0 {
			return 0, newErr(InvalidDirective, lineNo, 1, 5, ".byte requires at least one value")
		}
		return len(vals), nil
	case ".WORD":
		vals := splitArgs(sl.directiveArg)
		if len(vals) == 0 {
			return 0, newErr(InvalidDirective, lineNo, 1, 5, ".word requires at least one value")
		}
		return len(vals) * 2, nil
	default:
		return 0, newErr(InvalidDirective, lineNo, 1, len(sl.directive), "unknown directive %q", sl.directive)
	}
}

// looksNumeric reports whether tok is lexically a numeric literal
// ($hex, %binary, or decimal digits) rather than an identifier, so a
// failed parseNumber on it means malformed syntax, not an undefined
// symbol.
func looksNumeric(tok string) bool {
	return strings.HasPrefix(tok, "$") || strings.HasPrefix(tok, "%") || isAllDigits(tok)
}

// resolveConstExpr resolves a constant assignment's right-hand side:
// either a literal or a previously-defined constant (forward references
// between constants are not supported, matching a single left-to-right
// pass). ok is false when expr is a malformed/out-of-range literal;
// undefined is true when expr is an identifier with no matching symbol.
func resolveConstExpr(expr string, symtab *SymbolTable) (value uint16, ok bool, undefined bool) {
	if v, valid := parseNumber(expr); valid {
		return v, true, false
	}
	if looksNumeric(expr) {
		return 0, false, false
	}
	if sym, found := symtab.lookup(expr); found {
		return sym.Value, true, false
	}
	return 0, false, true
}

// resolveOperandValue resolves an operand token against literals first,
// then the symbol table. An unknown identifier is always reported as
// UndefinedLabel; this function never produces UndefinedConstant.
func resolveOperandValue(tok string, symtab *SymbolTable, lineNo int) (uint16, *Error) {
	if v, ok := parseNumber(tok); ok {
		return v, nil
	}
	if sym, ok := symtab.lookup(tok); ok {
		return sym.Value, nil
	}
	if isValidIdentifier(tok) {
		return 0, newErr(UndefinedLabel, lineNo, 1, len(tok), "undefined symbol %q", tok)
	}
	return 0, newErr(InvalidOperand, lineNo, 1, len(tok), "cannot parse operand %q", tok)
}
