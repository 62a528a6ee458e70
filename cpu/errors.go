package cpu

import "fmt"

// UnimplementedOpcode is the CPU's only error: the fetched opcode byte
// has no handler in the metadata table. The CPU still advances PC and
// the cycle counter by the table's size/base-cycle entries for that
// byte, so a host can recover and report the offending PC.
type UnimplementedOpcode struct {
	Opcode byte
	PC     uint16
}

func (e *UnimplementedOpcode) Error() string {
	return fmt.Sprintf("unimplemented opcode 0x%02X at $%04X", e.Opcode, e.PC)
}
