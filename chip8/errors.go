package chip8

import "fmt"

// OutOfBoundsError reports a program image that does not fit in memory. The
// load is rejected before any byte is written.
type OutOfBoundsError struct {
	Addr uint16
	Size int
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("chip8: %d byte image at %03x exceeds memory", e.Size, e.Addr)
}

// UnknownOpcodeError reports a fetched word that matches no instruction
// pattern. Execution of the cycle stops; the host decides whether to halt.
type UnknownOpcodeError struct {
	Opcode uint16
	PC     uint16
}

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("chip8: unknown opcode %04x at %03x", e.Opcode, e.PC)
}

// StackOverflowError reports a CALL past the configured stack depth.
type StackOverflowError struct {
	PC    uint16
	Depth int
}

func (e StackOverflowError) Error() string {
	return fmt.Sprintf("chip8: call at %03x overflows the %d-level stack", e.PC, e.Depth)
}

// StackUnderflowError reports a RET with no call frame to return to.
type StackUnderflowError struct {
	PC uint16
}

func (e StackUnderflowError) Error() string {
	return fmt.Sprintf("chip8: return at %03x with an empty stack", e.PC)
}
