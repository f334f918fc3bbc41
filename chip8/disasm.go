package chip8

// Disassembler. Dumps the loaded ROM to stdout, one instruction per line:
// ADDR: WORD   mnemonic operands

import (
	"fmt"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// lookupOpcode matches an instruction word against the CHIP-8 pattern
// table, dispatching on the high nibble first.
func lookupOpcode(w uint16) (chip8cpu.Opcode, bool) {
	for _, op := range chip8cpu.Opcodes[int(w>>12)] {
		if w&op.Info.Mask == op.Info.Value {
			return op, true
		}
	}
	return chip8cpu.Opcode{}, false
}

// formatOp renders one instruction word as "mnemonic operands". Words that
// match no pattern render as data.
func formatOp(w uint16) string {
	op, ok := lookupOpcode(w)
	if !ok || op.Instruction == nil {
		return fmt.Sprintf("dat $%04x", w)
	}

	name := op.Instruction.Name
	if params := formatOperands(name, w); params != "" {
		return fmt.Sprintf("%s %s", name, params)
	}
	return name
}

// formatOperands renders the operand fields for the given mnemonic. The
// operand shape depends on the high nibble for the mnemonics that cover
// several encodings (ld, add, jp, se, sne).
func formatOperands(name string, w uint16) string {
	x := (w >> 8) & 0xf
	y := (w >> 4) & 0xf

	switch name {
	case chip8cpu.JpName:
		if w&0xf000 == 0xb000 {
			return fmt.Sprintf("V0, $%03x", w&0x0fff)
		}
		return fmt.Sprintf("$%03x", w&0x0fff)

	case chip8cpu.CallName:
		return fmt.Sprintf("$%03x", w&0x0fff)

	case chip8cpu.SeName, chip8cpu.SneName:
		if w&0xf000 == 0x5000 || w&0xf000 == 0x9000 {
			return fmt.Sprintf("V%X, V%X", x, y)
		}
		return fmt.Sprintf("V%X, $%02x", x, w&0xff)

	case chip8cpu.LdName:
		switch w & 0xf000 {
		case 0x6000:
			return fmt.Sprintf("V%X, $%02x", x, w&0xff)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		case 0xa000:
			return fmt.Sprintf("I, $%03x", w&0x0fff)
		case 0xf000:
			switch w & 0xff {
			case 0x07:
				return fmt.Sprintf("V%X, DT", x)
			case 0x0a:
				return fmt.Sprintf("V%X, K", x)
			case 0x15:
				return fmt.Sprintf("DT, V%X", x)
			case 0x18:
				return fmt.Sprintf("ST, V%X", x)
			case 0x29:
				return fmt.Sprintf("F, V%X", x)
			case 0x33:
				return fmt.Sprintf("B, V%X", x)
			case 0x55:
				return fmt.Sprintf("[I], V%X", x)
			case 0x65:
				return fmt.Sprintf("V%X, [I]", x)
			}
		}

	case chip8cpu.AddName:
		switch w & 0xf000 {
		case 0x7000:
			return fmt.Sprintf("V%X, $%02x", x, w&0xff)
		case 0x8000:
			return fmt.Sprintf("V%X, V%X", x, y)
		case 0xf000:
			return fmt.Sprintf("I, V%X", x)
		}

	case chip8cpu.OrName, chip8cpu.AndName, chip8cpu.XorName,
		chip8cpu.SubName, chip8cpu.SubnName:
		return fmt.Sprintf("V%X, V%X", x, y)

	case chip8cpu.ShrName, chip8cpu.ShlName:
		return fmt.Sprintf("V%X", x)

	case chip8cpu.RndName:
		return fmt.Sprintf("V%X, $%02x", x, w&0xff)

	case chip8cpu.DrwName:
		return fmt.Sprintf("V%X, V%X, $%x", x, y, w&0xf)

	case chip8cpu.SkpName, chip8cpu.SknpName:
		return fmt.Sprintf("V%X", x)
	}

	return ""
}

// Disassemble dumps the loaded program region to stdout.
func (c *chip8) Disassemble() {
	for pc := c.cfg.LoadAddress; pc < c.romEnd; {
		pc += c.DisassembleOp(pc)
	}
}

// DisassembleOp emits a single instruction and returns its width in bytes.
func (c *chip8) DisassembleOp(at uint16) uint16 {
	w := uint16(c.mem[c.mask(at)])<<8 | uint16(c.mem[c.mask(at+1)])
	fmt.Printf("%03x: %04x   %s\n", at, w, formatOp(w))
	return instructionWidth
}
