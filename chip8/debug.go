package chip8

import (
	"fmt"
	"strings"
)

var registers = []string{
	"V0", "V1", "V2", "V3", "V4", "V5", "V6", "V7",
	"V8", "V9", "VA", "VB", "VC", "VD", "VE", "VF",
	"I", "DT", "ST", "SP", "PC",
}

func (c *chip8) Registers() []string {
	return registers
}

func (c *chip8) RegByName(name string) (uint16, string, bool) {
	upper := strings.ToUpper(name)
	if len(upper) == 2 && upper[0] == 'V' {
		var r uint8
		if _, err := fmt.Sscanf(upper[1:], "%x", &r); err == nil && r < 16 {
			return uint16(c.v[r]), upper, true
		}
	}

	switch upper {
	case "I":
		return c.i, "I", true
	case "DT":
		return uint16(c.dt), "DT", true
	case "ST":
		return uint16(c.st), "ST", true
	case "SP":
		return uint16(c.sp), "SP", true
	case "PC":
		return c.pc, "PC", true
	}
	return 0, "", false
}

func (c *chip8) RegisterWidth(name string) int {
	switch strings.ToUpper(name) {
	case "I", "PC":
		return 16
	}
	return 8
}

func (c *chip8) DebugPrompt() {
	fmt.Printf("%03x debug> ", c.pc)
}
