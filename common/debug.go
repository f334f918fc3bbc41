package common

import (
	"fmt"
	"os"
)

// DebugCommand captures a self-describing debug command.
type DebugCommand interface {
	Describe() string
	Run(c CPU, args []string)
}

type debugBlob struct {
	desc string
	f    func(CPU, []string)
}

// DebugCommands is a map of command strings to command objects.
var DebugCommands = map[string]DebugCommand{
	"r": newCommand("Dump one or all (r)egisters ('r' vs. 'r <reg>')", cmdRegs),
	"q": newCommand("(Q)uit the emulator", func(CPU, []string) { os.Exit(0) }),

	"c": newCommand("(C)ontinue execution", func(c CPU, s []string) {
		*c.Debugging() = false
	}),

	"s": newCommand("(S)tep forward, run next instruction", func(c CPU, args []string) {
		if err := c.Step(); err != nil {
			fmt.Printf("fault: %v\n", err)
		}
	}),

	"t": newCommand("(T)ick the delay and sound timers once", func(c CPU, args []string) {
		c.TickTimers()
	}),

	"b": newCommand("Set a new (b)reakpoint at the given (hex) location",
		singleHexArg("No breakpoint location specified (needs hex number)",
			"Error parsing the location", func(c CPU, loc uint16) {
				c.AddBreakpoint(loc)
				fmt.Printf("Breakpoint set at PC = %03x\n", loc)
			})),

	"m": newCommand("Print a value from (m)emory",
		singleHexArg("No memory location specified", "Error parsing location",
			func(c CPU, loc uint16) {
				mem := c.Memory()
				x := mem[int(loc)%len(mem)]
				fmt.Printf("[%03x] = %02x (%d)\n", loc, x, x)
			})),

	"i": newCommand("Disassemble 16 bytes of (i)nstructions at the given location",
		singleHexArg("No PC value given", "Error parsing location",
			func(c CPU, loc uint16) {
				for i := loc; i < loc+16; {
					i += c.DisassembleOp(i)
				}
			})),

	"d": newCommand("Dump the (d)isplay buffer as text", cmdDisplay),

	"k": newCommand("Toggle a (k)eypad key (hex 0-f)",
		singleHexArg("No key specified (needs hex 0-f)", "Error parsing key",
			func(c CPU, key uint16) {
				if key > 0xf {
					fmt.Printf("%% No such key: %x\n", key)
					return
				}
				down := !c.Key(uint8(key))
				c.SetKey(uint8(key), down)
				if down {
					fmt.Printf("Key %x pressed\n", key)
				} else {
					fmt.Printf("Key %x released\n", key)
				}
			})),

	"db": newCommand("(D)ump memory to the given file in (b)inary",
		func(c CPU, args []string) {
			if len(args) < 2 {
				fmt.Println("No filename given")
				return
			}

			if err := os.WriteFile(args[1], c.Memory(), 0644); err != nil {
				fmt.Printf("Could not write file: %v\n", err)
			}
		}),
}

func newCommand(desc string, f func(c CPU, args []string)) DebugCommand {
	d := new(debugBlob)
	d.desc = desc
	d.f = f
	return d
}

func (dbg *debugBlob) Describe() string {
	return dbg.desc
}

func (dbg *debugBlob) Run(c CPU, args []string) {
	dbg.f(c, args)
}

// Indexed by register width in bits.
var regLines = map[int]string{
	8:  "%2s    %02x (%d)\n",
	16: "%2s  %04x (%d)\n",
}

func showReg(c CPU, name string, val uint16) {
	fmt.Printf(regLines[c.RegisterWidth(name)], name, val, val)
}

func cmdRegs(c CPU, args []string) {
	if len(args) > 1 {
		for _, r := range args[1:] {
			value, name, ok := c.RegByName(r)
			if ok {
				showReg(c, name, value)
			} else {
				fmt.Printf("%% Unknown register: %s\n", r)
			}
		}
	} else {
		for _, r := range c.Registers() {
			value, name, _ := c.RegByName(r)
			showReg(c, name, value)
		}
	}
}

func cmdDisplay(c CPU, args []string) {
	w, h := c.DisplaySize()
	pixels := c.Pixels()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if pixels[y*w+x] {
				fmt.Print("#")
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}

func singleHexArg(notSpecifiedMsg, parseErrorMsg string,
	cmd func(c CPU, arg uint16)) func(CPU, []string) {
	return func(c CPU, args []string) {
		if len(args) <= 1 {
			fmt.Println(notSpecifiedMsg)
			return
		}

		var x uint16
		_, err := fmt.Sscanf(args[1], "%x", &x)
		if err != nil {
			fmt.Printf(parseErrorMsg+": %v\n", err)
			return
		}

		cmd(c, x)
	}
}
