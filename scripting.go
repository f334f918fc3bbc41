package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bshepherdson/tc-chip8/common"
)

type command func(c common.CPU, args []string)

var cmds = map[string]command{
	"press":   cmdPress,
	"release": cmdRelease,
	"run":     cmdRun,
	"tick":    cmdTick,
	"dump":    cmdDump,
	"quit":    cmdQuit,
}

func parseKey(arg string) uint8 {
	var k uint16
	if _, err := fmt.Sscanf(arg, "%x", &k); err != nil || k > 0xf {
		panic(fmt.Errorf("bad key %q: want hex 0-f", arg))
	}
	return uint8(k)
}

func cmdPress(c common.CPU, args []string) {
	if len(args) < 1 {
		panic("'press' requires a hex key as an argument")
	}
	c.SetKey(parseKey(args[0]), true)
}

func cmdRelease(c common.CPU, args []string) {
	if len(args) < 1 {
		panic("'release' requires a hex key as an argument")
	}
	c.SetKey(parseKey(args[0]), false)
}

func cmdRun(c common.CPU, args []string) {
	if len(args) < 1 {
		panic("'run' requires an argument giving the cycle count")
	}

	cycles, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		panic("'run' requires a positive integer argument")
	}

	for i := uint64(0); i < cycles; i++ {
		if err := c.Step(); err != nil {
			panic(err)
		}
	}
}

func cmdTick(c common.CPU, args []string) {
	frames := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			panic("'tick' takes an optional positive frame count")
		}
		frames = n
	}

	for i := 0; i < frames; i++ {
		c.TickTimers()
		for _, d := range c.Devices() {
			d.Tick(c)
		}
	}
}

func cmdDump(c common.CPU, args []string) {
	w, h := c.DisplaySize()
	pixels := c.Pixels()
	for y := 0; y < h; y++ {
		row := make([]byte, w)
		for x := 0; x < w; x++ {
			row[x] = '.'
			if pixels[y*w+x] {
				row[x] = '#'
			}
		}
		fmt.Println(string(row))
	}
}

func cmdQuit(c common.CPU, args []string) {
	os.Exit(0)
}

// RunScript drives the machine headlessly from a newline-separated command
// file, mostly for exercising ROMs without a window.
func RunScript(c common.CPU, file string) {
	contents, err := os.ReadFile(file)
	if err != nil {
		panic(err)
	}

	lines := strings.Split(string(contents), "\n")
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}

		args := strings.Split(line, " ")
		if cmd, ok := cmds[args[0]]; ok {
			cmd(c, args[1:])
		} else {
			panic(fmt.Errorf("unknown command '%s'", args[0]))
		}
	}
}
