package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bshepherdson/tc-chip8/chip8"
	"github.com/bshepherdson/tc-chip8/common"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

// framesPerSecond is the timer/render cadence; the CHIP-8 timers are
// specified at 60Hz no matter how fast the CPU runs.
const framesPerSecond = 60

var Turbo bool = false
var displayScale int = 10
var logger *log.Logger

func dumpDeviceList() {
	for name, desc := range deviceDescriptions {
		fmt.Printf("%-20s %s\n", name, desc)
	}
}

func newLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func main() {
	deviceList := flag.String("hw", "display,keyboard,beeper",
		"List of hardware devices. See -dump-hw for a list of devices.")
	dumpDevices := flag.Bool("dump-hw", false,
		"Dump a list of hardware devices and exit.")
	disassemble := flag.Bool("disassemble", false, "Disassemble the ROM to stdout")
	turboFlag := flag.Bool("turbo", false,
		"True to start in turbo (unlimited speed) mode. Default: false.")
	script := flag.String("script", "", "Script file to run.")
	hz := flag.Int("hz", 700, "CPU speed in cycles per second.")
	scale := flag.Int("scale", 10, "Host pixels per CHIP-8 pixel.")
	shiftVY := flag.Bool("shift-vy", false,
		"8xy6/8xyE shift Vy into Vx (COSMAC VIP behaviour).")
	jumpVX := flag.Bool("jump-vx", false,
		"Bnnn jumps to nnn + Vx instead of nnn + V0 (CHIP-48 behaviour).")
	iAdvance := flag.Bool("i-advance", false,
		"Fx55/Fx65 leave I pointing past the copied block (COSMAC VIP behaviour).")
	clip := flag.Bool("clip", false,
		"Clip sprites at the display edges instead of wrapping.")
	seed := flag.Int64("seed", 0, "Random generator seed; 0 seeds from the clock.")
	debugLog := flag.Bool("debug", false, "Enable debug logging.")
	quiet := flag.Bool("quiet", false, "Log errors only.")

	flag.Parse()
	logger = newLogger(*debugLog, *quiet)

	if *dumpDevices {
		dumpDeviceList()
		return
	}

	romFile := flag.Arg(0)
	if romFile == "" {
		fmt.Printf("Usage: %s [options] <ROM file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := chip8.DefaultConfig()
	cfg.WrapSprites = !*clip
	cfg.Seed = *seed
	cfg.Quirks = chip8.Quirks{
		ShiftUsesVY:        *shiftVY,
		JumpUsesVX:         *jumpVX,
		LoadStoreAdvancesI: *iAdvance,
	}
	cpu := chip8.New(cfg)

	rom, err := os.ReadFile(romFile)
	if err != nil {
		logger.Fatal("failed to open ROM file", log.Err(err))
	}
	if err := cpu.Load(rom); err != nil {
		logger.Fatal("failed to load ROM", log.Err(err))
	}
	logger.Info("ROM loaded", log.String("file", romFile))

	if *disassemble {
		cpu.Disassemble()
		return
	}

	inputReader = bufio.NewReader(os.Stdin)

	displayScale = *scale
	deviceNames := strings.Split(*deviceList, ",")
	for _, d := range deviceNames {
		if d == "" {
			continue
		}
		if dt, ok := deviceTypes[d]; ok {
			logger.Debug("loading device", log.String("name", d))
			cpu.AddDevice(dt(cpu))
		} else {
			fmt.Printf("Unknown device: %s\n", d)
			dumpDeviceList()
			return
		}
	}

	Turbo = *turboFlag

	if *script != "" {
		RunScript(cpu, *script)
	}

	run(app.Context(), cpu, *hz)
}

var inputReader *bufio.Reader

func debugConsole(c common.CPU) {
	// Print the prompt and handle the input.
	c.DebugPrompt()
	in, err := inputReader.ReadString('\n')
	if err != nil {
		fmt.Printf("error while reading input: %v\n", err)
		return
	}

	// Try to parse in. First split on spaces.
	args := strings.Split(strings.TrimSpace(in), " ")
	if cmd, ok := common.DebugCommands[args[0]]; ok {
		cmd.Run(c, args)
	} else {
		fmt.Printf("Unknown command '%s'\n", args[0])
		fmt.Printf("Commands:\n")
		for key, dbg := range common.DebugCommands {
			fmt.Printf("%s\t%s\n", key, dbg.Describe())
		}
	}
}

func fKey(c common.CPU, key int) {
	switch key {
	case 1: // F1 - help
		fmt.Println("=== Emulator commands ===")
		fmt.Println("F1\tShow this help")
		fmt.Println("F2\tStart debugging")
		fmt.Println("F3\tResume running")
		fmt.Println("F4\tTurbo speed toggle")

	case 2: // F2 - start debugging
		*c.Debugging() = true

	case 3: // F3 - stop debugging
		*c.Debugging() = false

	case 4: // F4 - toggle turbo
		Turbo = !Turbo
		if Turbo {
			fmt.Println("Turbo enabled: speed unlimited")
		} else {
			fmt.Println("Turbo disabled: running at normal speed")
		}
	}
}

// shutdown tears the devices down and exits; called on window close,
// Escape, or a cancelled context.
func shutdown(c common.CPU) {
	for _, d := range c.Devices() {
		d.Cleanup()
	}
	c.Exit()
}

// run drives the machine: each 60Hz frame executes a batch of CPU cycles,
// ticks the timers once, then ticks the devices (render, input, sound). The
// core itself never sees the clock.
func run(ctx context.Context, c common.CPU, hz int) {
	frame := time.NewTicker(time.Second / framesPerSecond)
	defer frame.Stop()

	cyclesPerFrame := hz / framesPerSecond
	if cyclesPerFrame < 1 {
		cyclesPerFrame = 1
	}

	// Repeatedly run frames, stopping on a debug to show the console.
	for {
		for !*c.Debugging() {
			if Turbo {
				if ctx.Err() != nil {
					shutdown(c)
					return
				}
			} else {
				select {
				case <-ctx.Done():
					shutdown(c)
					return
				case <-frame.C:
				}
			}

			for i := 0; i < cyclesPerFrame; i++ {
				if err := c.Step(); err != nil {
					logger.Error("cpu fault, entering debugger", log.Err(err))
					*c.Debugging() = true
					break
				}
				// A parked wait-for-key burns no more cycles this
				// frame; the keyboard device runs below.
				if c.Waiting() {
					break
				}
			}

			c.TickTimers()
			for _, d := range c.Devices() {
				d.Tick(c)
			}
		}

		debugConsole(c)
	}
}
