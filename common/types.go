package common

// CPU is the generic interface to the emulator core, used by the hardware
// devices and the debugger to abstract over the machine.
type CPU interface {
	Memory() []byte
	ReadReg(r uint8) uint8
	WriteReg(r, val uint8)

	// Load resets the machine and copies a ROM image in at the default
	// load address; LoadAt targets a specific address. Both are
	// all-or-nothing: a ROM that does not fit reports an error before
	// any memory is touched.
	Load(rom []byte) error
	LoadAt(rom []byte, addr uint16) error

	// Pixels is a row-major view of the monochrome framebuffer.
	Pixels() []bool
	DisplaySize() (int, int)

	// SetKey records a keypad transition for key 0x0-0xF; Key reads the
	// current state back.
	SetKey(key uint8, down bool)
	Key(key uint8) bool

	// SoundActive reports whether the sound timer is running; the host
	// decides what a tone sounds like.
	SoundActive() bool

	// Step executes one fetch-decode-execute cycle. Timers are not
	// touched; TickTimers must be driven at 60Hz regardless of the
	// cycle rate.
	Step() error
	TickTimers()

	// Waiting reports that the core is parked on a wait-for-key
	// instruction. Step stays cheap while waiting, but the host can use
	// this to cut a cycle batch short.
	Waiting() bool

	AddDevice(Device)
	Devices() []Device

	Debugging() *bool
	AddBreakpoint(at uint16)
	Disassemble()
	DisassembleOp(at uint16) uint16
	DebugPrompt()
	Registers() []string
	RegByName(name string) (uint16, string, bool)
	RegisterWidth(name string) int
	Exit()
}

// Device is the interface to all hardware. Tick is called once per host
// frame (60Hz), after the frame's cycle batch and timer tick.
type Device interface {
	Tick(CPU)
	Cleanup()
}
