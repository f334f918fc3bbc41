// Package chip8 implements the CHIP-8 virtual machine: 4KB of memory, 16
// 8-bit registers, a 64x32 1-bit framebuffer, a 16-key pad and two 60Hz
// countdown timers. The host drives it by calling Step at the CPU rate and
// TickTimers at 60Hz; the core never sleeps, renders or polls on its own.
package chip8

import (
	"math/rand"
	"os"
	"time"

	"github.com/bshepherdson/tc-chip8/common"
)

// instructionWidth is the size of every CHIP-8 instruction in bytes.
const instructionWidth = 2

// Quirks selects between the behaviors that historical interpreters
// disagree on. The zero value matches the COSMAC VIP descendants this
// emulator targets by default: shifts operate on Vx in place, Bnnn adds V0,
// and Fx55/Fx65 leave I unchanged.
type Quirks struct {
	// ShiftUsesVY makes 8xy6/8xyE shift Vy into Vx instead of shifting
	// Vx in place.
	ShiftUsesVY bool
	// JumpUsesVX makes Bnnn add Vx (x from the high operand nibble)
	// instead of V0, as CHIP-48 and SCHIP did.
	JumpUsesVX bool
	// LoadStoreAdvancesI makes Fx55/Fx65 leave I pointing past the
	// transferred block (I += x + 1).
	LoadStoreAdvancesI bool
}

// Config collects the machine constants so variants can be tested without
// recompiling. Use DefaultConfig as the baseline.
type Config struct {
	MemorySize    int
	DisplayWidth  int
	DisplayHeight int
	StackDepth    int
	LoadAddress   uint16
	FontAddress   uint16

	// WrapSprites wraps drawn pixels around the display edges; when
	// false sprites clip at the right and bottom edges instead.
	WrapSprites bool

	Quirks Quirks

	// Seed for the Cxkk random generator; 0 leaves it time-seeded.
	Seed int64
}

// DefaultConfig returns the standard CHIP-8 machine.
func DefaultConfig() Config {
	return Config{
		MemorySize:    4096,
		DisplayWidth:  64,
		DisplayHeight: 32,
		StackDepth:    16,
		LoadAddress:   0x200,
		FontAddress:   0x050,
		WrapSprites:   true,
	}
}

type chip8 struct {
	cfg Config

	pc     uint16
	i      uint16
	sp     uint8
	dt, st uint8
	v      [16]uint8

	stack  []uint16
	mem    []byte
	pixels []bool
	keys   [16]bool

	// waiting is raised while a wait-for-key instruction has not seen a
	// pressed key; the PC stays parked on the instruction.
	waiting bool

	// romEnd marks the end of the loaded image, for the disassembler.
	romEnd uint16

	rng         *rand.Rand
	devices     []common.Device
	breakpoints []uint16
	debug       bool
}

// New returns a freshly reset CHIP-8 machine.
func New(cfg Config) common.CPU {
	c := &chip8{cfg: cfg}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c.rng = rand.New(rand.NewSource(seed))
	c.stack = make([]uint16, cfg.StackDepth)
	c.mem = make([]byte, cfg.MemorySize)
	c.pixels = make([]bool, cfg.DisplayWidth*cfg.DisplayHeight)
	c.Reset()
	return c
}

// Reset returns all state to the power-on defaults: memory zeroed except
// for the font, PC at the load address, timers and stack empty.
func (c *chip8) Reset() {
	for i := range c.mem {
		c.mem[i] = 0
	}
	copy(c.mem[c.cfg.FontAddress:], fontSet[:])

	for i := range c.stack {
		c.stack[i] = 0
	}
	for i := range c.pixels {
		c.pixels[i] = false
	}
	for i := range c.keys {
		c.keys[i] = false
	}

	c.v = [16]uint8{}
	c.pc = c.cfg.LoadAddress
	c.i = 0
	c.sp = 0
	c.dt = 0
	c.st = 0
	c.waiting = false
	c.romEnd = c.cfg.LoadAddress
}

// Load resets the machine and copies the ROM image in at the default load
// address.
func (c *chip8) Load(rom []byte) error {
	return c.LoadAt(rom, c.cfg.LoadAddress)
}

// LoadAt copies the ROM image in at the given address. The load is
// all-or-nothing: on OutOfBoundsError no memory byte has been altered.
func (c *chip8) LoadAt(rom []byte, addr uint16) error {
	if int(addr)+len(rom) > len(c.mem) {
		return OutOfBoundsError{Addr: addr, Size: len(rom)}
	}

	c.Reset()
	copy(c.mem[addr:], rom)
	c.pc = addr
	c.romEnd = addr + uint16(len(rom))
	return nil
}

// Implement the common.CPU interface.
func (c *chip8) Memory() []byte {
	return c.mem
}
func (c *chip8) ReadReg(r uint8) uint8 {
	return c.v[r&0xf]
}
func (c *chip8) WriteReg(r, val uint8) {
	c.v[r&0xf] = val
}
func (c *chip8) Pixels() []bool {
	return c.pixels
}
func (c *chip8) DisplaySize() (int, int) {
	return c.cfg.DisplayWidth, c.cfg.DisplayHeight
}
func (c *chip8) SetKey(key uint8, down bool) {
	c.keys[key&0xf] = down
}
func (c *chip8) Key(key uint8) bool {
	return c.keys[key&0xf]
}
func (c *chip8) SoundActive() bool {
	return c.st > 0
}
func (c *chip8) Waiting() bool {
	return c.waiting
}
func (c *chip8) AddDevice(dev common.Device) {
	c.devices = append(c.devices, dev)
}
func (c *chip8) Devices() []common.Device {
	return c.devices
}
func (c *chip8) Debugging() *bool {
	return &c.debug
}
func (c *chip8) AddBreakpoint(at uint16) {
	c.breakpoints = append(c.breakpoints, at)
}
func (c *chip8) Exit() {
	os.Exit(0)
}

// TickTimers decrements the delay and sound timers, floored at 0. Driven by
// the host at 60Hz, entirely decoupled from Step.
func (c *chip8) TickTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

// Step runs one instruction: fetch the big-endian word at PC, advance PC by
// 2, then execute. Instructions that transfer control set PC themselves.
func (c *chip8) Step() error {
	hi := c.mem[int(c.pc)%len(c.mem)]
	lo := c.mem[int(c.pc+1)%len(c.mem)]
	op := uint16(hi)<<8 | uint16(lo)

	at := c.pc
	c.pc += 2
	if err := c.execute(op, at); err != nil {
		return err
	}

	for _, bp := range c.breakpoints {
		if c.pc == bp {
			c.debug = true
		}
	}
	return nil
}

// mask reduces an I-relative address into the memory range; the index
// register is a 12-bit pointer and wraps rather than faulting.
func (c *chip8) mask(addr uint16) int {
	return int(addr) % len(c.mem)
}

func (c *chip8) execute(op, at uint16) error {
	x := uint8(op>>8) & 0xf
	y := uint8(op>>4) & 0xf
	n := uint8(op) & 0xf
	kk := uint8(op)
	nnn := op & 0x0fff

	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x0000: // Treated as a NOP, some ROMs pad with zero words.
		case 0x00e0: // CLS
			for i := range c.pixels {
				c.pixels[i] = false
			}
		case 0x00ee: // RET
			if c.sp == 0 {
				return StackUnderflowError{PC: at}
			}
			c.sp--
			c.pc = c.stack[c.sp]
		default: // 0nnn machine-code calls are not supported.
			return UnknownOpcodeError{Opcode: op, PC: at}
		}

	case 0x1: // JP nnn
		c.pc = nnn

	case 0x2: // CALL nnn
		if int(c.sp) >= len(c.stack) {
			return StackOverflowError{PC: at, Depth: len(c.stack)}
		}
		c.stack[c.sp] = c.pc
		c.sp++
		c.pc = nnn

	case 0x3: // SE Vx, kk
		if c.v[x] == kk {
			c.pc += 2
		}

	case 0x4: // SNE Vx, kk
		if c.v[x] != kk {
			c.pc += 2
		}

	case 0x5: // SE Vx, Vy
		if n != 0 {
			return UnknownOpcodeError{Opcode: op, PC: at}
		}
		if c.v[x] == c.v[y] {
			c.pc += 2
		}

	case 0x6: // LD Vx, kk
		c.v[x] = kk

	case 0x7: // ADD Vx, kk - no carry flag on the immediate form.
		c.v[x] += kk

	case 0x8:
		return c.executeALU(op, at, x, y)

	case 0x9: // SNE Vx, Vy
		if n != 0 {
			return UnknownOpcodeError{Opcode: op, PC: at}
		}
		if c.v[x] != c.v[y] {
			c.pc += 2
		}

	case 0xa: // LD I, nnn
		c.i = nnn

	case 0xb: // JP V0, nnn
		if c.cfg.Quirks.JumpUsesVX {
			c.pc = nnn + uint16(c.v[x])
		} else {
			c.pc = nnn + uint16(c.v[0])
		}

	case 0xc: // RND Vx, kk
		c.v[x] = uint8(c.rng.Intn(256)) & kk

	case 0xd: // DRW Vx, Vy, n
		c.draw(x, y, n)

	case 0xe:
		switch kk {
		case 0x9e: // SKP Vx
			if c.keys[c.v[x]&0xf] {
				c.pc += 2
			}
		case 0xa1: // SKNP Vx
			if !c.keys[c.v[x]&0xf] {
				c.pc += 2
			}
		default:
			return UnknownOpcodeError{Opcode: op, PC: at}
		}

	case 0xf:
		return c.executeMisc(op, at, x)
	}

	return nil
}

// executeALU handles the 8xyN register-to-register family, selected on the
// low nibble. VF is the flag register: carry, no-borrow and shifted-out
// bits land there, always after the result is written.
func (c *chip8) executeALU(op, at uint16, x, y uint8) error {
	switch op & 0xf {
	case 0x0: // LD Vx, Vy
		c.v[x] = c.v[y]
	case 0x1: // OR
		c.v[x] |= c.v[y]
	case 0x2: // AND
		c.v[x] &= c.v[y]
	case 0x3: // XOR
		c.v[x] ^= c.v[y]

	case 0x4: // ADD Vx, Vy - VF = 1 on carry out of 8 bits.
		sum := uint16(c.v[x]) + uint16(c.v[y])
		c.v[x] = uint8(sum)
		c.v[0xf] = uint8(sum >> 8)

	case 0x5: // SUB Vx, Vy - VF = 1 when there was NO borrow.
		flag := uint8(0)
		if c.v[x] >= c.v[y] {
			flag = 1
		}
		c.v[x] -= c.v[y]
		c.v[0xf] = flag

	case 0x6: // SHR - VF = shifted-out low bit.
		src := c.v[x]
		if c.cfg.Quirks.ShiftUsesVY {
			src = c.v[y]
		}
		c.v[x] = src >> 1
		c.v[0xf] = src & 1

	case 0x7: // SUBN Vx, Vy - Vx = Vy - Vx, same no-borrow polarity.
		flag := uint8(0)
		if c.v[y] >= c.v[x] {
			flag = 1
		}
		c.v[x] = c.v[y] - c.v[x]
		c.v[0xf] = flag

	case 0xe: // SHL - VF = shifted-out high bit.
		src := c.v[x]
		if c.cfg.Quirks.ShiftUsesVY {
			src = c.v[y]
		}
		c.v[x] = src << 1
		c.v[0xf] = src >> 7

	default:
		return UnknownOpcodeError{Opcode: op, PC: at}
	}
	return nil
}

// executeMisc handles the FxNN family: timers, input, and the memory-block
// operations through I, selected on the low byte.
func (c *chip8) executeMisc(op, at uint16, x uint8) error {
	switch op & 0xff {
	case 0x07: // LD Vx, DT
		c.v[x] = c.dt

	case 0x0a: // LD Vx, K - park on this instruction until a key is down.
		c.waiting = true
		for k, down := range c.keys {
			if down {
				c.v[x] = uint8(k)
				c.waiting = false
				break
			}
		}
		if c.waiting {
			c.pc -= 2
		}

	case 0x15: // LD DT, Vx
		c.dt = c.v[x]
	case 0x18: // LD ST, Vx
		c.st = c.v[x]

	case 0x1e: // ADD I, Vx
		c.i += uint16(c.v[x])

	case 0x29: // LD F, Vx - address of the glyph for the low nibble of Vx.
		c.i = c.cfg.FontAddress + uint16(c.v[x]&0xf)*fontHeight

	case 0x33: // LD B, Vx - BCD digits at I, I+1, I+2.
		c.mem[c.mask(c.i)] = c.v[x] / 100
		c.mem[c.mask(c.i+1)] = (c.v[x] / 10) % 10
		c.mem[c.mask(c.i+2)] = c.v[x] % 10

	case 0x55: // LD [I], V0..Vx
		for r := uint8(0); r <= x; r++ {
			c.mem[c.mask(c.i+uint16(r))] = c.v[r]
		}
		if c.cfg.Quirks.LoadStoreAdvancesI {
			c.i += uint16(x) + 1
		}

	case 0x65: // LD V0..Vx, [I]
		for r := uint8(0); r <= x; r++ {
			c.v[r] = c.mem[c.mask(c.i+uint16(r))]
		}
		if c.cfg.Quirks.LoadStoreAdvancesI {
			c.i += uint16(x) + 1
		}

	default:
		return UnknownOpcodeError{Opcode: op, PC: at}
	}
	return nil
}

// draw XORs an n-row sprite read from memory at I onto the display at
// (Vx, Vy). VF reports collision: 1 if any lit pixel was turned off. Start
// coordinates always wrap; pixels past the edge wrap or clip per config.
func (c *chip8) draw(x, y, n uint8) {
	w, h := c.cfg.DisplayWidth, c.cfg.DisplayHeight
	startX := int(c.v[x]) % w
	startY := int(c.v[y]) % h

	c.v[0xf] = 0
	for row := 0; row < int(n); row++ {
		bits := c.mem[c.mask(c.i+uint16(row))]
		py := startY + row
		if py >= h {
			if !c.cfg.WrapSprites {
				break
			}
			py %= h
		}

		for bit := 0; bit < 8; bit++ {
			if bits&(0x80>>bit) == 0 {
				continue
			}
			px := startX + bit
			if px >= w {
				if !c.cfg.WrapSprites {
					continue
				}
				px %= w
			}

			at := py*w + px
			if c.pixels[at] {
				c.v[0xf] = 1
			}
			c.pixels[at] = !c.pixels[at]
		}
	}
}
