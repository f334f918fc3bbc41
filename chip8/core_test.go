package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// testConfig returns the standard machine with a fixed RNG seed so tests
// are deterministic.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 1
	return cfg
}

func newVM(t *testing.T, cfg Config, words ...uint16) *chip8 {
	t.Helper()
	c := New(cfg).(*chip8)
	if len(words) > 0 {
		assert.NoError(t, c.Load(program(words...)))
	}
	return c
}

// program assembles instruction words into a big-endian ROM image.
func program(words ...uint16) []byte {
	rom := make([]byte, 0, len(words)*2)
	for _, w := range words {
		rom = append(rom, byte(w>>8), byte(w))
	}
	return rom
}

func step(t *testing.T, c *chip8) {
	t.Helper()
	assert.NoError(t, c.Step())
}

func TestLoadBounds(t *testing.T) {
	tests := []struct {
		name string
		addr uint16
		size int
		ok   bool
	}{
		{"empty image", 0x200, 0, true},
		{"small image", 0x200, 2, true},
		{"fills memory exactly", 0x200, 4096 - 0x200, true},
		{"one byte too large", 0x200, 4096 - 0x200 + 1, false},
		{"large address", 0xfff, 2, false},
		{"load at zero", 0x000, 4096, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig())
			rom := make([]byte, tt.size)
			for i := range rom {
				rom[i] = 0xab
			}

			err := c.LoadAt(rom, tt.addr)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.addr, c.pc)
				return
			}

			var oob OutOfBoundsError
			assert.True(t, errors.As(err, &oob))
			assert.Equal(t, tt.addr, oob.Addr)
			assert.Equal(t, tt.size, oob.Size)
			// All-or-nothing: nothing was written.
			assert.Equal(t, byte(0), c.mem[0x200])
		})
	}
}

func TestLoadResetsState(t *testing.T) {
	c := newVM(t, testConfig(), 0x00e0)
	c.v[3] = 99
	c.dt = 10
	c.SetKey(5, true)

	assert.NoError(t, c.Load(program(0x1200)))
	assert.Equal(t, uint8(0), c.v[3])
	assert.Equal(t, uint8(0), c.dt)
	assert.False(t, c.Key(5))
	assert.Equal(t, uint16(0x200), c.pc)
}

func TestResetWritesFont(t *testing.T) {
	c := newVM(t, testConfig())
	// Glyph 0 starts at the font base, glyph F ends 80 bytes later.
	assert.Equal(t, byte(0xf0), c.mem[0x050])
	assert.Equal(t, byte(0x80), c.mem[0x050+79])
}

func TestFetchIsBigEndian(t *testing.T) {
	c := newVM(t, testConfig(), 0x6a42) // LD VA, $42
	step(t, c)
	assert.Equal(t, uint8(0x42), c.v[0xa])
	assert.Equal(t, uint16(0x202), c.pc)
}

func TestJump(t *testing.T) {
	c := newVM(t, testConfig(), 0x1234)
	step(t, c)
	assert.Equal(t, uint16(0x234), c.pc)
}

func TestJumpIndexed(t *testing.T) {
	t.Run("default adds V0", func(t *testing.T) {
		c := newVM(t, testConfig(), 0x6005, 0x6105, 0xb300)
		step(t, c)
		step(t, c)
		step(t, c)
		assert.Equal(t, uint16(0x305), c.pc)
	})

	t.Run("quirk adds Vx", func(t *testing.T) {
		cfg := testConfig()
		cfg.Quirks.JumpUsesVX = true
		c := newVM(t, cfg, 0x6005, 0x6107, 0xb300) // x nibble of $300 is 3
		c.v[3] = 0x10
		step(t, c)
		step(t, c)
		step(t, c)
		assert.Equal(t, uint16(0x310), c.pc)
	})
}

func TestCallAndReturn(t *testing.T) {
	c := newVM(t, testConfig(), 0x2208, 0x0000, 0x0000, 0x0000, 0x00ee)
	step(t, c)
	assert.Equal(t, uint16(0x208), c.pc)
	assert.Equal(t, uint8(1), c.sp)

	step(t, c) // RET
	assert.Equal(t, uint16(0x202), c.pc)
	assert.Equal(t, uint8(0), c.sp)
}

func TestStackOverflow(t *testing.T) {
	// CALL $200 forever: each call pushes a frame and jumps back here.
	c := newVM(t, testConfig(), 0x2200)

	for i := 0; i < 16; i++ {
		step(t, c)
	}

	err := c.Step()
	var overflow StackOverflowError
	assert.True(t, errors.As(err, &overflow))
	assert.Equal(t, 16, overflow.Depth)
	assert.Equal(t, uint16(0x200), overflow.PC)
	// The stack itself was not corrupted.
	assert.Equal(t, uint8(16), c.sp)
}

func TestStackUnderflow(t *testing.T) {
	c := newVM(t, testConfig(), 0x00ee)

	err := c.Step()
	var underflow StackUnderflowError
	assert.True(t, errors.As(err, &underflow))
	assert.Equal(t, uint16(0x200), underflow.PC)
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name  string
		op    uint16
		setup func(c *chip8)
		taken bool
	}{
		{"SE immediate equal", 0x3042, func(c *chip8) { c.v[0] = 0x42 }, true},
		{"SE immediate unequal", 0x3042, func(c *chip8) { c.v[0] = 0x41 }, false},
		{"SNE immediate equal", 0x4042, func(c *chip8) { c.v[0] = 0x42 }, false},
		{"SNE immediate unequal", 0x4042, func(c *chip8) { c.v[0] = 0x41 }, true},
		{"SE register equal", 0x5120, func(c *chip8) { c.v[1], c.v[2] = 7, 7 }, true},
		{"SE register unequal", 0x5120, func(c *chip8) { c.v[1], c.v[2] = 7, 8 }, false},
		{"SNE register equal", 0x9120, func(c *chip8) { c.v[1], c.v[2] = 7, 7 }, false},
		{"SNE register unequal", 0x9120, func(c *chip8) { c.v[1], c.v[2] = 7, 8 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig(), tt.op)
			tt.setup(c)
			step(t, c)

			want := uint16(0x202)
			if tt.taken {
				want = 0x204
			}
			assert.Equal(t, want, c.pc)
		})
	}
}

func TestAddImmediateHasNoCarryFlag(t *testing.T) {
	c := newVM(t, testConfig(), 0x70ff)
	c.v[0] = 2
	c.v[0xf] = 7 // Must survive: 7xkk never touches VF.
	step(t, c)
	assert.Equal(t, uint8(1), c.v[0])
	assert.Equal(t, uint8(7), c.v[0xf])
}

func TestALU(t *testing.T) {
	tests := []struct {
		name     string
		op       uint16
		vx, vy   uint8
		want     uint8
		wantFlag uint8
	}{
		{"LD", 0x8120, 5, 9, 9, 0xaa},
		{"OR", 0x8121, 0x0f, 0xf0, 0xff, 0xaa},
		{"AND", 0x8122, 0x0f, 0xff, 0x0f, 0xaa},
		{"XOR", 0x8123, 0x0f, 0xff, 0xf0, 0xaa},
		{"ADD without carry", 0x8124, 5, 3, 8, 0},
		{"ADD with carry", 0x8124, 200, 100, 44, 1},
		{"SUB no borrow", 0x8125, 5, 3, 2, 1},
		{"SUB with borrow", 0x8125, 3, 5, 254, 0},
		{"SUB equal operands", 0x8125, 9, 9, 0, 1},
		{"SUBN no borrow", 0x8127, 3, 5, 2, 1},
		{"SUBN with borrow", 0x8127, 5, 3, 254, 0},
		{"SHR captures low bit", 0x8126, 0x05, 0, 0x02, 1},
		{"SHR even value", 0x8126, 0x04, 0, 0x02, 0},
		{"SHL captures high bit", 0x812e, 0x81, 0, 0x02, 1},
		{"SHL low value", 0x812e, 0x41, 0, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig(), tt.op)
			c.v[1] = tt.vx
			c.v[2] = tt.vy
			c.v[0xf] = 0xaa // Sentinel for ops that must not touch VF.
			step(t, c)

			assert.Equal(t, tt.want, c.v[1])
			assert.Equal(t, tt.wantFlag, c.v[0xf])
		})
	}
}

func TestALUFlagWrittenAfterResult(t *testing.T) {
	// When VF is the destination, the flag wins over the result.
	c := newVM(t, testConfig(), 0x8f24) // ADD VF, V2
	c.v[0xf] = 200
	c.v[2] = 100
	step(t, c)
	assert.Equal(t, uint8(1), c.v[0xf])
}

func TestShiftQuirk(t *testing.T) {
	t.Run("default shifts Vx in place", func(t *testing.T) {
		c := newVM(t, testConfig(), 0x8126)
		c.v[1] = 0x08
		c.v[2] = 0xff
		step(t, c)
		assert.Equal(t, uint8(0x04), c.v[1])
		assert.Equal(t, uint8(0), c.v[0xf])
	})

	t.Run("quirk shifts Vy into Vx", func(t *testing.T) {
		cfg := testConfig()
		cfg.Quirks.ShiftUsesVY = true
		c := newVM(t, cfg, 0x8126)
		c.v[1] = 0x08
		c.v[2] = 0x05
		step(t, c)
		assert.Equal(t, uint8(0x02), c.v[1])
		assert.Equal(t, uint8(1), c.v[0xf])
		assert.Equal(t, uint8(0x05), c.v[2])
	})
}

func TestIndexRegister(t *testing.T) {
	c := newVM(t, testConfig(), 0xa123, 0xf21e)
	c.v[2] = 0x10
	step(t, c)
	assert.Equal(t, uint16(0x123), c.i)

	step(t, c) // ADD I, V2
	assert.Equal(t, uint16(0x133), c.i)
}

func TestRandomMasked(t *testing.T) {
	// With mask 0x0f the high nibble must always be clear.
	c := newVM(t, testConfig(), 0xc00f, 0x1200)
	for i := 0; i < 50; i++ {
		step(t, c) // RND
		assert.Equal(t, uint8(0), c.v[0]&0xf0)
		step(t, c) // loop back
	}
}

func TestRandomDeterministicWithSeed(t *testing.T) {
	a := newVM(t, testConfig(), 0xc0ff)
	b := newVM(t, testConfig(), 0xc0ff)
	step(t, a)
	step(t, b)
	assert.Equal(t, a.v[0], b.v[0])
}

func TestTimers(t *testing.T) {
	c := newVM(t, testConfig(), 0x6003, 0xf015, 0xf018, 0xf107)
	step(t, c) // V0 = 3
	step(t, c) // DT = V0
	step(t, c) // ST = V0
	assert.Equal(t, uint8(3), c.dt)
	assert.Equal(t, uint8(3), c.st)
	assert.True(t, c.SoundActive())

	step(t, c) // V1 = DT; cycles never tick timers.
	assert.Equal(t, uint8(3), c.v[1])
	assert.Equal(t, uint8(3), c.dt)

	for i := 0; i < 5; i++ {
		c.TickTimers()
	}
	assert.Equal(t, uint8(0), c.dt)
	assert.Equal(t, uint8(0), c.st)
	assert.False(t, c.SoundActive())
}

func TestKeySkips(t *testing.T) {
	tests := []struct {
		name  string
		op    uint16
		down  bool
		taken bool
	}{
		{"SKP with key down", 0xe09e, true, true},
		{"SKP with key up", 0xe09e, false, false},
		{"SKNP with key down", 0xe0a1, true, false},
		{"SKNP with key up", 0xe0a1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig(), tt.op)
			c.v[0] = 0x7
			c.SetKey(0x7, tt.down)
			step(t, c)

			want := uint16(0x202)
			if tt.taken {
				want = 0x204
			}
			assert.Equal(t, want, c.pc)
		})
	}
}

func TestWaitForKey(t *testing.T) {
	c := newVM(t, testConfig(), 0xf30a)

	// No key down: the PC parks on the instruction and the status flag
	// raises; repeated cycles re-decode the same wait harmlessly.
	for i := 0; i < 3; i++ {
		step(t, c)
		assert.True(t, c.Waiting())
		assert.Equal(t, uint16(0x200), c.pc)
	}

	c.SetKey(0xb, true)
	step(t, c)
	assert.False(t, c.Waiting())
	assert.Equal(t, uint8(0xb), c.v[3])
	assert.Equal(t, uint16(0x202), c.pc)
}

func TestFontAddress(t *testing.T) {
	tests := []struct {
		name  string
		digit uint8
		want  uint16
	}{
		{"digit 0", 0x0, 0x050},
		{"digit 1", 0x1, 0x055},
		{"digit F", 0xf, 0x09b},
		{"only the low nibble selects", 0xa7, 0x073},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig(), 0xf029)
			c.v[0] = tt.digit
			step(t, c)
			assert.Equal(t, tt.want, c.i)
		})
	}
}

func TestBCD(t *testing.T) {
	c := newVM(t, testConfig(), 0xf033)
	c.v[0] = 254
	c.i = 0x300
	step(t, c)
	assert.Equal(t, byte(2), c.mem[0x300])
	assert.Equal(t, byte(5), c.mem[0x301])
	assert.Equal(t, byte(4), c.mem[0x302])
}

func TestRegisterDumpAndRestore(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		c := newVM(t, testConfig(), 0xf355, 0x6000, 0x6100, 0x6200, 0x6300, 0xf365)
		c.i = 0x300
		c.v[0], c.v[1], c.v[2], c.v[3] = 10, 20, 30, 40
		c.v[4] = 0x77 // Past x: must not be stored.

		step(t, c) // LD [I], V3
		assert.Equal(t, byte(10), c.mem[0x300])
		assert.Equal(t, byte(40), c.mem[0x303])
		assert.Equal(t, byte(0), c.mem[0x304])
		assert.Equal(t, uint16(0x300), c.i) // I unchanged by default.

		for i := 0; i < 4; i++ {
			step(t, c) // Clear V0..V3.
		}
		step(t, c) // LD V3, [I]
		assert.Equal(t, uint8(10), c.v[0])
		assert.Equal(t, uint8(40), c.v[3])
	})

	t.Run("quirk advances I", func(t *testing.T) {
		cfg := testConfig()
		cfg.Quirks.LoadStoreAdvancesI = true
		c := newVM(t, cfg, 0xf255)
		c.i = 0x300
		step(t, c)
		assert.Equal(t, uint16(0x303), c.i)
	})
}

func TestDraw(t *testing.T) {
	t.Run("paints and reports no collision", func(t *testing.T) {
		c := newVM(t, testConfig(), 0xd015)
		c.i = 0x050 // Glyph 0 from the built-in font.
		c.v[0] = 4
		c.v[1] = 2
		step(t, c)

		assert.Equal(t, uint8(0), c.v[0xf])
		// Top row of glyph 0 is 0xF0: four pixels at (4..7, 2).
		w, _ := c.DisplaySize()
		for x := 4; x < 8; x++ {
			assert.True(t, c.pixels[2*w+x])
		}
		assert.False(t, c.pixels[2*w+8])
	})

	t.Run("XOR erase reports collision", func(t *testing.T) {
		c := newVM(t, testConfig(), 0xd015, 0xd015)
		c.i = 0x050
		step(t, c)
		step(t, c) // Same sprite again: every pixel toggles off.

		assert.Equal(t, uint8(1), c.v[0xf])
		for _, p := range c.pixels {
			assert.False(t, p)
		}
	})

	t.Run("wraps at the edges by default", func(t *testing.T) {
		c := newVM(t, testConfig(), 0xd012)
		c.mem[0x300] = 0xc0 // Two pixels wide, two rows.
		c.mem[0x301] = 0xc0
		c.i = 0x300
		c.v[0] = 63
		c.v[1] = 31
		step(t, c)

		w, _ := c.DisplaySize()
		assert.True(t, c.pixels[31*w+63])
		assert.True(t, c.pixels[31*w+0]) // Wrapped column.
		assert.True(t, c.pixels[0*w+63]) // Wrapped row.
		assert.True(t, c.pixels[0*w+0])
	})

	t.Run("clips at the edges when configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.WrapSprites = false
		c := newVM(t, cfg, 0xd012)
		c.mem[0x300] = 0xc0
		c.mem[0x301] = 0xc0
		c.i = 0x300
		c.v[0] = 63
		c.v[1] = 31
		step(t, c)

		w, _ := c.DisplaySize()
		assert.True(t, c.pixels[31*w+63])
		assert.False(t, c.pixels[31*w+0])
		assert.False(t, c.pixels[0*w+63])
		assert.False(t, c.pixels[0*w+0])
	})

	t.Run("start coordinates reduce modulo the display", func(t *testing.T) {
		c := newVM(t, testConfig(), 0xd011)
		c.mem[0x300] = 0x80
		c.i = 0x300
		c.v[0] = 64 + 3
		c.v[1] = 32 + 1
		step(t, c)

		w, _ := c.DisplaySize()
		assert.True(t, c.pixels[1*w+3])
	})
}

func TestClearScreen(t *testing.T) {
	c := newVM(t, testConfig(), 0xd015, 0x00e0)
	c.i = 0x050
	step(t, c)
	step(t, c)
	for _, p := range c.pixels {
		assert.False(t, p)
	}
}

func TestUnknownOpcodes(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
	}{
		{"SYS call", 0x0123},
		{"5xyn with nonzero n", 0x5121},
		{"9xyn with nonzero n", 0x9121},
		{"undefined ALU op", 0x8128},
		{"undefined Ex op", 0xe0ff},
		{"undefined Fx op", 0xf0ff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVM(t, testConfig(), tt.op)

			err := c.Step()
			var unknown UnknownOpcodeError
			assert.True(t, errors.As(err, &unknown))
			assert.Equal(t, tt.op, unknown.Opcode)
			assert.Equal(t, uint16(0x200), unknown.PC)
		})
	}
}

func TestZeroWordIsNop(t *testing.T) {
	c := newVM(t, testConfig(), 0x0000)
	step(t, c)
	assert.Equal(t, uint16(0x202), c.pc)
}

func TestBreakpoint(t *testing.T) {
	c := newVM(t, testConfig(), 0x0000, 0x0000)
	c.AddBreakpoint(0x202)
	step(t, c)
	assert.True(t, *c.Debugging())
}

func TestClearLoopStabilizes(t *testing.T) {
	// CLS, then jump-to-self: the display stays dark and the PC settles
	// on the jump target forever.
	c := newVM(t, testConfig(), 0x00e0, 0x1202)
	for i := 0; i < 10; i++ {
		step(t, c)
	}
	assert.Equal(t, uint16(0x202), c.pc)
	for _, p := range c.pixels {
		assert.False(t, p)
	}
}

func TestAddProgram(t *testing.T) {
	// V0 = 5, V1 = 10, V0 += V1.
	c := newVM(t, testConfig(), 0x6005, 0x610a, 0x8014)
	step(t, c)
	step(t, c)
	step(t, c)
	assert.Equal(t, uint8(15), c.v[0])
	assert.Equal(t, uint8(0), c.v[0xf])
}
