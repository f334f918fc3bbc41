package main

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/bshepherdson/tc-chip8/common"
	"github.com/retroenv/retrogolib/log"
)

// Keypad pumps SDL events into the core's 16-key state. The classic layout
// maps the 4x4 hex pad onto the left of a QWERTY keyboard.
type Keypad struct{}

var keypadCodes = map[sdl.Keycode]uint8{
	sdl.K_1: 0x1, sdl.K_2: 0x2, sdl.K_3: 0x3, sdl.K_4: 0xc,
	sdl.K_q: 0x4, sdl.K_w: 0x5, sdl.K_e: 0x6, sdl.K_r: 0xd,
	sdl.K_a: 0x7, sdl.K_s: 0x8, sdl.K_d: 0x9, sdl.K_f: 0xe,
	sdl.K_z: 0xa, sdl.K_x: 0x0, sdl.K_c: 0xb, sdl.K_v: 0xf,
}

func (k *Keypad) Tick(c common.CPU) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.QuitEvent:
			shutdown(c)

		case *sdl.KeyboardEvent:
			sym := t.Keysym.Sym
			down := t.Type == sdl.KEYDOWN

			if down && sym == sdl.K_ESCAPE {
				shutdown(c)
			}
			if down && sym >= sdl.K_F1 && sym <= sdl.K_F12 {
				fKey(c, int(sym-sdl.K_F1)+1)
				continue
			}

			if key, ok := keypadCodes[sym]; ok {
				c.SetKey(key, down)
			} else if down && t.Repeat == 0 {
				logger.Debug("unmapped key", log.String("key", sdl.GetKeyName(sym)))
			}
		}
	}
}

func (k *Keypad) Cleanup() {}

func NewKeypad() common.Device {
	sdl.Init(sdl.INIT_EVENTS)
	return new(Keypad)
}
