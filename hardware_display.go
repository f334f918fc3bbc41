package main

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/bshepherdson/tc-chip8/common"
)

// Display paints the core's 1-bit framebuffer into an SDL window, one
// texture texel per CHIP-8 pixel, scaled up on the copy.
type Display struct {
	width  int
	height int

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
}

func (disp *Display) Tick(c common.CPU) {
	pixels, pitch, err := disp.texture.Lock(nil)
	if err != nil {
		panic(fmt.Errorf("error locking texture: %v", err))
	}
	if pitch != disp.width*4 {
		panic(fmt.Errorf("unexpected pitch: %d", pitch))
	}

	fb := c.Pixels()
	for y := 0; y < disp.height; y++ {
		for x := 0; x < disp.width; x++ {
			disp.writePixel(pixels, fb[y*disp.width+x], x, y)
		}
	}

	// Fully painted, now flip the texture onto the display.
	disp.texture.Unlock()
	if err := disp.renderer.Clear(); err != nil {
		panic(fmt.Errorf("failed to clear renderer: %v", err))
	}
	err = disp.renderer.Copy(disp.texture,
		&sdl.Rect{X: 0, Y: 0, W: int32(disp.width), H: int32(disp.height)},
		&sdl.Rect{X: 0, Y: 0, W: int32(disp.width * displayScale), H: int32(disp.height * displayScale)})
	if err != nil {
		panic(fmt.Errorf("failed to copy texture: %v", err))
	}

	disp.renderer.Present()
}

// Writes one monochrome pixel; the texture's format is ARGB8888.
func (disp *Display) writePixel(pixels []byte, on bool, x, y int) {
	offset := disp.width*4*y + 4*x

	var v byte // Defaults to 0, black, for unlit pixels.
	if on {
		v = 0xff
	}

	pixels[offset+3] = 0xff // Alpha
	pixels[offset+2] = v
	pixels[offset+1] = v
	pixels[offset] = v
}

func (disp *Display) Cleanup() {
	disp.texture.Destroy()
	disp.renderer.Destroy()
	disp.window.Destroy()
}

func NewDisplay(c common.CPU) common.Device {
	disp := new(Display)
	disp.width, disp.height = c.DisplaySize()

	runtime.LockOSThread() // Latch this goroutine to the same thread for SDL.
	sdl.Init(sdl.INIT_VIDEO)
	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED, int32(disp.width*displayScale),
		int32(disp.height*displayScale), sdl.WINDOW_SHOWN)
	if err != nil {
		panic(fmt.Errorf("failed to create window: %v", err))
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		panic(fmt.Errorf("failed to create renderer: %v", err))
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, int32(disp.width), int32(disp.height))
	if err != nil {
		panic(fmt.Errorf("failed to create texture: %v", err))
	}

	disp.window = window
	disp.renderer = renderer
	disp.texture = texture
	return disp
}
