package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/bshepherdson/tc-chip8/common"
)

const (
	sampleRate = 44100
	toneHz     = 440
)

// Beeper turns the sound timer into an audible square wave. The core only
// exposes the timer level; the tone itself is a host concern.
type Beeper struct {
	dev     sdl.AudioDeviceID
	wave    []byte
	playing bool
}

func (b *Beeper) Tick(c common.CPU) {
	if c.SoundActive() {
		// Keep about two frames of wave queued ahead of the device.
		if sdl.GetQueuedAudioSize(b.dev) < uint32(2*len(b.wave)) {
			sdl.QueueAudio(b.dev, b.wave)
		}
		if !b.playing {
			sdl.PauseAudioDevice(b.dev, false)
			b.playing = true
		}
	} else if b.playing {
		sdl.PauseAudioDevice(b.dev, true)
		sdl.ClearQueuedAudio(b.dev)
		b.playing = false
	}
}

func (b *Beeper) Cleanup() {
	sdl.CloseAudioDevice(b.dev)
}

func NewBeeper() common.Device {
	sdl.Init(sdl.INIT_AUDIO)

	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  1024,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		panic(fmt.Errorf("failed to open audio device: %v", err))
	}

	b := &Beeper{dev: dev}

	// One frame's worth of square wave.
	b.wave = make([]byte, sampleRate/framesPerSecond)
	halfPeriod := sampleRate / toneHz / 2
	for i := range b.wave {
		if (i/halfPeriod)%2 == 0 {
			b.wave[i] = 0xa0
		} else {
			b.wave[i] = 0x60
		}
	}

	return b
}
