package main

import "github.com/bshepherdson/tc-chip8/common"

var deviceTypes = map[string]func(common.CPU) common.Device{
	"display":  func(c common.CPU) common.Device { return NewDisplay(c) },
	"keyboard": func(common.CPU) common.Device { return NewKeypad() },
	"beeper":   func(common.CPU) common.Device { return NewBeeper() },
}

var deviceDescriptions = map[string]string{
	"display":  "SDL monochrome display",
	"keyboard": "16-key hex keypad on 1234/qwer/asdf/zxcv",
	"beeper":   "Square-wave beeper driven by the sound timer",
}
