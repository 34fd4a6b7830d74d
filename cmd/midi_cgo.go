//go:build cgo

package cmd

import (
	"github.com/tcsenpai/neoretro/sequencer"
	"github.com/tcsenpai/neoretro/sequencer/gomidi"
)

func NewMidiContext(sampleRate int) sequencer.MIDIContext {
	return gomidi.NewContext(sampleRate)
}
