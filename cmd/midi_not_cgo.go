//go:build !cgo

package cmd

import (
	"github.com/tcsenpai/neoretro/sequencer"
)

func NewMidiContext(sampleRate int) sequencer.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return sequencer.NullMIDIContext{}
}
