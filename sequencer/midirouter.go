package sequencer

import (
	"fmt"
	"strings"

	"github.com/tcsenpai/neoretro"
)

type (
	// PlayerProcessContext is given to the player when processing audio. It
	// tells which live MIDI events happen during the current block.
	PlayerProcessContext interface {
		NextEvent(frame int) (event MIDINoteEvent, ok bool)
		FinishBlock(frame int)
	}

	// MIDINoteEvent is a MIDI note on/off. Frame is relative to the start of
	// the current block.
	MIDINoteEvent struct {
		Frame    int
		On       bool
		Channel  int
		Note     byte
		Velocity byte
	}

	// NullContext is a PlayerProcessContext without any events.
	NullContext struct{}

	// MIDIContext lists the MIDI input devices of the system. An opened
	// device feeds its notes to the context, which is also a
	// PlayerProcessContext.
	MIDIContext interface {
		PlayerProcessContext
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int

	// NullMIDIContext is a MIDIContext without any devices, used when MIDI
	// was not compiled in.
	NullMIDIContext struct{ NullContext }
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

func (NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (NullMIDIContext) Close()                                        {}
func (NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }

// OpenInput opens the first input whose name starts with prefix; an empty
// prefix takes the first input.
func OpenInput(c MIDIContext, prefix string) (MIDIInputDevice, error) {
	for input := range c.Inputs {
		if strings.HasPrefix(input.String(), prefix) {
			if err := input.Open(); err != nil {
				return nil, err
			}
			return input, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input starting with %q", prefix)
}

func (NullContext) NextEvent(frame int) (MIDINoteEvent, bool) { return MIDINoteEvent{}, false }
func (NullContext) FinishBlock(frame int)                     {}

// RouteMIDI maps a MIDI note to a trigger event of the song, mirroring the
// channel layout of the MIDI export: notes on the percussion channel hit the
// first drum track, other channels play the synth track exported to that
// channel. ok is false if no track listens to the channel.
func RouteMIDI(song *neoretro.Song, e MIDINoteEvent) (ev neoretro.Event, ok bool) {
	if e.Channel == neoretro.DrumChannel {
		if !e.On {
			return ev, false
		}
		for i, t := range song.Tracks {
			if t.Kind == neoretro.DrumTrack {
				return neoretro.Event{
					Track:    i,
					Action:   neoretro.DrumHit,
					Slot:     neoretro.DrumSlotForNote(int(e.Note)),
					Velocity: max(int(e.Velocity), 1),
				}, true
			}
		}
		return ev, false
	}
	for i, t := range song.Tracks {
		if t.Kind != neoretro.SynthTrack || int(song.MIDIChannel(i)) != e.Channel {
			continue
		}
		ev = neoretro.Event{Track: i, Action: neoretro.NoteOff, Note: int(e.Note)}
		if e.On {
			ev.Action = neoretro.NoteOn
			ev.Velocity = max(int(e.Velocity), 1)
		}
		return ev, true
	}
	return ev, false
}
