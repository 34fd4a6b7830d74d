package neoretro

import (
	"fmt"
	"io"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// MIDITicksPerQuarter is the resolution of the exported MIDI files.
	MIDITicksPerQuarter = 480

	// DrumChannel is the General MIDI percussion channel (channel 10 when
	// counting from 1).
	DrumChannel = 9

	loopTrackName = "loop"
)

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

// MIDIChannel returns the channel the track at index i of the song is
// exported to: all drum tracks share the percussion channel, synth tracks get
// their own channels in order, skipping the percussion channel.
func (s *Song) MIDIChannel(i int) uint8 {
	if s.Tracks[i].Kind == DrumTrack {
		return DrumChannel
	}
	n := 0
	for _, t := range s.Tracks[:i] {
		if t.Kind == SynthTrack {
			n++
		}
	}
	ch := n % 15
	if ch >= DrumChannel {
		ch++
	}
	return uint8(ch)
}

// WriteMIDI writes the song as a format 1 Standard MIDI File: a tempo track
// followed by one track per song track containing one cycle of its pattern.
// Each active step becomes a note lasting one step. If the loop has events,
// they are written into an additional track named "loop".
func WriteMIDI(w io.Writer, song Song, loop Loop, stepsPerBeat int) error {
	if err := song.Validate(); err != nil {
		return err
	}
	if stepsPerBeat < 1 || MIDITicksPerQuarter%stepsPerBeat != 0 {
		return fmt.Errorf("steps per beat %d does not divide %d: %w", stepsPerBeat, MIDITicksPerQuarter, ErrInvalidParameter)
	}
	tps := uint32(MIDITicksPerQuarter / stepsPerBeat)
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(MIDITicksPerQuarter)
	var track0 smf.Track
	track0.Add(0, smf.MetaTrackSequenceName("neoretro"))
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(float64(song.BPM)))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}
	for i, t := range song.Tracks {
		ch := song.MIDIChannel(i)
		var msgs []timedMessage
		for j, s := range t.Steps {
			if !s.Active {
				continue
			}
			key := uint8(t.Note(s))
			if t.Kind == DrumTrack {
				key = uint8(GMDrumNotes[s.Slot])
			}
			pos := uint32(j) * tps
			msgs = append(msgs,
				timedMessage{tick: pos, msg: midi.NoteOn(ch, key, uint8(s.Velocity))},
				timedMessage{tick: pos + tps, off: true, msg: midi.NoteOff(ch, key)})
		}
		if err := sm.Add(buildTrack(t.Name, msgs, uint32(len(t.Steps))*tps)); err != nil {
			return fmt.Errorf("error adding track %d: %w", i, err)
		}
	}
	if len(loop.Events) > 0 {
		var msgs []timedMessage
		for _, e := range loop.Events {
			if e.Track < 0 || e.Track >= len(song.Tracks) || e.Validate() != nil {
				continue
			}
			ch := song.MIDIChannel(e.Track)
			pos := uint32(e.Tick) * tps
			switch e.Action {
			case NoteOn:
				msgs = append(msgs, timedMessage{tick: pos, msg: midi.NoteOn(ch, uint8(e.Note), uint8(e.Velocity))})
			case NoteOff:
				msgs = append(msgs, timedMessage{tick: pos, off: true, msg: midi.NoteOff(ch, uint8(e.Note))})
			case DrumHit:
				key := uint8(GMDrumNotes[e.Slot])
				msgs = append(msgs,
					timedMessage{tick: pos, msg: midi.NoteOn(ch, key, uint8(e.Velocity))},
					timedMessage{tick: pos + tps, off: true, msg: midi.NoteOff(ch, key)})
			}
		}
		end := uint32(max(loop.Length, 0)) * tps
		for _, m := range msgs {
			end = max(end, m.tick)
		}
		if err := sm.Add(buildTrack(loopTrackName, msgs, end)); err != nil {
			return fmt.Errorf("error adding loop track: %w", err)
		}
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %v: %w", err, ErrExportIO)
	}
	return nil
}

// buildTrack sorts the messages by time, note offs before note ons at the
// same tick, and converts them into a track with delta times. The end of
// track is placed at the tick end.
func buildTrack(name string, msgs []timedMessage, end uint32) smf.Track {
	slices.SortStableFunc(msgs, func(a, b timedMessage) int {
		if a.tick != b.tick {
			return int(a.tick) - int(b.tick)
		}
		switch {
		case a.off && !b.off:
			return -1
		case !a.off && b.off:
			return 1
		}
		return 0
	})
	var track smf.Track
	if name != "" {
		track.Add(0, smf.MetaTrackSequenceName(name))
	}
	var prev uint32
	for _, m := range msgs {
		track.Add(m.tick-prev, m.msg)
		prev = m.tick
	}
	track.Close(max(end, prev) - prev)
	return track
}

// ReadMIDI imports the step patterns of a MIDI file written by WriteMIDI into
// the song. The song must have the same tracks as the file; the file sets the
// tempo, track lengths and the steps, while the sound settings of the tracks
// are kept. The loop track is ignored. On any error the song is left
// unchanged.
func ReadMIDI(r io.Reader, song *Song, stepsPerBeat int) error {
	if stepsPerBeat < 1 || MIDITicksPerQuarter%stepsPerBeat != 0 {
		return fmt.Errorf("steps per beat %d does not divide %d: %w", stepsPerBeat, MIDITicksPerQuarter, ErrInvalidParameter)
	}
	rd, err := smf.ReadFrom(r)
	if err != nil {
		return fmt.Errorf("could not parse MIDI file: %v: %w", err, ErrSchema)
	}
	mt, ok := rd.TimeFormat.(smf.MetricTicks)
	if !ok || mt.Resolution() == 0 || int(mt.Resolution())%stepsPerBeat != 0 {
		return fmt.Errorf("unsupported MIDI time format %v: %w", rd.TimeFormat, ErrSchema)
	}
	tps := uint64(mt.Resolution()) / uint64(stepsPerBeat)
	ret := song.Copy()
	if tc := rd.TempoChanges(); len(tc) > 0 {
		ret.BPM = int(math.Round(tc[0].BPM))
	}
	var patterns []smf.Track
	if len(rd.Tracks) > 0 {
		patterns = rd.Tracks[1:]
	}
	// the loop track, if any, follows the song tracks
	if n := len(patterns); n == len(ret.Tracks)+1 && trackName(patterns[n-1]) == loopTrackName {
		patterns = patterns[:n-1]
	}
	if len(patterns) != len(ret.Tracks) {
		return fmt.Errorf("MIDI file has %d tracks, song has %d: %w", len(patterns), len(ret.Tracks), ErrSchema)
	}
	for i, tr := range patterns {
		t := &ret.Tracks[i]
		var abs uint64
		var steps Pattern
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			var ch, key, vel uint8
			if !midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
				continue
			}
			if abs%tps != 0 {
				return fmt.Errorf("track %d: note at tick %d is not on a step: %w", i, abs, ErrSchema)
			}
			idx := int(abs / tps)
			if idx >= MaxSteps {
				return fmt.Errorf("track %d: note at step %d: %w", i, idx, ErrSchema)
			}
			for len(steps) <= idx {
				steps = append(steps, Step{})
			}
			s := Step{Active: true, Velocity: int(vel)}
			if t.Kind == DrumTrack {
				s.Slot = DrumSlotForNote(int(key))
			} else {
				s.Pitch = int(key) - BaseNote(t.Octave)
			}
			steps[idx] = s
		}
		length := int(abs / tps) // the end of track event is last
		if length < MinSteps || length > MaxSteps || length < len(steps) {
			return fmt.Errorf("track %d: length %d steps: %w", i, length, ErrSchema)
		}
		t.Steps = make(Pattern, length)
		copy(t.Steps, steps)
		if name := trackName(tr); name != "" {
			t.Name = name
		}
	}
	if err := ret.Validate(); err != nil {
		return err
	}
	*song = ret
	return nil
}

func trackName(tr smf.Track) string {
	for _, ev := range tr {
		var name string
		if ev.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}
