package neoretro

import (
	"fmt"
)

type (
	// Song is the complete persisted state of a session: the tempo, the tracks
	// with their step patterns and sound settings, and the arpeggiator
	// pattern. A preset file is simply a serialized Song.
	Song struct {
		BPM int

		// Tracks are the step sequencer tracks. All tracks are driven by one
		// shared step counter; a track of length n plays step counter mod n.
		Tracks []Track

		// Arpeggio is the list of semitone offsets cycled by the arpeggiator.
		Arpeggio []int `yaml:",flow"`
	}

	// Track is one row of the step sequencer, bound either to the waveform
	// oscillator (Synth) or to the drum kit (Drum).
	Track struct {
		Name string `yaml:",omitempty"`
		Kind TrackKind

		// Steps is the step pattern, always between MinSteps and MaxSteps
		// long.
		Steps Pattern

		// Waveform is used by synth tracks only.
		Waveform Waveform `yaml:",omitempty"`

		// Volume is the track volume, 0 (silent) to MaxVolume.
		Volume int

		// SoundLength scales the duration of the voices triggered by the
		// track, in SoundLengthUnit units for synth voices. For drums, 10 is
		// the nominal length of the kit sound.
		SoundLength int

		// Octave is the octave of the pitch 0 of synth steps: octave 3 and
		// pitch 0 is C3 (MIDI note 48).
		Octave int `yaml:",omitempty"`

		Mute bool `yaml:",omitempty"`
	}

	// Step is one slot of a track pattern.
	Step struct {
		Active bool `yaml:",omitempty"`

		// Pitch is the semitone offset above the C of the track octave. Only
		// used by synth tracks.
		Pitch int `yaml:",omitempty"`

		// Velocity scales the voice amplitude, 1..127 for active steps.
		Velocity int `yaml:",omitempty"`

		// Slot is the drum kit sound, only used by drum tracks.
		Slot DrumSlot `yaml:",omitempty"`
	}
)

const (
	MinSteps  = 8
	MaxSteps  = 32
	StepUnit  = 1 // track lengths must be multiples of this
	MaxTracks = 16

	MaxVolume      = 7
	MinSoundLength = 1
	MaxSoundLength = 99
	MaxOctave      = 8
	MinBPM         = 1
	MaxBPM         = 999

	DefaultVelocity = 100
)

// DefaultArpeggio is the major triad plus octave.
var DefaultArpeggio = []int{0, 4, 7, 12}

// DefaultSong returns the power-on state: two drum tracks and two synth
// tracks, eight steps each, at 120 BPM.
func DefaultSong() Song {
	return Song{
		BPM: 120,
		Tracks: []Track{
			NewTrack("drum 1", DrumTrack, 8),
			NewTrack("drum 2", DrumTrack, 8),
			NewTrack("synth 1", SynthTrack, 8),
			NewTrack("synth 2", SynthTrack, 8),
		},
		Arpeggio: append([]int(nil), DefaultArpeggio...),
	}
}

// NewTrack returns a track of the given kind with all steps inactive. The
// length is clamped into [MinSteps, MaxSteps].
func NewTrack(name string, kind TrackKind, length int) Track {
	length = min(max(length, MinSteps), MaxSteps)
	return Track{
		Name:        name,
		Kind:        kind,
		Steps:       make(Pattern, length),
		Waveform:    Triangle,
		Volume:      MaxVolume,
		SoundLength: 10,
		Octave:      3,
	}
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	tracks := make([]Track, len(s.Tracks))
	for i := range s.Tracks {
		tracks[i] = s.Tracks[i].Copy()
	}
	return Song{BPM: s.BPM, Tracks: tracks, Arpeggio: append([]int(nil), s.Arpeggio...)}
}

// Track returns a pointer to the track at index i, or an error wrapping
// ErrInvalidParameter if there is no such track.
func (s *Song) Track(i int) (*Track, error) {
	if i < 0 || i >= len(s.Tracks) {
		return nil, fmt.Errorf("track %d does not exist: %w", i, ErrInvalidParameter)
	}
	return &s.Tracks[i], nil
}

// MaxLength returns the length of the longest track, in steps.
func (s *Song) MaxLength() int {
	ret := 0
	for _, t := range s.Tracks {
		ret = max(ret, len(t.Steps))
	}
	return ret
}

// Validate checks that the song could have been produced by the editing
// operations: BPM in range, track count, step counts and all enumerations
// valid. Every problem is reported as ErrSchema.
func (s *Song) Validate() error {
	if s.BPM < MinBPM || s.BPM > MaxBPM {
		return fmt.Errorf("bpm %d outside [%d,%d]: %w", s.BPM, MinBPM, MaxBPM, ErrSchema)
	}
	if len(s.Tracks) > MaxTracks {
		return fmt.Errorf("song has %d tracks, at most %d allowed: %w", len(s.Tracks), MaxTracks, ErrSchema)
	}
	for i := range s.Tracks {
		if err := s.Tracks[i].Validate(); err != nil {
			return fmt.Errorf("track %d: %v: %w", i, err, ErrSchema)
		}
	}
	for _, o := range s.Arpeggio {
		if o < -MaxArpeggioOffset || o > MaxArpeggioOffset {
			return fmt.Errorf("arpeggio offset %d outside [%d,%d]: %w", o, -MaxArpeggioOffset, MaxArpeggioOffset, ErrSchema)
		}
	}
	return nil
}

// MaxArpeggioOffset limits the arpeggio offsets to four octaves.
const MaxArpeggioOffset = 48
