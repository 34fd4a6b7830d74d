package synth

import (
	"fmt"
	"iter"
	"math"

	"github.com/tcsenpai/neoretro"
)

type (
	// Voice is one sounding note or drum hit. It is created when a step or
	// a live trigger fires and is finished when its envelope has run out.
	Voice struct {
		Track int
		Note  int // MIDI note; for drum voices the General MIDI drum note
		Kind  neoretro.TrackKind

		osc  Oscillator
		drum drum
		env  Envelope
		gain float32
	}
)

// SoundLengthUnit is the duration of one unit of the track sound length for
// synth voices, in seconds.
const SoundLengthUnit = 1.0 / 120

// SynthSamples returns the length of a synth voice at the given track sound
// length.
func SynthSamples(soundLength, sampleRate int) int {
	return int(float64(soundLength) * SoundLengthUnit * float64(sampleRate))
}

// NewSynthVoice returns a voice playing the note on the waveform oscillator
// for the given number of samples.
func NewSynthVoice(track int, w neoretro.Waveform, note, velocity, samples, sampleRate int, seed uint32) (*Voice, error) {
	if err := checkVoice(track, velocity, samples, sampleRate); err != nil {
		return nil, err
	}
	if note < 0 || note > 127 {
		return nil, fmt.Errorf("note %d outside [0,127]: %w", note, neoretro.ErrInvalidParameter)
	}
	if !w.Valid() {
		return nil, fmt.Errorf("invalid waveform %d: %w", w, neoretro.ErrInvalidParameter)
	}
	return &Voice{
		Track: track,
		Note:  note,
		Kind:  neoretro.SynthTrack,
		osc:   NewOscillator(w, NoteFrequency(note), sampleRate, seed),
		env:   NewEnvelope(samples, sampleRate, 3),
		gain:  float32(velocity) / 127,
	}, nil
}

// NewDrumVoice returns a voice playing a kit slot, its length scaled by the
// track sound length.
func NewDrumVoice(track int, slot neoretro.DrumSlot, velocity, soundLength, sampleRate int, seed uint32) (*Voice, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("invalid drum slot %d: %w", slot, neoretro.ErrInvalidParameter)
	}
	if soundLength < neoretro.MinSoundLength || soundLength > neoretro.MaxSoundLength {
		return nil, fmt.Errorf("sound length %d: %w", soundLength, neoretro.ErrInvalidParameter)
	}
	samples := DrumSamples(slot, soundLength, sampleRate)
	if err := checkVoice(track, velocity, samples, sampleRate); err != nil {
		return nil, err
	}
	r := drumRecipes[slot]
	return &Voice{
		Track: track,
		Note:  neoretro.GMDrumNotes[slot],
		Kind:  neoretro.DrumTrack,
		drum:  drum{slot: slot, sampleRate: float64(sampleRate), noise: NewNoise(seed)},
		env:   NewEnvelope(samples, sampleRate, r.decay),
		gain:  r.gain * float32(velocity) / 127,
	}, nil
}

func checkVoice(track, velocity, samples, sampleRate int) error {
	switch {
	case track < 0 || track >= neoretro.MaxTracks:
		return fmt.Errorf("track %d: %w", track, neoretro.ErrInvalidParameter)
	case velocity < 1 || velocity > 127:
		return fmt.Errorf("velocity %d outside [1,127]: %w", velocity, neoretro.ErrInvalidParameter)
	case sampleRate <= 0:
		return fmt.Errorf("sample rate %d: %w", sampleRate, neoretro.ErrInvalidParameter)
	case samples < 2:
		return fmt.Errorf("voice of %d samples: %w", samples, neoretro.ErrInvalidParameter)
	}
	return nil
}

// Valid reports whether the voice can be mixed.
func (v *Voice) Valid() bool {
	if v == nil {
		return false
	}
	g := float64(v.gain)
	return v.Track >= 0 && v.Track < neoretro.MaxTracks && !math.IsNaN(g) && !math.IsInf(g, 0) && v.env.length >= 0
}

// Next returns the next sample. ok is false when the voice is finished.
func (v *Voice) Next() (sample float32, ok bool) {
	e, ok := v.env.Next()
	if !ok {
		return 0, false
	}
	var s float32
	if v.Kind == neoretro.DrumTrack {
		s = v.drum.next()
	} else {
		s = v.osc.Next()
	}
	return s * e * v.gain, true
}

// Render fills buf with the next samples of the voice and returns how many
// were written. A return value below len(buf) means the voice finished.
func (v *Voice) Render(buf []float32) int {
	for i := range buf {
		s, ok := v.Next()
		if !ok {
			return i
		}
		buf[i] = s
	}
	return len(buf)
}

// Release makes the voice fade out within the release time.
func (v *Voice) Release() {
	v.env.Release()
}

func (v *Voice) Done() bool {
	return v.env.Done()
}

// Remaining returns the number of samples until the voice finishes.
func (v *Voice) Remaining() int {
	return v.env.Remaining()
}

// Samples iterates over all the remaining samples of the voice.
func (v *Voice) Samples() iter.Seq[float32] {
	return func(yield func(float32) bool) {
		for {
			s, ok := v.Next()
			if !ok || !yield(s) {
				return
			}
		}
	}
}
