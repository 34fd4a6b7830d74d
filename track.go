package neoretro

import (
	"fmt"
)

// Copy makes a deep copy of a Track.
func (t *Track) Copy() Track {
	ret := *t
	ret.Steps = make(Pattern, len(t.Steps))
	copy(ret.Steps, t.Steps)
	return ret
}

// Resize changes the number of steps. The content of the steps below
// min(old, new) length is preserved, new steps are inactive. Lengths outside
// [MinSteps, MaxSteps] fail with ErrRange and leave the track untouched.
func (t *Track) Resize(length int) error {
	if length < MinSteps || length > MaxSteps || length%StepUnit != 0 {
		return fmt.Errorf("track length %d outside [%d,%d]: %w", length, MinSteps, MaxSteps, ErrRange)
	}
	steps := make(Pattern, length)
	copy(steps, t.Steps)
	t.Steps = steps
	return nil
}

// SetStep replaces the step at index. The step is validated against the track
// before anything is changed.
func (t *Track) SetStep(index int, step Step) error {
	if index < 0 || index >= len(t.Steps) {
		return fmt.Errorf("step %d outside track of length %d: %w", index, len(t.Steps), ErrRange)
	}
	if err := t.validateStep(step); err != nil {
		return err
	}
	t.Steps[index] = step
	return nil
}

// ClearAll deactivates every step, keeping the length.
func (t *Track) ClearAll() {
	for i := range t.Steps {
		t.Steps[i] = Step{}
	}
}

// Note returns the MIDI note number a synth step plays on this track.
func (t *Track) Note(s Step) int {
	return BaseNote(t.Octave) + s.Pitch
}

// BaseNote is the MIDI note number of C in the given octave; C3 is 48.
func BaseNote(octave int) int {
	return 12 * (octave + 1)
}

// Validate checks the track settings and all of its steps.
func (t *Track) Validate() error {
	if t.Kind != SynthTrack && t.Kind != DrumTrack {
		return fmt.Errorf("invalid track kind %d: %w", t.Kind, ErrInvalidParameter)
	}
	if l := len(t.Steps); l < MinSteps || l > MaxSteps || l%StepUnit != 0 {
		return fmt.Errorf("track length %d outside [%d,%d]: %w", l, MinSteps, MaxSteps, ErrRange)
	}
	if !t.Waveform.Valid() {
		return fmt.Errorf("invalid waveform %d: %w", t.Waveform, ErrInvalidParameter)
	}
	if t.Volume < 0 || t.Volume > MaxVolume {
		return fmt.Errorf("volume %d outside [0,%d]: %w", t.Volume, MaxVolume, ErrInvalidParameter)
	}
	if t.SoundLength < MinSoundLength || t.SoundLength > MaxSoundLength {
		return fmt.Errorf("sound length %d outside [%d,%d]: %w", t.SoundLength, MinSoundLength, MaxSoundLength, ErrInvalidParameter)
	}
	if t.Octave < 0 || t.Octave > MaxOctave {
		return fmt.Errorf("octave %d outside [0,%d]: %w", t.Octave, MaxOctave, ErrInvalidParameter)
	}
	for i, s := range t.Steps {
		if err := t.validateStep(s); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (t *Track) validateStep(s Step) error {
	if s.Velocity < 0 || s.Velocity > 127 || (s.Active && s.Velocity == 0) {
		return fmt.Errorf("velocity %d outside [1,127]: %w", s.Velocity, ErrInvalidParameter)
	}
	if !s.Slot.Valid() {
		return fmt.Errorf("invalid drum slot %d: %w", s.Slot, ErrInvalidParameter)
	}
	if s.Pitch < 0 || s.Pitch > 127 {
		return fmt.Errorf("pitch %d outside [0,127]: %w", s.Pitch, ErrInvalidParameter)
	}
	if t.Kind == SynthTrack && s.Active && t.Note(s) > 127 {
		return fmt.Errorf("pitch %d in octave %d is above MIDI note 127: %w", s.Pitch, t.Octave, ErrInvalidParameter)
	}
	return nil
}
