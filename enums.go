package neoretro

import (
	"fmt"
)

type (
	// Waveform selects the shape of the synth oscillator.
	Waveform int

	// TrackKind tells whether a track triggers the synth or the drum kit.
	TrackKind int

	// DrumSlot selects one of the four drum kit sounds.
	DrumSlot int
)

const (
	Triangle Waveform = iota
	Square
	Pulse
	Noise
	NumWaveforms
)

const (
	SynthTrack TrackKind = iota
	DrumTrack
)

const (
	Kick DrumSlot = iota
	Snare
	HiHat
	OpenHiHat
	NumDrumSlots
)

var waveformNames = [...]string{"triangle", "square", "pulse", "noise"}
var trackKindNames = [...]string{"synth", "drum"}
var drumSlotNames = [...]string{"kick", "snare", "hihat", "openhihat"}

// GMDrumNotes maps the drum slots to General MIDI percussion notes.
var GMDrumNotes = [NumDrumSlots]int{36, 38, 42, 46}

// DrumSlotForNote is the inverse of GMDrumNotes. Other percussion notes are
// folded into the nearest family: toms and cymbals to the open hihat, claps
// and rims to the snare.
func DrumSlotForNote(note int) DrumSlot {
	switch note {
	case 35, 36:
		return Kick
	case 37, 38, 39, 40:
		return Snare
	case 42, 44:
		return HiHat
	default:
		return OpenHiHat
	}
}

func (w Waveform) Valid() bool  { return w >= 0 && w < NumWaveforms }
func (k TrackKind) Valid() bool { return k == SynthTrack || k == DrumTrack }
func (d DrumSlot) Valid() bool  { return d >= 0 && d < NumDrumSlots }

func (w Waveform) String() string  { return enumString(waveformNames[:], int(w)) }
func (k TrackKind) String() string { return enumString(trackKindNames[:], int(k)) }
func (d DrumSlot) String() string  { return enumString(drumSlotNames[:], int(d)) }

func (w Waveform) MarshalText() ([]byte, error)  { return enumMarshal(waveformNames[:], int(w)) }
func (k TrackKind) MarshalText() ([]byte, error) { return enumMarshal(trackKindNames[:], int(k)) }
func (d DrumSlot) MarshalText() ([]byte, error)  { return enumMarshal(drumSlotNames[:], int(d)) }

func (w *Waveform) UnmarshalText(b []byte) error {
	i, err := enumUnmarshal(waveformNames[:], "waveform", b)
	*w = Waveform(i)
	return err
}

func (k *TrackKind) UnmarshalText(b []byte) error {
	i, err := enumUnmarshal(trackKindNames[:], "track kind", b)
	*k = TrackKind(i)
	return err
}

func (d *DrumSlot) UnmarshalText(b []byte) error {
	i, err := enumUnmarshal(drumSlotNames[:], "drum slot", b)
	*d = DrumSlot(i)
	return err
}

// ParseWaveform accepts the lowercase name of a waveform.
func ParseWaveform(s string) (Waveform, error) {
	var w Waveform
	err := w.UnmarshalText([]byte(s))
	return w, err
}

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

func enumMarshal(names []string, i int) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("enumeration value %d out of range: %w", i, ErrSchema)
	}
	return []byte(names[i]), nil
}

func enumUnmarshal(names []string, what string, b []byte) (int, error) {
	for i, n := range names {
		if n == string(b) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q: %w", what, b, ErrSchema)
}
