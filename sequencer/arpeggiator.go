package sequencer

import (
	"fmt"
	"slices"

	"github.com/tcsenpai/neoretro"
)

type (
	// Arpeggiator expands held notes into a cyclic sequence of pitches: on
	// every sub-tick each held note emits its base pitch plus the pattern
	// offset under the cursor, and the cursor advances with wraparound. The
	// cursor is shared by all held notes.
	Arpeggiator struct {
		pattern []int
		enabled bool
		cursor  int
		held    []heldNote
	}

	heldNote struct {
		track, note, velocity int
		remaining             int // sub-ticks until the note is released
	}

	// NoteRequest asks for a voice to be spawned.
	NoteRequest struct {
		Track, Note, Velocity int
	}
)

func NewArpeggiator(pattern []int) (*Arpeggiator, error) {
	a := &Arpeggiator{}
	if err := a.SetPattern(pattern); err != nil {
		return nil, err
	}
	return a, nil
}

// SetPattern replaces the offsets. An empty pattern or offsets beyond
// MaxArpeggioOffset are rejected with ErrInvalidParameter.
func (a *Arpeggiator) SetPattern(pattern []int) error {
	if len(pattern) == 0 {
		return fmt.Errorf("empty arpeggio pattern: %w", neoretro.ErrInvalidParameter)
	}
	for _, o := range pattern {
		if o < -neoretro.MaxArpeggioOffset || o > neoretro.MaxArpeggioOffset {
			return fmt.Errorf("arpeggio offset %d outside [%d,%d]: %w", o, -neoretro.MaxArpeggioOffset, neoretro.MaxArpeggioOffset, neoretro.ErrInvalidParameter)
		}
	}
	a.pattern = slices.Clone(pattern)
	a.cursor %= len(a.pattern)
	return nil
}

func (a *Arpeggiator) Pattern() []int { return slices.Clone(a.pattern) }

// SetEnabled turns the arpeggiator on or off. Disabling drops the held notes;
// enabling again starts from the beginning of the pattern.
func (a *Arpeggiator) SetEnabled(on bool) {
	if on && !a.enabled {
		a.cursor = 0
	}
	if !on {
		a.held = a.held[:0]
	}
	a.enabled = on
}

func (a *Arpeggiator) Enabled() bool { return a.enabled }

func (a *Arpeggiator) Cursor() int { return a.cursor }

// Hold makes the note of the track the base of the arpeggio for the given
// number of sub-ticks. A track holds at most one note; a new note replaces
// the previous one.
func (a *Arpeggiator) Hold(track, note, velocity, subTicks int) {
	h := heldNote{track: track, note: note, velocity: velocity, remaining: max(subTicks, 1)}
	for i := range a.held {
		if a.held[i].track == track {
			a.held[i] = h
			return
		}
	}
	a.held = append(a.held, h)
}

// Unhold releases the note if the track holds it.
func (a *Arpeggiator) Unhold(track, note int) {
	a.held = slices.DeleteFunc(a.held, func(h heldNote) bool { return h.track == track && h.note == note })
}

// ReleaseTrack releases whatever the track holds.
func (a *Arpeggiator) ReleaseTrack(track int) {
	a.held = slices.DeleteFunc(a.held, func(h heldNote) bool { return h.track == track })
}

// Holding reports whether any note is held.
func (a *Arpeggiator) Holding() bool { return len(a.held) > 0 }

// SubTick appends to dst one note per held note, base + pattern[cursor], and
// advances the cursor. Notes falling outside the MIDI range are skipped. With
// nothing held the cursor returns to the start of the pattern.
func (a *Arpeggiator) SubTick(dst []NoteRequest) []NoteRequest {
	if !a.enabled || len(a.held) == 0 {
		a.cursor = 0
		return dst
	}
	offset := a.pattern[a.cursor]
	for _, h := range a.held {
		if n := h.note + offset; n >= 0 && n <= 127 {
			dst = append(dst, NoteRequest{Track: h.track, Note: n, Velocity: h.velocity})
		}
	}
	a.cursor = (a.cursor + 1) % len(a.pattern)
	for i := range a.held {
		a.held[i].remaining--
	}
	a.held = slices.DeleteFunc(a.held, func(h heldNote) bool { return h.remaining <= 0 })
	return dst
}
