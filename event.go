package neoretro

import (
	"fmt"
	"slices"
)

type (
	// Action is the kind of a trigger event.
	Action int

	// Event is a trigger: a live key press, a MIDI note or a replayed loop
	// event. Tick is the number of transport ticks since the loop recording
	// started; it is zero for live events until the recorder stamps them.
	Event struct {
		Tick     int
		Track    int
		Action   Action
		Note     int      `yaml:",omitempty"` // MIDI note, NoteOn/NoteOff only
		Velocity int      `yaml:",omitempty"`
		Slot     DrumSlot `yaml:",omitempty"` // DrumHit only
	}

	// Loop is a recorded event timeline, ordered by Tick. Length is the loop
	// length in ticks; playback wraps after Length ticks.
	Loop struct {
		Length int
		Events []Event
	}
)

const (
	NoteOn Action = iota
	NoteOff
	DrumHit
)

var actionNames = [...]string{"noteon", "noteoff", "drumhit"}

func (a Action) String() string               { return enumString(actionNames[:], int(a)) }
func (a Action) MarshalText() ([]byte, error) { return enumMarshal(actionNames[:], int(a)) }
func (a *Action) UnmarshalText(b []byte) error {
	i, err := enumUnmarshal(actionNames[:], "action", b)
	*a = Action(i)
	return err
}

// Validate checks the event parameters, independent of any song.
func (e Event) Validate() error {
	if e.Tick < 0 {
		return fmt.Errorf("negative event tick %d: %w", e.Tick, ErrInvalidParameter)
	}
	switch e.Action {
	case NoteOn, NoteOff:
		if e.Note < 0 || e.Note > 127 {
			return fmt.Errorf("note %d outside [0,127]: %w", e.Note, ErrInvalidParameter)
		}
	case DrumHit:
		if !e.Slot.Valid() {
			return fmt.Errorf("invalid drum slot %d: %w", e.Slot, ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("invalid action %d: %w", e.Action, ErrInvalidParameter)
	}
	if e.Action != NoteOff && (e.Velocity < 1 || e.Velocity > 127) {
		return fmt.Errorf("velocity %d outside [1,127]: %w", e.Velocity, ErrInvalidParameter)
	}
	return nil
}

// Copy makes a deep copy of a Loop.
func (l *Loop) Copy() Loop {
	return Loop{Length: l.Length, Events: slices.Clone(l.Events)}
}

// Sort orders the events by tick, keeping the order of simultaneous events.
func (l *Loop) Sort() {
	slices.SortStableFunc(l.Events, func(a, b Event) int { return a.Tick - b.Tick })
}

// At returns the events stamped with the given tick. The loop must be sorted.
func (l *Loop) At(tick int) []Event {
	i, _ := slices.BinarySearchFunc(l.Events, tick, func(e Event, t int) int { return e.Tick - t })
	j := i
	for j < len(l.Events) && l.Events[j].Tick == tick {
		j++
	}
	return l.Events[i:j]
}
