package neoretro_test

import (
	"errors"
	"testing"

	"github.com/tcsenpai/neoretro"
)

func TestTrackResizePreservesSteps(t *testing.T) {
	for _, from := range []int{8, 13, 16, 32} {
		for to := neoretro.MinSteps; to <= neoretro.MaxSteps; to++ {
			track := neoretro.NewTrack("t", neoretro.SynthTrack, from)
			for i := range track.Steps {
				track.Steps[i] = neoretro.Step{Active: i%3 == 0, Pitch: i % 12, Velocity: 1 + i}
			}
			old := track.Copy()
			if err := track.Resize(to); err != nil {
				t.Fatalf("resize %d -> %d failed: %v", from, to, err)
			}
			if len(track.Steps) != to {
				t.Fatalf("resize %d -> %d: got length %d", from, to, len(track.Steps))
			}
			for i := range track.Steps {
				if i < min(from, to) && track.Steps[i] != old.Steps[i] {
					t.Fatalf("resize %d -> %d: step %d changed from %v to %v", from, to, i, old.Steps[i], track.Steps[i])
				}
				if i >= from && track.Steps[i].Active {
					t.Fatalf("resize %d -> %d: new step %d is active", from, to, i)
				}
			}
		}
	}
}

func TestTrackResizeOutOfRange(t *testing.T) {
	track := neoretro.NewTrack("t", neoretro.DrumTrack, 16)
	track.Steps[3] = neoretro.Step{Active: true, Velocity: 100, Slot: neoretro.Snare}
	for _, l := range []int{-1, 0, 7, 33, 64} {
		err := track.Resize(l)
		if !errors.Is(err, neoretro.ErrRange) {
			t.Fatalf("resize to %d: expected ErrRange, got %v", l, err)
		}
		if len(track.Steps) != 16 || !track.Steps[3].Active {
			t.Fatalf("failed resize to %d modified the track", l)
		}
	}
}

func TestTrackSetStepValidates(t *testing.T) {
	track := neoretro.NewTrack("t", neoretro.SynthTrack, 8)
	cases := []struct {
		name  string
		index int
		step  neoretro.Step
		want  error
	}{
		{"ok", 2, neoretro.Step{Active: true, Pitch: 4, Velocity: 90}, nil},
		{"index", 8, neoretro.Step{Active: true, Velocity: 90}, neoretro.ErrRange},
		{"negative index", -1, neoretro.Step{}, neoretro.ErrRange},
		{"velocity zero", 0, neoretro.Step{Active: true, Velocity: 0}, neoretro.ErrInvalidParameter},
		{"velocity high", 0, neoretro.Step{Active: true, Velocity: 128}, neoretro.ErrInvalidParameter},
		{"pitch", 0, neoretro.Step{Active: true, Pitch: -1, Velocity: 1}, neoretro.ErrInvalidParameter},
		{"note above 127", 0, neoretro.Step{Active: true, Pitch: 100, Velocity: 1}, neoretro.ErrInvalidParameter},
		{"slot", 0, neoretro.Step{Active: true, Velocity: 1, Slot: 7}, neoretro.ErrInvalidParameter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := track.Copy()
			err := track.SetStep(c.index, c.step)
			if c.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if track.Steps[c.index] != c.step {
					t.Fatalf("step not set")
				}
				return
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			for i := range before.Steps {
				if before.Steps[i] != track.Steps[i] {
					t.Fatalf("failed SetStep modified step %d", i)
				}
			}
		})
	}
}

func TestTrackNote(t *testing.T) {
	track := neoretro.NewTrack("t", neoretro.SynthTrack, 8)
	track.Octave = 3
	if n := track.Note(neoretro.Step{Pitch: 0}); n != 48 {
		t.Fatalf("C3 should be note 48, got %d", n)
	}
	if s := neoretro.NoteName(48); s != "C-3" {
		t.Fatalf("note 48 should be named C-3, got %q", s)
	}
	if s := neoretro.NoteName(61); s != "C#4" {
		t.Fatalf("note 61 should be named C#4, got %q", s)
	}
}

func TestPatternPhase(t *testing.T) {
	p := make(neoretro.Pattern, 12)
	for counter, want := range map[int]int{0: 0, 11: 11, 12: 0, 13: 1, 100: 4, -1: 11} {
		if got := p.Phase(counter); got != want {
			t.Fatalf("phase of %d in a 12 step pattern: got %d, want %d", counter, got, want)
		}
	}
	if got := p.Get(40); got.Active {
		t.Fatalf("out of range step should be inactive")
	}
}
