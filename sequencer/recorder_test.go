package sequencer_test

import (
	"testing"

	"github.com/tcsenpai/neoretro"
	"github.com/tcsenpai/neoretro/sequencer"
)

func TestRecorderReplaysAtRecordedTick(t *testing.T) {
	var r sequencer.LoopRecorder
	r.StartRecording()
	for range 3 {
		r.Tick(nil)
	}
	r.Record(neoretro.Event{Track: 1, Action: neoretro.DrumHit, Slot: neoretro.Kick, Velocity: 100})
	r.Tick(nil)
	r.StopRecording()
	if r.State() != sequencer.RecorderIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
	l := r.Loop()
	// the event falls in the third step of the take
	if len(l.Events) != 1 || l.Events[0].Tick != 2 || l.Length != 4 {
		t.Fatalf("unexpected loop %+v", l)
	}
	if !r.Play() {
		t.Fatalf("Play should succeed with a recorded event")
	}
	var hits []int
	for tick := range 10 {
		r.Tick(func(ev neoretro.Event) {
			if ev.Action != neoretro.DrumHit || ev.Track != 1 || ev.Slot != neoretro.Kick {
				t.Fatalf("unexpected replayed event %+v", ev)
			}
			hits = append(hits, tick)
		})
	}
	if len(hits) != 2 || hits[0] != 2 || hits[1] != 6 {
		t.Fatalf("expected replays at ticks 2 and 6, got %v", hits)
	}
}

func TestRecorderStampsStepIndex(t *testing.T) {
	var r sequencer.LoopRecorder
	r.StartRecording()
	hit := neoretro.Event{Track: 0, Action: neoretro.DrumHit, Velocity: 100}
	r.Record(hit) // before the first boundary
	for step := range 8 {
		r.Tick(nil)
		if step == 0 || step == 7 {
			r.Record(hit)
		}
	}
	r.StopRecording()
	l := r.Loop()
	var ticks []int
	for _, ev := range l.Events {
		ticks = append(ticks, ev.Tick)
	}
	if len(ticks) != 3 || ticks[0] != 0 || ticks[1] != 0 || ticks[2] != 7 {
		t.Fatalf("expected ticks [0 0 7], got %v", ticks)
	}
	if l.Length != 8 {
		t.Fatalf("an 8 step take should be 8 ticks long, got %d", l.Length)
	}
}

func TestRecorderOverwritesAndClears(t *testing.T) {
	var r sequencer.LoopRecorder
	r.Record(neoretro.Event{Action: neoretro.DrumHit, Velocity: 1})
	if r.NumEvents() != 0 {
		t.Fatalf("events should be ignored while idle")
	}
	r.StartRecording()
	r.Record(neoretro.Event{Action: neoretro.DrumHit, Velocity: 1})
	r.StopRecording()
	r.StartRecording()
	r.Tick(nil)
	r.Record(neoretro.Event{Action: neoretro.DrumHit, Slot: neoretro.Snare, Velocity: 1})
	r.StopRecording()
	if l := r.Loop(); len(l.Events) != 1 || l.Events[0].Slot != neoretro.Snare {
		t.Fatalf("a new recording should replace the previous loop, got %+v", l)
	}
	r.Play()
	r.Clear()
	if r.State() != sequencer.RecorderIdle || r.NumEvents() != 0 {
		t.Fatalf("Clear should discard the loop and stop, got %v with %d events", r.State(), r.NumEvents())
	}
	if r.Play() {
		t.Fatalf("Play should fail with an empty loop")
	}
}
