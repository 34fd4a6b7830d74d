package sequencer_test

import (
	"testing"
	"time"

	"github.com/tcsenpai/neoretro"
	"github.com/tcsenpai/neoretro/sequencer"
)

func TestRouteMIDI(t *testing.T) {
	song := neoretro.DefaultSong()
	tests := []struct {
		name string
		in   sequencer.MIDINoteEvent
		want neoretro.Event
		ok   bool
	}{
		{"kick", sequencer.MIDINoteEvent{On: true, Channel: 9, Note: 36, Velocity: 100}, neoretro.Event{Track: 0, Action: neoretro.DrumHit, Slot: neoretro.Kick, Velocity: 100}, true},
		{"clap folds to snare", sequencer.MIDINoteEvent{On: true, Channel: 9, Note: 39, Velocity: 64}, neoretro.Event{Track: 0, Action: neoretro.DrumHit, Slot: neoretro.Snare, Velocity: 64}, true},
		{"drum release ignored", sequencer.MIDINoteEvent{Channel: 9, Note: 36}, neoretro.Event{}, false},
		{"first synth", sequencer.MIDINoteEvent{On: true, Channel: 0, Note: 60, Velocity: 90}, neoretro.Event{Track: 2, Action: neoretro.NoteOn, Note: 60, Velocity: 90}, true},
		{"second synth off", sequencer.MIDINoteEvent{Channel: 1, Note: 61}, neoretro.Event{Track: 3, Action: neoretro.NoteOff, Note: 61}, true},
		{"unused channel", sequencer.MIDINoteEvent{On: true, Channel: 4, Note: 60, Velocity: 90}, neoretro.Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sequencer.RouteMIDI(&song, tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("expected %+v, %v; got %+v, %v", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestAlerts(t *testing.T) {
	var a sequencer.Alerts
	a.Add("hello", sequencer.Info)
	a.AddNamed("disk", "disk full", sequencer.Error)
	a.AddNamed("disk", "disk still full", sequencer.Error)
	if a.Len() != 2 {
		t.Fatalf("named alerts should replace each other, got %d alerts", a.Len())
	}
	var messages []string
	for alert := range a.Iterate() {
		messages = append(messages, alert.Message)
	}
	if len(messages) != 2 || messages[0] != "disk still full" {
		t.Fatalf("alerts should be ordered by priority, got %v", messages)
	}
	if !a.Update(time.Hour) || a.Len() != 0 {
		t.Fatalf("alerts should expire")
	}
}

func TestBrokerHelpers(t *testing.T) {
	c := make(chan int, 1)
	if !sequencer.TrySend(c, 1) || sequencer.TrySend(c, 2) {
		t.Fatalf("TrySend should succeed once on a channel of capacity 1")
	}
	if v, ok := sequencer.TimeoutReceive(c, time.Second); !ok || v != 1 {
		t.Fatalf("expected 1, got %v, %v", v, ok)
	}
	if _, ok := sequencer.TimeoutReceive(c, time.Millisecond); ok {
		t.Fatalf("receive from an empty channel should time out")
	}
	b := sequencer.NewBroker()
	buf := b.GetAudioBuffer()
	*buf = append(*buf, [2]float32{1, 1})
	b.PutAudioBuffer(buf)
	if got := b.GetAudioBuffer(); len(*got) != 0 {
		t.Fatalf("pooled buffers should be empty, got %d frames", len(*got))
	}
}
