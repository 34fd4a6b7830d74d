package sequencer

import (
	"github.com/tcsenpai/neoretro"
)

type (
	// LoopRecorder captures trigger events stamped with the step of the take
	// they fall in, and replays them in sync with the transport. Each
	// recording replaces the previous loop.
	//
	// TODO: overdub, i.e. appending a new take on top of the existing loop,
	// would need a merge of the event lists in StartRecording.
	LoopRecorder struct {
		state    RecorderState
		loop     neoretro.Loop
		ticks    int // steps started since the take began
		playTick int
	}

	RecorderState int
)

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
	RecorderPlaying
)

func (s RecorderState) String() string {
	switch s {
	case RecorderRecording:
		return "recording"
	case RecorderPlaying:
		return "playing"
	}
	return "idle"
}

func (r *LoopRecorder) State() RecorderState { return r.state }

// StartRecording discards the current loop and starts a new take. The first
// step boundary after this is tick 0 of the take.
func (r *LoopRecorder) StartRecording() {
	r.loop = neoretro.Loop{}
	r.ticks = 0
	r.state = RecorderRecording
}

// StopRecording ends the take. The loop length is the number of steps started
// during the take, and at least covers the tick of the last event.
func (r *LoopRecorder) StopRecording() {
	if r.state != RecorderRecording {
		return
	}
	length := r.ticks
	if n := len(r.loop.Events); n > 0 {
		length = max(length, r.loop.Events[n-1].Tick+1)
	}
	r.loop.Length = max(length, 1)
	r.state = RecorderIdle
}

// Play starts replaying the loop from its first tick. Returns false if there
// is nothing to play.
func (r *LoopRecorder) Play() bool {
	if r.state == RecorderRecording || len(r.loop.Events) == 0 {
		return false
	}
	r.playTick = 0
	r.state = RecorderPlaying
	return true
}

// Stop ends playback. A recording in progress is stopped too.
func (r *LoopRecorder) Stop() {
	r.StopRecording()
	r.state = RecorderIdle
}

// Clear discards the loop and stops.
func (r *LoopRecorder) Clear() {
	r.loop = neoretro.Loop{}
	r.state = RecorderIdle
}

// SetLoop replaces the loop, e.g. with one loaded from disk.
func (r *LoopRecorder) SetLoop(l neoretro.Loop) {
	r.loop = l.Copy()
	r.loop.Sort()
	if r.loop.Length <= 0 && len(r.loop.Events) > 0 {
		r.loop.Length = r.loop.Events[len(r.loop.Events)-1].Tick + 1
	}
	r.playTick = 0
	if r.state == RecorderRecording {
		r.state = RecorderIdle
	}
}

// Loop returns a copy of the recorded loop.
func (r *LoopRecorder) Loop() neoretro.Loop { return r.loop.Copy() }

func (r *LoopRecorder) NumEvents() int { return len(r.loop.Events) }

func (r *LoopRecorder) Length() int {
	if r.state == RecorderRecording {
		return r.ticks
	}
	return r.loop.Length
}

// Record appends the event stamped with the step it falls in. Events before
// the first step of the take go to tick 0. Ignored unless recording.
func (r *LoopRecorder) Record(ev neoretro.Event) {
	if r.state != RecorderRecording {
		return
	}
	ev.Tick = max(r.ticks-1, 0)
	r.loop.Events = append(r.loop.Events, ev)
}

// Tick is called on every step boundary, before the step's own triggers.
// While recording it starts the next tick of the take; while playing it emits
// the events of the current loop tick.
func (r *LoopRecorder) Tick(emit func(neoretro.Event)) {
	switch r.state {
	case RecorderRecording:
		r.ticks++
	case RecorderPlaying:
		if r.playTick >= r.loop.Length {
			r.playTick = 0
		}
		for _, ev := range r.loop.At(r.playTick) {
			emit(ev)
		}
		r.playTick++
	}
}
