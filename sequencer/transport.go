package sequencer

import (
	"fmt"
	"math"
	"time"

	"github.com/tcsenpai/neoretro"
)

type (
	// Transport is the shared clock of the sequencer. It counts steps with a
	// single global counter; a track of length n plays the step counter mod n,
	// so tracks of different lengths stay phase aligned. Each step is divided
	// into sub-ticks that clock the arpeggiator.
	//
	// The transport is driven by the audio thread: Advance moves it forward
	// by rendered frames, and Due / NextBoundary tell when a sub-tick boundary
	// is reached.
	Transport struct {
		bpm          float64
		stepsPerBeat int
		subTicks     int
		sampleRate   int

		running   bool
		step      int     // the global step counter; the next step to be fired
		sub       int     // the next sub-tick within the step
		untilNext float64 // frames until the next sub-tick boundary
		refs      []StepRef
	}

	// StepRef identifies the step of a track that became current on a tick.
	StepRef struct {
		Track int
		Index int
	}
)

func NewTransport(bpm float64, stepsPerBeat, subTicks, sampleRate int) (*Transport, error) {
	if stepsPerBeat < 1 || subTicks < 1 || sampleRate < 1 {
		return nil, fmt.Errorf("transport needs positive steps per beat, sub-ticks and sample rate: %w", neoretro.ErrInvalidParameter)
	}
	t := &Transport{stepsPerBeat: stepsPerBeat, subTicks: subTicks, sampleRate: sampleRate}
	if err := t.SetBPM(bpm); err != nil {
		return nil, err
	}
	return t, nil
}

// SetBPM changes the tempo. The position within the current sub-tick is kept:
// the remaining time until the next boundary is scaled by the change of the
// period. Returns ErrInvalidParameter for bpm <= 0 without changing anything.
func (t *Transport) SetBPM(bpm float64) error {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return fmt.Errorf("bpm %v must be positive: %w", bpm, neoretro.ErrInvalidParameter)
	}
	if t.bpm > 0 {
		t.untilNext *= t.bpm / bpm
	}
	t.bpm = bpm
	return nil
}

func (t *Transport) BPM() float64 { return t.bpm }

// StepSeconds is the tick period, 60 / (bpm * steps per beat).
func (t *Transport) StepSeconds() float64 {
	return 60 / (t.bpm * float64(t.stepsPerBeat))
}

// TickPeriod is StepSeconds as a time.Duration.
func (t *Transport) TickPeriod() time.Duration {
	return time.Duration(t.StepSeconds() * float64(time.Second))
}

func (t *Transport) SamplesPerStep() float64 {
	return t.StepSeconds() * float64(t.sampleRate)
}

func (t *Transport) SamplesPerSubTick() float64 {
	return t.SamplesPerStep() / float64(t.subTicks)
}

func (t *Transport) SubTicks() int { return t.subTicks }

// Start makes the transport run; the next step fires immediately.
func (t *Transport) Start() {
	if t.running {
		return
	}
	t.running = true
	t.sub = 0
	t.untilNext = 0
}

// Stop halts the transport. No further steps fire; the step counter is kept.
func (t *Transport) Stop() {
	t.running = false
}

// Rewind resets the step counter so the next step fired is step 0.
func (t *Transport) Rewind() {
	t.step = 0
	t.sub = 0
	t.untilNext = 0
}

func (t *Transport) Running() bool { return t.running }

// CurrentStep returns the global step counter: the number of steps fired
// since the last rewind.
func (t *Transport) CurrentStep() int { return t.step }

// Position returns the step of a track of the given length that fired last,
// i.e. the index Tick returned for it. Before the first step it is 0.
func (t *Transport) Position(length int) int {
	if length <= 0 || t.step == 0 {
		return 0
	}
	return (t.step - 1) % length
}

// Tick fires one step: it evaluates the current step of every track as the
// step counter mod the track length and advances the counter. The returned
// slice is reused by the next call.
func (t *Transport) Tick(tracks []neoretro.Track) []StepRef {
	t.refs = t.refs[:0]
	for i := range tracks {
		if idx := tracks[i].Steps.Phase(t.step); idx >= 0 {
			t.refs = append(t.refs, StepRef{Track: i, Index: idx})
		}
	}
	t.step++
	return t.refs
}

// Due reports whether a sub-tick boundary falls on the current frame.
func (t *Transport) Due() bool {
	return t.running && t.untilNext <= 0
}

// FramesUntilBoundary returns how many frames can be rendered before the next
// sub-tick boundary. A stopped transport never reaches a boundary.
func (t *Transport) FramesUntilBoundary() int {
	if !t.running {
		return math.MaxInt
	}
	return max(int(math.Ceil(t.untilNext)), 0)
}

// Advance moves the clock forward by n frames.
func (t *Transport) Advance(n int) {
	if t.running {
		t.untilNext -= float64(n)
	}
}

// NextBoundary consumes a due boundary and schedules the next one. step is
// true if the boundary starts a new step, in which case the caller should
// Tick.
func (t *Transport) NextBoundary() (step bool) {
	step = t.sub == 0
	t.sub = (t.sub + 1) % t.subTicks
	t.untilNext += t.SamplesPerSubTick()
	return step
}
