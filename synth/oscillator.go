package synth

import (
	"math"

	"github.com/tcsenpai/neoretro"
)

// Oscillator generates a periodic waveform at a fixed frequency. The noise
// waveform is sample-and-hold noise clocked at noiseRate times the
// frequency, so that it follows the pitch of the note.
type Oscillator struct {
	Waveform neoretro.Waveform

	phase      float64
	omega      float64 // phase increment per sample, in cycles
	noisePhase float64
	noise      Noise
	hold       float32
}

const (
	squareDuty = 0.5
	pulseDuty  = 0.25
	noiseRate  = 8
)

// NoteFrequency returns the equal tempered frequency of a MIDI note, A4 (69)
// being 440 Hz.
func NoteFrequency(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}

func NewOscillator(w neoretro.Waveform, frequency float64, sampleRate int, seed uint32) Oscillator {
	o := Oscillator{Waveform: w, omega: frequency / float64(sampleRate), noise: NewNoise(seed)}
	o.hold = o.noise.Next()
	return o
}

// Next returns the next sample, in [-1, 1].
func (o *Oscillator) Next() float32 {
	phase := o.phase
	o.phase += o.omega
	o.phase -= math.Floor(o.phase)
	switch o.Waveform {
	case neoretro.Triangle:
		// starts at 0, peaks at quarter period
		p := phase + 0.25
		p -= math.Floor(p)
		if p >= 0.5 {
			p = 1 - p
		}
		return float32(p*4 - 1)
	case neoretro.Square:
		if phase < squareDuty {
			return 1
		}
		return -1
	case neoretro.Pulse:
		if phase < pulseDuty {
			return 1
		}
		return -1
	case neoretro.Noise:
		o.noisePhase += o.omega * noiseRate
		if o.noisePhase >= 1 {
			o.noisePhase -= math.Floor(o.noisePhase)
			o.hold = o.noise.Next()
		}
		return o.hold
	}
	return 0
}
