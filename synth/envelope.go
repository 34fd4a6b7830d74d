package synth

import "math"

// Envelope is the amplitude envelope of a voice: a short linear attack, an
// exponential decay over the whole voice and a short linear release into
// zero. The first and the last sample of the envelope are exactly zero.
type Envelope struct {
	pos     int
	length  int
	decayAt int // length the decay curve is computed over; fixed at creation
	attack  int
	release int
	decay   float64 // e-foldings over decayAt samples
}

const (
	attackSeconds  = 0.001
	releaseSeconds = 0.004
)

// NewEnvelope returns an envelope of length samples. The attack and release
// ramps are shortened for very short voices so they always fit.
func NewEnvelope(length, sampleRate int, decay float64) Envelope {
	attack := max(min(int(attackSeconds*float64(sampleRate)), length/4), 1)
	release := max(min(int(releaseSeconds*float64(sampleRate)), length/4), 1)
	return Envelope{length: length, decayAt: length, attack: attack, release: release, decay: decay}
}

// Next returns the gain of the current sample and advances. ok is false when
// the envelope has finished.
func (e *Envelope) Next() (gain float32, ok bool) {
	if e.pos >= e.length {
		return 0, false
	}
	i := e.pos
	e.pos++
	ramp := min(1, float64(i)/float64(e.attack), float64(e.length-1-i)/float64(e.release))
	return float32(ramp * math.Exp(-e.decay*float64(i)/float64(e.decayAt))), true
}

// Release shortens the envelope so that it ramps to zero within the release
// time, starting from the current position.
func (e *Envelope) Release() {
	e.length = min(e.length, e.pos+e.release)
}

// Remaining returns the number of samples left.
func (e *Envelope) Remaining() int {
	return max(e.length-e.pos, 0)
}

func (e *Envelope) Done() bool {
	return e.pos >= e.length
}
