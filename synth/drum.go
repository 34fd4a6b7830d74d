package synth

import (
	"math"

	"github.com/tcsenpai/neoretro"
)

// drumRecipe is the fixed synthesis recipe of a kit slot.
type drumRecipe struct {
	seconds float64 // nominal length at sound length 10
	decay   float64 // e-foldings over the length
	gain    float32
}

var drumRecipes = [neoretro.NumDrumSlots]drumRecipe{
	neoretro.Kick:      {seconds: 0.25, decay: 6, gain: 1},
	neoretro.Snare:     {seconds: 0.18, decay: 9, gain: 0.8},
	neoretro.HiHat:     {seconds: 0.06, decay: 14, gain: 0.5},
	neoretro.OpenHiHat: {seconds: 0.30, decay: 4, gain: 0.45},
}

const (
	kickStartHz   = 150
	kickEndHz     = 45
	kickSweepTime = 0.03 // seconds for the kick pitch to fall by 1/e
	snareToneHz   = 185
	hihatHighpass = 0.92 // one-pole highpass coefficient
)

// drum is the oscillator state of a drum voice.
type drum struct {
	slot       neoretro.DrumSlot
	sampleRate float64
	t          int
	phase      float64
	noise      Noise
	hpIn       float32
	hpOut      float32
}

// DrumSamples returns the length in samples of a kit slot at the given track
// sound length; 10 is the nominal length.
func DrumSamples(slot neoretro.DrumSlot, soundLength, sampleRate int) int {
	return int(drumRecipes[slot].seconds * float64(soundLength) / 10 * float64(sampleRate))
}

func (d *drum) next() float32 {
	t := float64(d.t) / d.sampleRate
	d.t++
	switch d.slot {
	case neoretro.Kick:
		f := kickEndHz + (kickStartHz-kickEndHz)*math.Exp(-t/kickSweepTime)
		v := math.Sin(2 * math.Pi * d.phase)
		d.phase += f / d.sampleRate
		d.phase -= math.Floor(d.phase)
		return float32(v)
	case neoretro.Snare:
		tone := math.Sin(2 * math.Pi * snareToneHz * t)
		return 0.6*d.noise.Next() + float32(0.4*tone)
	case neoretro.HiHat, neoretro.OpenHiHat:
		x := d.noise.Next()
		d.hpOut = hihatHighpass * (d.hpOut + x - d.hpIn)
		d.hpIn = x
		return min(max(d.hpOut, -1), 1)
	}
	return 0
}
