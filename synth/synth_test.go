package synth_test

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/tcsenpai/neoretro"
	"github.com/tcsenpai/neoretro/synth"
)

const (
	sampleRate     = 44100
	clickThreshold = 1e-3
)

func allVoices(t *testing.T) map[string]*synth.Voice {
	t.Helper()
	ret := map[string]*synth.Voice{}
	for w := neoretro.Triangle; w < neoretro.NumWaveforms; w++ {
		for _, length := range []int{1, 10, 99} {
			for _, note := range []int{24, 48, 69, 108} {
				v, err := synth.NewSynthVoice(0, w, note, 127, synth.SynthSamples(length, sampleRate), sampleRate, 1)
				if err != nil {
					t.Fatalf("NewSynthVoice failed: %v", err)
				}
				ret[fmt.Sprintf("%v/%d/%d", w, note, length)] = v
			}
		}
	}
	for d := neoretro.Kick; d < neoretro.NumDrumSlots; d++ {
		for _, length := range []int{1, 10, 99} {
			v, err := synth.NewDrumVoice(1, d, 127, length, sampleRate, 7)
			if err != nil {
				t.Fatalf("NewDrumVoice failed: %v", err)
			}
			ret[fmt.Sprintf("%v/%d", d, length)] = v
		}
	}
	return ret
}

func TestVoiceBoundariesAreSilent(t *testing.T) {
	for name, v := range allVoices(t) {
		samples := slices.Collect(v.Samples())
		if len(samples) < 2 {
			t.Fatalf("%s: voice rendered only %d samples", name, len(samples))
		}
		first, last := samples[0], samples[len(samples)-1]
		if math.Abs(float64(first)) > clickThreshold || math.Abs(float64(last)) > clickThreshold {
			t.Fatalf("%s: boundary samples %v, %v exceed %v", name, first, last, clickThreshold)
		}
		for i, s := range samples {
			if s != s || s < -1 || s > 1 {
				t.Fatalf("%s: sample %d is %v", name, i, s)
			}
		}
		if !v.Done() {
			t.Fatalf("%s: voice should be done after all samples", name)
		}
	}
}

func TestReleasedVoiceEndsSilently(t *testing.T) {
	v, err := synth.NewSynthVoice(0, neoretro.Square, 60, 127, sampleRate, sampleRate, 1)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 1000)
	v.Render(buf)
	v.Release()
	rest := slices.Collect(v.Samples())
	if len(rest) == 0 || len(rest) > sampleRate/100 {
		t.Fatalf("released voice should end within the release time, got %d samples", len(rest))
	}
	if last := rest[len(rest)-1]; math.Abs(float64(last)) > clickThreshold {
		t.Fatalf("released voice ends at %v", last)
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	render := func(seed uint32) []float32 {
		v, err := synth.NewSynthVoice(0, neoretro.Noise, 60, 100, 2000, sampleRate, seed)
		if err != nil {
			t.Fatal(err)
		}
		return slices.Collect(v.Samples())
	}
	if !slices.Equal(render(3), render(3)) {
		t.Fatalf("same seed should render the same noise")
	}
	if slices.Equal(render(3), render(5)) {
		t.Fatalf("different seeds should render different noise")
	}
}

func TestOscillatorPeriod(t *testing.T) {
	// exactly 64 samples per period
	const freq = sampleRate / 64.0
	o := synth.NewOscillator(neoretro.Square, freq, sampleRate, 1)
	positive := 0
	for range 64 {
		if o.Next() > 0 {
			positive++
		}
	}
	if positive != 32 {
		t.Fatalf("square wave should be high half of the period, got %d/64", positive)
	}
	p := synth.NewOscillator(neoretro.Pulse, freq, sampleRate, 1)
	positive = 0
	for range 64 {
		if p.Next() > 0 {
			positive++
		}
	}
	if positive != 16 {
		t.Fatalf("pulse wave should be high a quarter of the period, got %d/64", positive)
	}
	if f := synth.NoteFrequency(69); f != 440 {
		t.Fatalf("A4 should be 440 Hz, got %v", f)
	}
}

func TestInvalidVoices(t *testing.T) {
	if _, err := synth.NewSynthVoice(0, neoretro.Triangle, 128, 100, 100, sampleRate, 1); err == nil {
		t.Fatalf("note 128 should fail")
	}
	if _, err := synth.NewSynthVoice(0, neoretro.Triangle, 60, 0, 100, sampleRate, 1); err == nil {
		t.Fatalf("velocity 0 should fail")
	}
	if _, err := synth.NewSynthVoice(0, neoretro.Waveform(9), 60, 100, 100, sampleRate, 1); err == nil {
		t.Fatalf("invalid waveform should fail")
	}
	if _, err := synth.NewDrumVoice(0, neoretro.DrumSlot(4), 100, 10, sampleRate, 1); err == nil {
		t.Fatalf("invalid drum slot should fail")
	}
}

func TestMixerFiveVoicesStayInRange(t *testing.T) {
	m := synth.NewMixer(nil)
	for i, w := range []neoretro.Waveform{neoretro.Square, neoretro.Square, neoretro.Pulse, neoretro.Noise, neoretro.Triangle} {
		v, err := synth.NewSynthVoice(i, w, 36+i, 127, sampleRate/2, sampleRate, uint32(i))
		if err != nil {
			t.Fatal(err)
		}
		if !m.Trigger(v) {
			t.Fatalf("voice %d not accepted", i)
		}
	}
	buf := make(neoretro.AudioBuffer, 512)
	loud := false
	for range sampleRate / 2 / 512 {
		m.Render(buf)
		for i, f := range buf {
			if f[0] < -1 || f[0] > 1 || f[0] != f[1] {
				t.Fatalf("frame %d out of range: %v", i, f)
			}
		}
		if m.Peak() > 0.9 {
			loud = true
		}
	}
	if !loud {
		t.Fatalf("five full velocity voices should drive the clipper")
	}
}

func TestMixerSilence(t *testing.T) {
	m := synth.NewMixer(nil)
	buf := make(neoretro.AudioBuffer, 64)
	buf.Fill(0.5)
	m.Render(buf)
	for i, f := range buf {
		if f != [2]float32{} {
			t.Fatalf("frame %d should be silent, got %v", i, f)
		}
	}
	if m.Peak() != 0 {
		t.Fatalf("peak of silence should be 0, got %v", m.Peak())
	}
}

func TestMixerPrunesAndDrops(t *testing.T) {
	var logged bytes.Buffer
	m := synth.NewMixer(log.New(&logged, "", 0))
	v, err := synth.NewDrumVoice(2, neoretro.HiHat, 100, 1, sampleRate, 1)
	if err != nil {
		t.Fatal(err)
	}
	m.Trigger(v)
	if m.Trigger(nil) || m.Trigger(&synth.Voice{Track: -1}) {
		t.Fatalf("malformed voices should be dropped")
	}
	if m.Dropped() != 2 || !strings.Contains(logged.String(), "dropped voice") {
		t.Fatalf("dropped voices should be counted and logged, got %d, %q", m.Dropped(), logged.String())
	}
	buf := make(neoretro.AudioBuffer, 1024)
	m.Render(buf)
	if m.NumVoices() != 0 {
		t.Fatalf("finished voice should be pruned, %d left", m.NumVoices())
	}
	if m.Spawned() != 1 {
		t.Fatalf("expected 1 spawned voice, got %d", m.Spawned())
	}
}

func TestMixerVolume(t *testing.T) {
	render := func(gain float32) float32 {
		m := synth.NewMixer(nil)
		m.SetVolume(0, gain)
		v, _ := synth.NewSynthVoice(0, neoretro.Square, 60, 64, 4000, sampleRate, 1)
		m.Trigger(v)
		buf := make(neoretro.AudioBuffer, 2000)
		m.Render(buf)
		return m.Peak()
	}
	if p := render(0); p != 0 {
		t.Fatalf("muted track should be silent, got peak %v", p)
	}
	if quiet, loud := render(0.2), render(1); !(quiet < loud) {
		t.Fatalf("lower volume should be quieter: %v vs %v", quiet, loud)
	}
}
