package synth

import (
	"log"
	"math"

	"github.com/tcsenpai/neoretro"
	"github.com/viterin/vek/vek32"
)

// Mixer owns the set of sounding voices. Render advances every voice by the
// length of the buffer, sums them scaled by their track volumes, soft clips
// the sum and prunes the voices that finished.
type Mixer struct {
	voices  []*Voice
	volumes [neoretro.MaxTracks]float32
	sum     []float32
	tmp     []float32
	peak    float32
	spawned int
	dropped int

	// Logger receives a line for every dropped voice. nil discards.
	Logger *log.Logger
}

const (
	// MaxVoices is the polyphony; triggering beyond it releases the oldest
	// voice.
	MaxVoices = 64

	// Headroom is the master gain applied before the soft clipper.
	Headroom = 0.6
)

func NewMixer(logger *log.Logger) *Mixer {
	m := &Mixer{Logger: logger}
	for i := range m.volumes {
		m.volumes[i] = 1
	}
	return m
}

// SetVolume sets the linear gain of a track, clamped to [0, 1].
func (m *Mixer) SetVolume(track int, gain float32) {
	if track < 0 || track >= len(m.volumes) {
		return
	}
	if gain != gain {
		gain = 0
	}
	m.volumes[track] = min(max(gain, 0), 1)
}

// Trigger adds the voice to the active set. Malformed voices are dropped and
// logged; Trigger reports whether the voice was accepted.
func (m *Mixer) Trigger(v *Voice) bool {
	if !v.Valid() {
		m.drop("malformed voice")
		return false
	}
	if len(m.voices) >= 2*MaxVoices {
		m.drop("voice limit reached")
		return false
	}
	if len(m.voices) >= MaxVoices {
		for _, old := range m.voices {
			if old.Remaining() > old.env.release {
				old.Release()
				break
			}
		}
	}
	m.voices = append(m.voices, v)
	m.spawned++
	return true
}

func (m *Mixer) drop(reason string) {
	m.dropped++
	if m.Logger != nil {
		m.Logger.Printf("mixer: dropped voice: %s", reason)
	}
}

// Release fades out the voices of the track playing the note.
func (m *Mixer) Release(track, note int) {
	for _, v := range m.voices {
		if v.Track == track && v.Note == note {
			v.Release()
		}
	}
}

// ReleaseTrack fades out all voices of the track.
func (m *Mixer) ReleaseTrack(track int) {
	for _, v := range m.voices {
		if v.Track == track {
			v.Release()
		}
	}
}

// ReleaseAll fades out every voice.
func (m *Mixer) ReleaseAll() {
	for _, v := range m.voices {
		v.Release()
	}
}

// Render mixes the next len(buf) frames into buf, overwriting it. The output
// is mono, written to both channels. With no voices the buffer is silent.
func (m *Mixer) Render(buf neoretro.AudioBuffer) {
	n := len(buf)
	if len(m.sum) < n {
		m.sum = append(m.sum, make([]float32, n-len(m.sum))...)
	}
	if len(m.tmp) < n {
		m.tmp = append(m.tmp, make([]float32, n-len(m.tmp))...)
	}
	sum := vek32.Zeros_Into(m.sum, n)
	alive := m.voices[:0]
	for _, v := range m.voices {
		k := v.Render(m.tmp[:n])
		if vol := m.volumes[v.Track]; k > 0 && vol > 0 {
			vek32.MulNumber_Inplace(m.tmp[:k], vol*Headroom)
			vek32.Add_Inplace(sum[:k], m.tmp[:k])
		}
		if k == n && !v.Done() {
			alive = append(alive, v)
		}
	}
	for i := len(alive); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = alive
	for i, x := range sum {
		var y float32
		if x == x { // NaN from a broken voice mixes as silence
			y = min(max(float32(math.Tanh(float64(x))), -1), 1)
		}
		buf[i] = [2]float32{y, y}
		m.tmp[i] = y
	}
	if n > 0 {
		vek32.Abs_Inplace(m.tmp[:n])
		m.peak = vek32.Max(m.tmp[:n])
	} else {
		m.peak = 0
	}
}

// NumVoices returns the number of sounding voices.
func (m *Mixer) NumVoices() int { return len(m.voices) }

// Spawned returns the number of voices accepted since the mixer was created.
func (m *Mixer) Spawned() int { return m.spawned }

// Dropped returns the number of voices rejected since the mixer was created.
func (m *Mixer) Dropped() int { return m.dropped }

// Peak returns the absolute peak of the last rendered buffer.
func (m *Mixer) Peak() float32 { return m.peak }

// Reset silences the mixer immediately, dropping all voices.
func (m *Mixer) Reset() {
	clear(m.voices)
	m.voices = m.voices[:0]
}
