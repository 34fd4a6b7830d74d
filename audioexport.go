package neoretro

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WavFormat describes the sample format of an exported .wav file.
type WavFormat struct {
	SampleRate int
	Channels   int  // 1 = mono (left channel of the buffer), 2 = stereo
	PCM16      bool // true: int16 PCM, false: IEEE float32
}

// DefaultWavFormat is 44.1 kHz mono 16-bit PCM.
var DefaultWavFormat = WavFormat{SampleRate: 44100, Channels: 1, PCM16: true}

func (f WavFormat) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d: %w", f.SampleRate, ErrInvalidParameter)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%d channels, only mono or stereo supported: %w", f.Channels, ErrInvalidParameter)
	}
	return nil
}

// Wav converts an AudioBuffer into a valid WAV-file, returned as a []byte
// array. The same buffer and format always yield the same bytes.
func (buffer AudioBuffer) Wav(format WavFormat) ([]byte, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	wavHeader(len(buffer)*format.Channels, format, buf)
	if err := buffer.writeSamples(format, buf); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw converts an AudioBuffer into a raw audio file, returned as a []byte
// array.
func (buffer AudioBuffer) Raw(format WavFormat) ([]byte, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := buffer.writeSamples(format, buf); err != nil {
		return nil, fmt.Errorf("raw: %w", err)
	}
	return buf.Bytes(), nil
}

// writeSamples writes the interleaved samples; mono takes the left channel.
func (b AudioBuffer) writeSamples(format WavFormat, buf *bytes.Buffer) error {
	samples := make([]float32, 0, len(b)*format.Channels)
	for _, frame := range b {
		samples = append(samples, frame[:format.Channels]...)
	}
	if !format.PCM16 {
		return binary.Write(buf, binary.LittleEndian, samples)
	}
	pcm := make([]int16, len(samples))
	for i, v := range samples {
		pcm[i] = PCM16(v)
	}
	return binary.Write(buf, binary.LittleEndian, pcm)
}

// PCM16 converts a float sample in [-1,1] to int16, rounding to nearest and
// clamping out-of-range values.
func PCM16(v float32) int16 {
	if v != v { // NaN
		return 0
	}
	return int16(clamp(int(math.Round(float64(v)*math.MaxInt16)), -math.MaxInt16, math.MaxInt16))
}

// wavHeader writes the RIFF header for frames*format.Channels samples. Float
// files get the extended fmt chunk and a fact chunk.
func wavHeader(samples int, format WavFormat, buf *bytes.Buffer) {
	le := binary.LittleEndian
	width, tag, fmtSize, overhead := 4, uint16(3), uint32(18), 50 // IEEE float
	if format.PCM16 {
		width, tag, fmtSize, overhead = 2, 1, 16, 36
	}
	dataSize := uint32(width * samples)
	buf.WriteString("RIFF")
	binary.Write(buf, le, uint32(overhead)+dataSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, le, struct {
		Size           uint32
		Tag, Channels  uint16
		Rate, ByteRate uint32
		Align, Bits    uint16
	}{
		Size:     fmtSize,
		Tag:      tag,
		Channels: uint16(format.Channels),
		Rate:     uint32(format.SampleRate),
		ByteRate: uint32(format.SampleRate * format.Channels * width),
		Align:    uint16(format.Channels * width),
		Bits:     uint16(8 * width),
	})
	if !format.PCM16 {
		binary.Write(buf, le, uint16(0)) // no extension
		buf.WriteString("fact")
		binary.Write(buf, le, []uint32{4, uint32(samples / format.Channels)})
	}
	buf.WriteString("data")
	binary.Write(buf, le, dataSize)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
