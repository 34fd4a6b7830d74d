package neoretro

import (
	"encoding/binary"
	"io"
	"math"
)

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// AudioContext represents the low-level audio drivers. There should be at
	// most one AudioContext at a time. Play starts pulling little-endian
	// float32 stereo frames from r until it returns an error; the returned
	// CloserWaiter stops the playback.
	AudioContext interface {
		Play(r io.Reader) CloserWaiter
		Close() error
	}

	// CloserWaiter is a handle to a running audio stream: Close requests it
	// to stop and Wait blocks until it has.
	CloserWaiter interface {
		io.Closer
		Wait()
	}
)

// Fill sets both channels of every frame to v.
func (b AudioBuffer) Fill(v float32) {
	for i := range b {
		b[i] = [2]float32{v, v}
	}
}

// Mono returns the left channel of the buffer as a new slice.
func (b AudioBuffer) Mono() []float32 {
	ret := make([]float32, len(b))
	for i := range b {
		ret[i] = b[i][0]
	}
	return ret
}

// Source returns an io.Reader that yields the buffer as little-endian float32
// stereo frames and io.EOF at the end, suitable for an audio driver that
// pulls bytes.
func (b AudioBuffer) Source() io.Reader {
	return &bufferSource{buffer: b}
}

type bufferSource struct {
	buffer AudioBuffer
	pos    int // in bytes
}

func (s *bufferSource) Read(p []byte) (n int, err error) {
	total := len(s.buffer) * 8
	if s.pos >= total {
		return 0, io.EOF
	}
	for n+4 <= len(p) && s.pos < total {
		frame := s.buffer[s.pos/8]
		v := frame[(s.pos%8)/4]
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(v))
		n += 4
		s.pos += 4
	}
	return n, nil
}

// Stream returns an io.Reader that calls render for blocks of blockSize
// frames whenever the previous block has been consumed. An error from render
// ends the stream with that error.
func Stream(render func(buf AudioBuffer) error, blockSize int) io.Reader {
	return &renderSource{render: render, buf: make(AudioBuffer, max(blockSize, 1))}
}

type renderSource struct {
	render func(buf AudioBuffer) error
	buf    AudioBuffer
	src    bufferSource
}

func (s *renderSource) Read(p []byte) (n int, err error) {
	if s.src.pos >= len(s.src.buffer)*8 {
		if err := s.render(s.buf); err != nil {
			return 0, err
		}
		s.src = bufferSource{buffer: s.buf}
	}
	return s.src.Read(p)
}
