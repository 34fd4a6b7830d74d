package oto

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/tcsenpai/neoretro"
)

// OtoContext plays little-endian float32 stereo streams on the default audio
// device.
type OtoContext struct {
	context *oto.Context
}

type otoPlayer struct {
	player *oto.Player
	once   sync.Once
}

// NewContext opens the audio device. bufferSize is the number of frames oto
// buffers ahead; zero lets oto decide.
func NewContext(sampleRate, bufferSize int) (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(max(sampleRate, 1)),
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

// Play starts pulling audio from r until it returns an error.
func (c *OtoContext) Play(r io.Reader) neoretro.CloserWaiter {
	p := c.context.NewPlayer(r)
	p.Play()
	return &otoPlayer{player: p}
}

// Close suspends the device; oto contexts cannot be reopened in the same
// process.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Wait blocks until the reader has ended and the buffered audio has played.
func (o *otoPlayer) Wait() {
	for o.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}

func (o *otoPlayer) Close() (err error) {
	o.once.Do(func() {
		o.player.Pause()
		if e := o.player.Close(); e != nil {
			err = fmt.Errorf("cannot close oto player: %w", e)
		}
	})
	return err
}
