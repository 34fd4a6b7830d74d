package sequencer

import (
	"context"
	"fmt"
	"math"

	"github.com/tcsenpai/neoretro"
)

// Render renders steps steps of the song offline, through the same player
// used for live playback: the transport is started at step 0, the loop (if it
// has events) is replayed from the first step, and after the last step the
// voices are allowed to ring out for at most cfg.TailSeconds. steps <= 0
// renders one cycle of the longest track. ctx is checked between blocks;
// cancelling it aborts the render with ctx.Err().
func Render(ctx context.Context, song neoretro.Song, loop neoretro.Loop, cfg neoretro.Config, steps int) (neoretro.AudioBuffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := song.Validate(); err != nil {
		return nil, err
	}
	if steps <= 0 {
		steps = song.MaxLength()
	}
	broker := NewBroker()
	player, err := NewPlayer(broker, cfg, nil)
	if err != nil {
		return nil, err
	}
	player.setSong(song.Copy())
	if len(loop.Events) > 0 {
		player.recorder.SetLoop(loop)
		player.recorder.Play()
	}
	player.transport.Rewind()
	player.transport.Start()

	frames := int(math.Round(float64(steps) * player.transport.SamplesPerStep()))
	tail := int(cfg.TailSeconds * float64(cfg.SampleRate))
	out := make(neoretro.AudioBuffer, 0, frames+tail)
	block := make(neoretro.AudioBuffer, cfg.BufferSize)
	var alert error
	process := func(n int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		player.Process(block[:n], NullContext{})
		out = append(out, block[:n]...)
		alert = drain(broker, alert)
		return nil
	}
	for len(out) < frames {
		if err := process(min(len(block), frames-len(out))); err != nil {
			return nil, err
		}
	}
	player.stopTransport()
	player.recorder.Stop()
	for t := 0; t < tail && !player.Idle(); t += len(block) {
		if err := process(min(len(block), tail-t)); err != nil {
			return nil, err
		}
	}
	if alert != nil {
		return out, alert
	}
	return out, nil
}

// drain empties the model channel of a player that has no model, returning
// the borrowed buffers to the pool. The first error alert is kept.
func drain(broker *Broker, alert error) error {
	for {
		select {
		case msg := <-broker.ToModel:
			switch m := msg.Data.(type) {
			case *neoretro.AudioBuffer:
				broker.PutAudioBuffer(m)
			case Alert:
				if m.Priority == Error && alert == nil {
					alert = fmt.Errorf("render: %s", m.Message)
				}
			}
		default:
			return alert
		}
	}
}
