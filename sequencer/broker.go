package sequencer

import (
	"sync"
	"time"

	"github.com/tcsenpai/neoretro"
)

type (
	// Broker is the message broker between the model (control thread) and the
	// player (audio thread). Communication is one channel per recipient:
	// ToPlayer carries edits, live events and transport commands, ToModel
	// carries the player status, alerts and recorded loops. Additionally, the
	// broker has a sync.Pool of *neoretro.AudioBuffers so that the player can
	// pass rendered audio to the model without allocating every block.
	Broker struct {
		ToModel  chan MsgToModel
		ToPlayer chan any

		bufferPool sync.Pool
	}

	// MsgToModel is a message sent to the model. The player status is sent
	// unboxed as it is sent after every block; infrequent messages are boxed
	// in Data.
	MsgToModel struct {
		HasStatus bool
		Status    PlayerStatus

		Data any
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:   make(chan any, 1024),
		ToModel:    make(chan MsgToModel, 1024),
		bufferPool: sync.Pool{New: func() any { return &neoretro.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an empty audio buffer from the buffer pool. After
// use, it should be returned to the pool with PutAudioBuffer.
func (b *Broker) GetAudioBuffer() *neoretro.AudioBuffer {
	return b.bufferPool.Get().(*neoretro.AudioBuffer)
}

// PutAudioBuffer returns a buffer to the pool. Its length is reset but the
// capacity kept.
func (b *Broker) PutAudioBuffer(buf *neoretro.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend sends a value to a channel if it is not full. It never blocks.
// Returns true if the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from the channel or t has
// passed. ok is false on timeout or if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
