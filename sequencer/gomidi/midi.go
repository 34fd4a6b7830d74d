//go:build cgo

package gomidi

import (
	"errors"
	"fmt"

	"github.com/tcsenpai/neoretro/sequencer"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext feeds notes from the open rtmidi input to the player.
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		inputDevices       []RTMIDIDevice
		devicesInitialized bool
		events             chan timestampedMsg
		eventsBuf          []timestampedMsg
		eventIndex         int
		startFrame         int
		startFrameSet      bool
		sampleRate         int
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		frame int
		msg   midi.Message
	}
)

// NewContext opens the rtmidi driver. If that fails, the context has no
// inputs and Support reports MIDISupportNoDriver.
func NewContext(sampleRate int) *RTMIDIContext {
	m := RTMIDIContext{events: make(chan timestampedMsg, 1024), sampleRate: sampleRate}
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Inputs(yield func(sequencer.MIDIInputDevice) bool) {
	if m.devicesInitialized {
		for _, device := range m.inputDevices {
			if !yield(device) {
				return
			}
		}
		return
	}
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
	}
	m.devicesInitialized = true
	for _, device := range m.inputDevices {
		if !yield(device) {
			return
		}
	}
}

func (m *RTMIDIContext) Support() sequencer.MIDISupport {
	if m.driver == nil {
		return sequencer.MIDISupportNoDriver
	}
	return sequencer.MIDISupported
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	if m.currentIn != nil && m.currentIn.IsOpen() {
		m.currentIn.Close()
	}
	m.driver.Close()
}

// Open opens the input, closing the previously open one.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in && d.in.IsOpen() {
		return nil
	}
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, c.HandleMessage); err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn == d.in {
		d.context.currentIn = nil
	}
	return d.in.Close()
}

func (d RTMIDIDevice) IsOpen() bool   { return d.in.IsOpen() }
func (d RTMIDIDevice) String() string { return d.in.String() }

// HandleMessage is called by the driver goroutine. Messages are dropped when
// the player falls behind.
func (m *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	select {
	case m.events <- timestampedMsg{frame: int(int64(timestampms) * int64(m.sampleRate) / 1000), msg: msg}:
	default:
	}
}

func (c *RTMIDIContext) NextEvent(frame int) (event sequencer.MIDINoteEvent, ok bool) {
F:
	for {
		select {
		case msg := <-c.events:
			c.eventsBuf = append(c.eventsBuf, msg)
			if !c.startFrameSet {
				c.startFrame = msg.frame
				c.startFrameSet = true
			}
		default:
			break F
		}
	}
	if c.eventIndex > 0 {
		// events consumed late pull the clock towards them
		delta := frame + c.startFrame - c.eventsBuf[c.eventIndex-1].frame
		c.startFrame -= delta / 5
	}
	for c.eventIndex < len(c.eventsBuf) {
		var channel, key, velocity uint8
		m := c.eventsBuf[c.eventIndex]
		c.eventIndex++
		if m.msg.GetNoteStart(&channel, &key, &velocity) {
			return sequencer.MIDINoteEvent{Frame: m.frame - c.startFrame, On: true, Channel: int(channel), Note: key, Velocity: velocity}, true
		}
		if m.msg.GetNoteEnd(&channel, &key) {
			return sequencer.MIDINoteEvent{Frame: m.frame - c.startFrame, Channel: int(channel), Note: key}, true
		}
	}
	c.eventIndex = len(c.eventsBuf) + 1
	return sequencer.MIDINoteEvent{}, false
}

func (c *RTMIDIContext) FinishBlock(frame int) {
	c.startFrame += frame
	if c.eventIndex > 0 {
		copy(c.eventsBuf, c.eventsBuf[c.eventIndex-1:])
		c.eventsBuf = c.eventsBuf[:len(c.eventsBuf)-c.eventIndex+1]
		if len(c.eventsBuf) > 0 {
			delta := c.startFrame - c.eventsBuf[0].frame
			c.startFrame -= delta / 5
		}
	}
	c.eventIndex = 0
}
