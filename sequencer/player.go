package sequencer

import (
	"fmt"
	"log"
	"math"

	"github.com/tcsenpai/neoretro"
	"github.com/tcsenpai/neoretro/synth"
)

type (
	// Player is the audio engine, run in the audio thread. It owns the
	// transport, the mixer, the arpeggiator and the loop recorder. It is
	// controlled by messages from the model via Broker.ToPlayer and by live
	// MIDI events via the PlayerProcessContext; it reports its status back
	// via Broker.ToModel. The player never blocks and never logs from the
	// render path.
	Player struct {
		song      neoretro.Song // the committed snapshot the steps are read from
		cfg       neoretro.Config
		transport *Transport
		mixer     *synth.Mixer
		arp       *Arpeggiator
		recorder  LoopRecorder
		sequencer bool // are the step tracks triggered

		voiceCount uint32 // seeds the noise of each voice
		requests   []NoteRequest

		broker *Broker
	}
)

// NewPlayer creates a player with an empty song. The mixer reports dropped
// voices to logger; nil discards.
func NewPlayer(broker *Broker, cfg neoretro.Config, logger *log.Logger) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport, err := NewTransport(float64(neoretro.DefaultSong().BPM), cfg.StepsPerBeat, cfg.ArpDivision, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	arp, err := NewArpeggiator(neoretro.DefaultArpeggio)
	if err != nil {
		return nil, err
	}
	return &Player{
		cfg:       cfg,
		transport: transport,
		mixer:     synth.NewMixer(logger),
		arp:       arp,
		sequencer: true,
		broker:    broker,
	}, nil
}

// Process renders audio to the buffer, filling it completely. Before
// rendering, all pending messages from the model are applied, so one block
// always sees one committed song snapshot. Transport boundaries and MIDI
// events falling inside the block are handled at their exact frame.
func (p *Player) Process(buffer neoretro.AudioBuffer, context PlayerProcessContext) {
	p.processMessages()
	out := buffer
	frame := 0
	midi, midiOk := context.NextEvent(frame)
	for len(buffer) > 0 {
		for midiOk && frame >= midi.Frame {
			if ev, ok := RouteMIDI(&p.song, midi); ok {
				p.handleEvent(ev, true)
			}
			midi, midiOk = context.NextEvent(frame)
		}
		for p.transport.Due() {
			p.boundary()
		}
		n := min(len(buffer), p.transport.FramesUntilBoundary())
		if delta := midi.Frame - frame; midiOk && delta < n {
			n = delta
		}
		n = max(n, 1)
		p.mixer.Render(buffer[:n])
		p.transport.Advance(n)
		buffer = buffer[n:]
		frame += n
	}
	context.FinishBlock(frame)
	bufPtr := p.broker.GetAudioBuffer() // borrow a buffer from the broker
	*bufPtr = append(*bufPtr, out...)
	if len(*bufPtr) == 0 || !TrySend(p.broker.ToModel, MsgToModel{Data: bufPtr}) {
		p.broker.PutAudioBuffer(bufPtr)
	}
	p.send(nil)
}

// boundary handles one sub-tick boundary of the transport. On step
// boundaries, the loop recorder is clocked first, then the tracks are
// evaluated; the arpeggiator runs on every sub-tick.
func (p *Player) boundary() {
	if p.transport.NextBoundary() {
		p.recorder.Tick(p.replay)
		for _, ref := range p.transport.Tick(p.song.Tracks) {
			if p.sequencer {
				p.triggerStep(ref)
			}
		}
	}
	if !p.arp.Enabled() {
		return
	}
	p.requests = p.arp.SubTick(p.requests[:0])
	samples := int(p.transport.SamplesPerSubTick() * 3 / 4)
	for _, r := range p.requests {
		p.spawnSynth(r.Track, r.Note, r.Velocity, samples)
	}
}

func (p *Player) replay(ev neoretro.Event) {
	p.handleEvent(ev, false)
}

// triggerStep turns an active step into a trigger event and plays it like
// live input.
func (p *Player) triggerStep(ref StepRef) {
	t := &p.song.Tracks[ref.Track]
	s := t.Steps.Get(ref.Index)
	if !s.Active {
		return
	}
	ev := neoretro.Event{Track: ref.Track, Velocity: s.Velocity}
	switch t.Kind {
	case neoretro.DrumTrack:
		ev.Action = neoretro.DrumHit
		ev.Slot = s.Slot
	default:
		ev.Action = neoretro.NoteOn
		ev.Note = t.Note(s)
	}
	p.handleEvent(ev, p.cfg.RecordSequencer)
}

// handleEvent is the single trigger path shared by live input, MIDI input,
// the step sequencer and loop replay.
func (p *Player) handleEvent(ev neoretro.Event, record bool) {
	t, err := p.song.Track(ev.Track)
	if err != nil {
		p.SendAlert("PlayerEvent", fmt.Sprintf("event dropped: %v", err), Warning)
		return
	}
	if err := ev.Validate(); err != nil {
		p.SendAlert("PlayerEvent", fmt.Sprintf("event dropped: %v", err), Warning)
		return
	}
	if (ev.Action == neoretro.DrumHit) != (t.Kind == neoretro.DrumTrack) {
		return
	}
	if t.Mute && ev.Action != neoretro.NoteOff {
		return
	}
	if record {
		p.recorder.Record(ev)
	}
	switch ev.Action {
	case neoretro.NoteOn:
		samples := synth.SynthSamples(t.SoundLength, p.cfg.SampleRate)
		if p.arp.Enabled() && p.transport.Running() {
			subTicks := math.Ceil(float64(samples) / p.transport.SamplesPerSubTick())
			p.arp.Hold(ev.Track, ev.Note, ev.Velocity, int(subTicks))
			return
		}
		p.spawnSynth(ev.Track, ev.Note, ev.Velocity, samples)
	case neoretro.NoteOff:
		p.arp.Unhold(ev.Track, ev.Note)
		p.mixer.Release(ev.Track, ev.Note)
	case neoretro.DrumHit:
		v, err := synth.NewDrumVoice(ev.Track, ev.Slot, ev.Velocity, t.SoundLength, p.cfg.SampleRate, p.nextSeed())
		if err != nil {
			p.SendAlert("PlayerVoice", err.Error(), Error)
			return
		}
		p.mixer.Trigger(v)
	}
}

func (p *Player) spawnSynth(track, note, velocity, samples int) {
	t, err := p.song.Track(track)
	if err != nil || t.Mute {
		return
	}
	v, err := synth.NewSynthVoice(track, t.Waveform, note, velocity, samples, p.cfg.SampleRate, p.nextSeed())
	if err != nil {
		p.SendAlert("PlayerVoice", err.Error(), Error)
		return
	}
	p.mixer.Trigger(v)
}

func (p *Player) nextSeed() uint32 {
	p.voiceCount++
	return p.cfg.NoiseSeed + p.voiceCount
}

func (p *Player) setSong(song neoretro.Song) {
	p.song = song
	for i := range neoretro.MaxTracks {
		if i >= len(song.Tracks) {
			p.mixer.ReleaseTrack(i)
			p.arp.ReleaseTrack(i)
			continue
		}
		t := song.Tracks[i]
		vol := float32(t.Volume) / neoretro.MaxVolume
		if t.Mute {
			vol = 0
			p.arp.ReleaseTrack(i)
		}
		p.mixer.SetVolume(i, vol)
	}
	if song.BPM > 0 {
		p.transport.SetBPM(float64(song.BPM))
	}
	if len(song.Arpeggio) > 0 {
		if err := p.arp.SetPattern(song.Arpeggio); err != nil {
			p.SendAlert("PlayerArpeggio", err.Error(), Error)
		}
	}
}

func (p *Player) processMessages() {
loop:
	for { // process new message
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case neoretro.Song:
				p.setSong(m)
			case neoretro.Loop:
				p.recorder.SetLoop(m)
			case neoretro.Event:
				p.handleEvent(m, true)
			case IsPlayingMsg:
				if m.Playing {
					p.transport.Start()
				} else {
					p.stopTransport()
				}
			case StartPlayMsg:
				p.transport.Rewind()
				p.transport.Start()
			case BPMMsg:
				if err := p.transport.SetBPM(m.BPM); err != nil {
					p.SendAlert("PlayerBPM", err.Error(), Error)
				}
			case SequencerMsg:
				p.sequencer = m.Enabled
			case RecordingMsg:
				if m.Recording {
					p.recorder.StartRecording()
					p.transport.Start()
					break
				}
				p.recorder.StopRecording()
				playing := p.recorder.Play()
				p.send(LoopRecordedMsg{Loop: p.recorder.Loop(), Playing: playing})
			case LoopPlayMsg:
				if !m.Playing {
					p.recorder.Stop()
					break
				}
				if !p.recorder.Play() {
					p.SendAlert("LoopPlay", "nothing recorded to play", Info)
					break
				}
				p.transport.Start()
			case ClearLoopMsg:
				p.recorder.Clear()
			case ArpeggiatorMsg:
				p.arp.SetEnabled(m.Enabled)
			case PanicMsg:
				p.mixer.ReleaseAll()
				for i := range neoretro.MaxTracks {
					p.arp.ReleaseTrack(i)
				}
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

// stopTransport stops the clock. Sounding voices are not cut; they ring out
// through their envelopes.
func (p *Player) stopTransport() {
	p.transport.Stop()
	for i := range neoretro.MaxTracks {
		p.arp.ReleaseTrack(i)
	}
	if p.recorder.State() == RecorderRecording {
		p.recorder.StopRecording()
		p.send(LoopRecordedMsg{Loop: p.recorder.Loop()})
	}
}

// Status returns the current state of the player.
func (p *Player) Status() PlayerStatus {
	s := PlayerStatus{
		Playing:     p.transport.Running(),
		Sequencer:   p.sequencer,
		Step:        p.transport.CurrentStep(),
		BPM:         p.transport.BPM(),
		Recorder:    p.recorder.State(),
		LoopLength:  p.recorder.Length(),
		LoopEvents:  p.recorder.NumEvents(),
		Arpeggiator: p.arp.Enabled(),
		ArpCursor:   p.arp.Cursor(),
		Voices:      p.mixer.NumVoices(),
		Spawned:     p.mixer.Spawned(),
		Dropped:     p.mixer.Dropped(),
		Peak:        p.mixer.Peak(),
	}
	for i := range p.song.Tracks {
		if i < len(s.Positions) {
			s.Positions[i] = p.transport.Position(len(p.song.Tracks[i].Steps))
		}
	}
	return s
}

// Idle reports whether nothing is sounding and nothing will be triggered.
func (p *Player) Idle() bool {
	return !p.transport.Running() && p.mixer.NumVoices() == 0
}

func (p *Player) SendAlert(name, message string, priority AlertPriority) {
	p.send(Alert{
		Name:     name,
		Priority: priority,
		Message:  message,
		Duration: defaultAlertDuration,
	})
}

// all sends from the player are non-blocking, so that the audio thread
// cannot end up in a deadlock
func (p *Player) send(message any) {
	TrySend(p.broker.ToModel, MsgToModel{
		HasStatus: true,
		Status:    p.Status(),
		Data:      message,
	})
}
