package sequencer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tcsenpai/neoretro"
)

type (
	// Model is the control side of the sequencer: the public call surface
	// used by a user interface, a MIDI input or a script. It owns the song
	// being edited. Every edit is validated before anything is changed; a
	// successful edit is applied to the model's song and a copy of the whole
	// song is committed to the player, so the player always sees either the
	// state before or after an edit.
	//
	// The model is not safe for concurrent use; it is meant to live in one
	// goroutine, e.g. the UI loop, calling Update regularly.
	Model struct {
		song   neoretro.Song
		loop   neoretro.Loop
		cfg    neoretro.Config
		status PlayerStatus
		alerts Alerts
		broker *Broker

		playing     bool
		sequencer   bool
		recording   bool
		loopPlaying bool
		arpeggiator bool

		scope    []float32
		scopePos int
	}

	// Snapshot is a read-only view of the model for display.
	Snapshot struct {
		Song        neoretro.Song
		Loop        neoretro.Loop
		Status      PlayerStatus
		Playing     bool
		Sequencer   bool
		Recording   bool
		LoopPlaying bool
		Arpeggiator bool
	}
)

// ScopeLength is the number of most recent output samples kept for display.
const ScopeLength = 2048

// NewModel validates the config and the song and commits the song to the
// player listening on the broker.
func NewModel(broker *Broker, cfg neoretro.Config, song neoretro.Song) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := song.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		song:      song.Copy(),
		cfg:       cfg,
		broker:    broker,
		sequencer: true,
		scope:     make([]float32, ScopeLength),
	}
	m.commit()
	return m, nil
}

func (m *Model) commit() {
	TrySend(m.broker.ToPlayer, any(m.song.Copy()))
}

func (m *Model) sendToPlayer(msg any) {
	TrySend(m.broker.ToPlayer, msg)
}

// Update processes the messages sent by the player. Call it regularly, e.g.
// once per UI frame.
func (m *Model) Update() {
	for {
		select {
		case msg := <-m.broker.ToModel:
			m.handleMessage(msg)
		default:
			return
		}
	}
}

func (m *Model) handleMessage(msg MsgToModel) {
	if msg.HasStatus {
		m.status = msg.Status
	}
	switch d := msg.Data.(type) {
	case nil:
	case *neoretro.AudioBuffer:
		for _, f := range *d {
			m.scope[m.scopePos] = f[0]
			m.scopePos = (m.scopePos + 1) % len(m.scope)
		}
		m.broker.PutAudioBuffer(d)
	case Alert:
		m.alerts.Push(d)
	case LoopRecordedMsg:
		m.loop = d.Loop
		m.recording = false
		m.loopPlaying = d.Playing
	}
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Song:        m.song.Copy(),
		Loop:        m.loop.Copy(),
		Status:      m.status,
		Playing:     m.playing,
		Sequencer:   m.sequencer,
		Recording:   m.recording,
		LoopPlaying: m.loopPlaying,
		Arpeggiator: m.arpeggiator,
	}
}

// Scope returns the most recent output samples, oldest first.
func (m *Model) Scope() []float32 {
	return append(slices.Clone(m.scope[m.scopePos:]), m.scope[:m.scopePos]...)
}

func (m *Model) Alerts() *Alerts { return &m.alerts }

func (m *Model) Config() neoretro.Config { return m.cfg }

// Live input

// NoteOn plays a note on a synth track. pitch is the semitone offset from
// the C of the track octave.
func (m *Model) NoteOn(track, pitch, velocity int) error {
	ev, err := m.noteEvent(track, pitch)
	if err != nil {
		return err
	}
	ev.Action = neoretro.NoteOn
	ev.Velocity = velocity
	if err := ev.Validate(); err != nil {
		return err
	}
	m.sendToPlayer(ev)
	return nil
}

// NoteOff releases a note started with NoteOn.
func (m *Model) NoteOff(track, pitch int) error {
	ev, err := m.noteEvent(track, pitch)
	if err != nil {
		return err
	}
	ev.Action = neoretro.NoteOff
	if err := ev.Validate(); err != nil {
		return err
	}
	m.sendToPlayer(ev)
	return nil
}

func (m *Model) noteEvent(track, pitch int) (neoretro.Event, error) {
	t, err := m.song.Track(track)
	if err != nil {
		return neoretro.Event{}, err
	}
	if t.Kind != neoretro.SynthTrack {
		return neoretro.Event{}, fmt.Errorf("track %d is not a synth track: %w", track, neoretro.ErrInvalidParameter)
	}
	if pitch < 0 {
		return neoretro.Event{}, fmt.Errorf("pitch %d is negative: %w", pitch, neoretro.ErrInvalidParameter)
	}
	return neoretro.Event{Track: track, Note: t.Note(neoretro.Step{Pitch: pitch})}, nil
}

// DrumHit plays a kit slot on a drum track.
func (m *Model) DrumHit(track int, slot neoretro.DrumSlot) error {
	t, err := m.song.Track(track)
	if err != nil {
		return err
	}
	if t.Kind != neoretro.DrumTrack {
		return fmt.Errorf("track %d is not a drum track: %w", track, neoretro.ErrInvalidParameter)
	}
	ev := neoretro.Event{Track: track, Action: neoretro.DrumHit, Slot: slot, Velocity: neoretro.DefaultVelocity}
	if err := ev.Validate(); err != nil {
		return err
	}
	m.sendToPlayer(ev)
	return nil
}

// Panic silences all voices.
func (m *Model) Panic() {
	m.sendToPlayer(PanicMsg{})
}

// Transport

// SetBPM changes the tempo. Values outside [MinBPM, MaxBPM] fail with
// ErrInvalidParameter.
func (m *Model) SetBPM(bpm int) error {
	if bpm < neoretro.MinBPM || bpm > neoretro.MaxBPM {
		return fmt.Errorf("bpm %d outside [%d,%d]: %w", bpm, neoretro.MinBPM, neoretro.MaxBPM, neoretro.ErrInvalidParameter)
	}
	m.song.BPM = bpm
	m.sendToPlayer(BPMMsg{BPM: float64(bpm)})
	return nil
}

// NudgeBPM changes the tempo by delta, clamped to the valid range.
func (m *Model) NudgeBPM(delta int) {
	m.SetBPM(min(max(m.song.BPM+delta, neoretro.MinBPM), neoretro.MaxBPM))
}

// TogglePlay starts the transport from step 0, or stops it.
func (m *Model) TogglePlay() {
	m.playing = !m.playing
	if m.playing {
		m.sendToPlayer(StartPlayMsg{})
		return
	}
	m.recording = false
	m.sendToPlayer(IsPlayingMsg{Playing: false})
}

// ToggleSequencer enables or disables the triggering of the step tracks
// while keeping the transport running.
func (m *Model) ToggleSequencer() {
	m.sequencer = !m.sequencer
	m.sendToPlayer(SequencerMsg{Enabled: m.sequencer})
}

// Loop recorder

// ToggleRecord starts recording a new loop, discarding the previous one, or
// stops recording. When a recording with events stops, the loop starts
// playing.
func (m *Model) ToggleRecord() {
	m.recording = !m.recording
	if m.recording {
		m.loop = neoretro.Loop{}
		m.loopPlaying = false
		m.playing = true
	}
	m.sendToPlayer(RecordingMsg{Recording: m.recording})
}

// ToggleLoop starts or stops the playback of the recorded loop.
func (m *Model) ToggleLoop() error {
	if !m.loopPlaying && len(m.loop.Events) == 0 {
		return fmt.Errorf("no loop recorded: %w", neoretro.ErrInvalidParameter)
	}
	m.loopPlaying = !m.loopPlaying
	if m.loopPlaying {
		m.recording = false
		m.playing = true
	}
	m.sendToPlayer(LoopPlayMsg{Playing: m.loopPlaying})
	return nil
}

// ClearLoop discards the recorded loop and stops its playback.
func (m *Model) ClearLoop() {
	m.loop = neoretro.Loop{}
	m.loopPlaying = false
	m.recording = false
	m.sendToPlayer(ClearLoopMsg{})
}

// Arpeggiator

func (m *Model) ToggleArpeggiator() {
	m.arpeggiator = !m.arpeggiator
	m.sendToPlayer(ArpeggiatorMsg{Enabled: m.arpeggiator})
}

// SetArpPattern replaces the arpeggio offsets.
func (m *Model) SetArpPattern(pattern []int) error {
	if _, err := NewArpeggiator(pattern); err != nil {
		return err
	}
	m.song.Arpeggio = slices.Clone(pattern)
	m.commit()
	return nil
}

// Track editing

// editTrack applies f to a copy of the track and commits the copy only if
// both f and the validation of the result succeed.
func (m *Model) editTrack(track int, f func(t *neoretro.Track) error) error {
	t, err := m.song.Track(track)
	if err != nil {
		return err
	}
	edited := t.Copy()
	if err := f(&edited); err != nil {
		return err
	}
	if err := edited.Validate(); err != nil {
		return err
	}
	*t = edited
	m.commit()
	return nil
}

// ResizeTrack changes the number of steps, failing with ErrRange outside
// [MinSteps, MaxSteps].
func (m *Model) ResizeTrack(track, length int) error {
	return m.editTrack(track, func(t *neoretro.Track) error { return t.Resize(length) })
}

func (m *Model) SetStep(track, index int, step neoretro.Step) error {
	return m.editTrack(track, func(t *neoretro.Track) error { return t.SetStep(index, step) })
}

// ToggleStep flips a step on or off. A step switched on for the first time
// gets the default velocity.
func (m *Model) ToggleStep(track, index int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		if index < 0 || index >= len(t.Steps) {
			return fmt.Errorf("step %d outside track of length %d: %w", index, len(t.Steps), neoretro.ErrRange)
		}
		s := t.Steps[index]
		s.Active = !s.Active
		if s.Active && s.Velocity == 0 {
			s.Velocity = neoretro.DefaultVelocity
		}
		return t.SetStep(index, s)
	})
}

func (m *Model) ClearTrack(track int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.ClearAll()
		return nil
	})
}

func (m *Model) SetWaveform(track int, w neoretro.Waveform) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		if !w.Valid() {
			return fmt.Errorf("invalid waveform %d: %w", w, neoretro.ErrInvalidParameter)
		}
		t.Waveform = w
		return nil
	})
}

// CycleWaveform selects the next waveform of the track.
func (m *Model) CycleWaveform(track int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.Waveform = (t.Waveform + 1) % neoretro.NumWaveforms
		return nil
	})
}

func (m *Model) SetVolume(track, volume int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.Volume = volume
		return nil
	})
}

func (m *Model) SetSoundLength(track, length int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.SoundLength = length
		return nil
	})
}

func (m *Model) SetOctave(track, octave int) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.Octave = octave
		return nil
	})
}

func (m *Model) SetMute(track int, mute bool) error {
	return m.editTrack(track, func(t *neoretro.Track) error {
		t.Mute = mute
		return nil
	})
}

// Files

// LoadPreset replaces the song with the preset at path. On failure the
// current song is kept.
func (m *Model) LoadPreset(path string) error {
	song, err := neoretro.LoadSong(path)
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error loading preset: %v", err), Error)
		return err
	}
	m.song = song
	m.commit()
	m.alerts.Add(fmt.Sprintf("Loaded %s", filepath.Base(path)), Info)
	return nil
}

func (m *Model) SavePreset(path string) error {
	if err := neoretro.SaveSong(path, m.song); err != nil {
		m.alerts.Add(fmt.Sprintf("Error saving preset: %v", err), Error)
		return err
	}
	m.alerts.Add(fmt.Sprintf("Saved %s", filepath.Base(path)), Info)
	return nil
}

// ExportMIDI writes the step patterns and the recorded loop as a Standard
// MIDI File.
func (m *Model) ExportMIDI(path string) error {
	var b bytes.Buffer
	if err := neoretro.WriteMIDI(&b, m.song, m.loop, m.cfg.StepsPerBeat); err != nil {
		m.alerts.Add(fmt.Sprintf("Error exporting MIDI: %v", err), Error)
		return err
	}
	return m.writeExport(path, b.Bytes())
}

// ImportMIDI reads the step patterns from a MIDI file written by ExportMIDI.
// The file must have the same track layout as the song.
func (m *Model) ImportMIDI(path string) error {
	f, err := os.Open(path)
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error importing MIDI: %v", err), Error)
		return err
	}
	defer f.Close()
	song := m.song.Copy()
	if err := neoretro.ReadMIDI(f, &song, m.cfg.StepsPerBeat); err != nil {
		m.alerts.Add(fmt.Sprintf("Error importing MIDI: %v", err), Error)
		return err
	}
	m.song = song
	m.commit()
	return nil
}

// ExportWAV renders steps steps of the song and the loop offline and writes
// them as a .wav file. It does not disturb the live player.
func (m *Model) ExportWAV(ctx context.Context, path string, steps int) error {
	buf, err := Render(ctx, m.song.Copy(), m.loop.Copy(), m.cfg, steps)
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error rendering the song during export: %v", err), Error)
		return err
	}
	data, err := buf.Wav(m.cfg.WavFormat())
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error encoding the song during export: %v", err), Error)
		return err
	}
	return m.writeExport(path, data)
}

// ExportSheet writes the step patterns as a text sheet.
func (m *Model) ExportSheet(path string) error {
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := neoretro.Sheet(m.song, title)
	if err != nil {
		m.alerts.Add(fmt.Sprintf("Error exporting sheet: %v", err), Error)
		return err
	}
	return m.writeExport(path, data)
}

func (m *Model) writeExport(path string, data []byte) error {
	if err := neoretro.WriteFileAtomic(path, data); err != nil {
		m.alerts.Add(fmt.Sprintf("Error writing to file: %v", err), Error)
		return err
	}
	m.alerts.Add(fmt.Sprintf("Exported %s", filepath.Base(path)), Info)
	return nil
}
