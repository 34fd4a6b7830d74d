package sequencer

import "github.com/tcsenpai/neoretro"

// Messages sent from the model to the player through Broker.ToPlayer. In
// addition to these, the player accepts neoretro.Song (a new committed
// snapshot of the song), neoretro.Loop (replaces the recorded loop) and
// neoretro.Event (a live trigger).
type (
	// IsPlayingMsg starts or stops the transport.
	IsPlayingMsg struct{ Playing bool }

	// StartPlayMsg rewinds the transport to step 0 and starts it.
	StartPlayMsg struct{}

	// BPMMsg changes the tempo without touching the rest of the song.
	BPMMsg struct{ BPM float64 }

	// SequencerMsg enables or disables the step tracks; the transport keeps
	// running so that the loop recorder and arpeggiator stay clocked.
	SequencerMsg struct{ Enabled bool }

	// RecordingMsg starts or stops loop recording.
	RecordingMsg struct{ Recording bool }

	// LoopPlayMsg starts or stops the playback of the recorded loop.
	LoopPlayMsg struct{ Playing bool }

	ClearLoopMsg struct{}

	ArpeggiatorMsg struct{ Enabled bool }

	// PanicMsg releases all voices at once.
	PanicMsg struct{}
)

// LoopRecordedMsg is sent by the player to the model when a recording has
// ended, also when the take is empty. Playing tells whether the loop started
// playing right away.
type LoopRecordedMsg struct {
	Loop    neoretro.Loop
	Playing bool
}

// PlayerStatus is the read-only state of the player, sent to the model after
// every rendered block.
type PlayerStatus struct {
	Playing   bool
	Sequencer bool
	// Step is the global step counter: the number of steps fired since the
	// transport was rewound.
	Step int
	// Positions is the sounding step of each track: (Step-1) mod track
	// length, or 0 before the first step.
	Positions [neoretro.MaxTracks]int
	BPM       float64

	Recorder   RecorderState
	LoopLength int
	LoopEvents int

	Arpeggiator bool
	ArpCursor   int

	Voices  int
	Spawned int
	Dropped int
	Peak    float32
}
