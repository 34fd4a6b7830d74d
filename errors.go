package neoretro

import "errors"

// The error kinds of the engine. Functions wrap these with context, so test
// them with errors.Is.
var (
	// ErrInvalidParameter is returned for out-of-range values such as bpm <= 0,
	// pitch or velocity outside the MIDI range or an unknown track.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrRange is returned when a track is resized outside [MinSteps,
	// MaxSteps] or a step index is outside the track.
	ErrRange = errors.New("out of range")

	// ErrSchema is returned when a preset or an imported file is malformed.
	ErrSchema = errors.New("schema error")

	// ErrExportIO is returned when an export destination cannot be written.
	ErrExportIO = errors.New("export i/o error")
)
