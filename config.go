package neoretro

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the engine settings that are not part of a song.
type Config struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	Channels   int `json:"channels" yaml:"channels"` // channels of exported .wav files

	// StepsPerBeat is the number of steps in a quarter note; the step period
	// is 60 / (bpm * StepsPerBeat) seconds.
	StepsPerBeat int `json:"steps_per_beat" yaml:"steps_per_beat"`

	// ArpDivision is the number of arpeggiator sub-ticks per step.
	ArpDivision int `json:"arp_division" yaml:"arp_division"`

	// BufferSize is the number of frames rendered per block.
	BufferSize int  `json:"buffer_size" yaml:"buffer_size"`
	PCM16      bool `json:"pcm16" yaml:"pcm16"`

	// RecordSequencer makes the loop recorder capture the triggers of the
	// step sequencer too, not only live input.
	RecordSequencer bool `json:"record_sequencer" yaml:"record_sequencer"`

	// NoiseSeed seeds the noise generators; the same seed renders the same
	// samples.
	NoiseSeed uint32 `json:"noise_seed" yaml:"noise_seed"`

	// TailSeconds is how long offline rendering keeps going after the last
	// step so that voices can ring out.
	TailSeconds float64 `json:"tail_seconds" yaml:"tail_seconds"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		Channels:     2,
		StepsPerBeat: 4,
		ArpDivision:  2,
		BufferSize:   1024,
		PCM16:        true,
		NoiseSeed:    1,
		TailSeconds:  1,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 192000:
		return fmt.Errorf("sample rate %d outside [8000,192000]: %w", c.SampleRate, ErrInvalidParameter)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("channels must be 1 or 2, got %d: %w", c.Channels, ErrInvalidParameter)
	case c.StepsPerBeat < 1 || c.StepsPerBeat > 16:
		return fmt.Errorf("steps per beat %d outside [1,16]: %w", c.StepsPerBeat, ErrInvalidParameter)
	case c.ArpDivision < 1 || c.ArpDivision > 8:
		return fmt.Errorf("arpeggiator division %d outside [1,8]: %w", c.ArpDivision, ErrInvalidParameter)
	case c.BufferSize < 16 || c.BufferSize > 65536:
		return fmt.Errorf("buffer size %d outside [16,65536]: %w", c.BufferSize, ErrInvalidParameter)
	case c.TailSeconds < 0 || c.TailSeconds > 60:
		return fmt.Errorf("tail %v s outside [0,60]: %w", c.TailSeconds, ErrInvalidParameter)
	}
	return nil
}

// WavFormat returns the export format described by the config.
func (c Config) WavFormat() WavFormat {
	return WavFormat{SampleRate: c.SampleRate, Channels: c.Channels, PCM16: c.PCM16}
}

// ReadConfig reads a config in JSON or YAML. Missing keys keep their default
// values.
func ReadConfig(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}
	cfg := DefaultConfig()
	if errJSON := json.Unmarshal(b, &cfg); errJSON != nil {
		cfg = DefaultConfig()
		if errYaml := yaml.Unmarshal(b, &cfg); errYaml != nil {
			return Config{}, fmt.Errorf("could not unmarshal config: %v / %v: %w", errYaml, errJSON, ErrSchema)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads the config file at path.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not open config: %w", err)
	}
	defer f.Close()
	return ReadConfig(f)
}
