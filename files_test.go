package neoretro_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tcsenpai/neoretro"
)

func testSong() neoretro.Song {
	song := neoretro.DefaultSong()
	song.Tracks[0].Steps[0] = neoretro.Step{Active: true, Velocity: 127, Slot: neoretro.Kick}
	song.Tracks[0].Steps[4] = neoretro.Step{Active: true, Velocity: 110, Slot: neoretro.Snare}
	song.Tracks[1].Resize(16)
	for i := 0; i < 16; i += 2 {
		song.Tracks[1].Steps[i] = neoretro.Step{Active: true, Velocity: 60 + i, Slot: neoretro.HiHat}
	}
	song.Tracks[1].Steps[15] = neoretro.Step{Active: true, Velocity: 80, Slot: neoretro.OpenHiHat}
	song.Tracks[2].Waveform = neoretro.Square
	song.Tracks[2].Steps[1] = neoretro.Step{Active: true, Pitch: 7, Velocity: 90}
	song.Tracks[2].Steps[5] = neoretro.Step{Active: true, Pitch: 12, Velocity: 45}
	song.Tracks[3].Waveform = neoretro.Noise
	song.Tracks[3].Octave = 2
	song.Tracks[3].Steps[7] = neoretro.Step{Active: true, Pitch: 3, Velocity: 1}
	song.Tracks[3].Mute = true
	return song
}

func TestPresetRoundTrip(t *testing.T) {
	song := testSong()
	for _, ext := range []string{".yml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			b, err := neoretro.MarshalSong(song, ext)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			got, err := neoretro.ReadSong(bytes.NewReader(b))
			if err != nil {
				t.Fatalf("read failed: %v\n%s", err, b)
			}
			if !reflect.DeepEqual(got, song) {
				t.Fatalf("round trip mismatch:\n%+v\n%+v", got, song)
			}
		})
	}
}

func TestPresetEnumsAreNames(t *testing.T) {
	b, err := neoretro.MarshalSong(testSong(), ".yml")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, want := range []string{"kind: drum", "waveform: square", "slot: openhihat"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("expected %q in\n%s", want, b)
		}
	}
}

func TestPresetSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"short track": `
bpm: 120
tracks:
  - kind: synth
    steps: [{}, {}, {}]
    volume: 7
    soundlength: 10
`,
		"unknown waveform": `
bpm: 120
tracks:
  - kind: synth
    waveform: sawtooth
    steps: [{}, {}, {}, {}, {}, {}, {}, {}]
    volume: 7
    soundlength: 10
`,
		"unknown drum slot": `
bpm: 120
tracks:
  - kind: drum
    steps: [{active: true, velocity: 1, slot: cowbell}, {}, {}, {}, {}, {}, {}, {}]
    volume: 7
    soundlength: 10
`,
		"bpm zero": `{"BPM": 0, "Tracks": []}`,
		"not yaml": "bpm: [",
		"bad arp":  `{"BPM": 120, "Arpeggio": [0, 99]}`,
		"bad kind": `{"BPM": 120, "Tracks": [{"Kind": "bass"}]}`,
		"too loud": `{"BPM": 120, "Tracks": [{"Kind": "drum", "Steps": [{},{},{},{},{},{},{},{}], "Volume": 8, "SoundLength": 10}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := neoretro.ReadSong(strings.NewReader(doc))
			if !errors.Is(err, neoretro.ErrSchema) {
				t.Fatalf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestSaveAndLoadSong(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yml")
	song := testSong()
	if err := neoretro.SaveSong(path, song); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := neoretro.LoadSong(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(got, song) {
		t.Fatalf("loaded song differs from saved")
	}
}

func TestWriteFileAtomicUnwritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "out.wav")
	err := neoretro.WriteFileAtomic(path, []byte("data"))
	if !errors.Is(err, neoretro.ErrExportIO) {
		t.Fatalf("expected ErrExportIO, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, found %v", entries)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := neoretro.WriteFileAtomic(path, []byte("new contents")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "new contents" {
		t.Fatalf("got %q", b)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %v", entries)
	}
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := neoretro.ReadConfig(strings.NewReader("sample_rate: 48000\nchannels: 1\n"))
	if err != nil {
		t.Fatalf("read config failed: %v", err)
	}
	want := neoretro.DefaultConfig()
	want.SampleRate = 48000
	want.Channels = 1
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
	if _, err := neoretro.ReadConfig(strings.NewReader(`{"steps_per_beat": 0}`)); !errors.Is(err, neoretro.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSheet(t *testing.T) {
	b, err := neoretro.Sheet(testSong(), "demo")
	if err != nil {
		t.Fatalf("sheet failed: %v", err)
	}
	s := string(b)
	for _, want := range []string{"DEMO", "BPM 120", "Drum 1", "K  ", "S  ", "G-3", "C-4", "muted"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in sheet:\n%s", want, s)
		}
	}
}
