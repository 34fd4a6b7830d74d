package neoretro

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ReadSong reads a preset, either in JSON or YAML, and validates it. Any
// problem with the contents is reported as ErrSchema; the returned song is
// only meaningful when err is nil.
func ReadSong(r io.Reader) (Song, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Song{}, fmt.Errorf("could not read song: %w", err)
	}
	var song Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		song = Song{}
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			return Song{}, fmt.Errorf("could not unmarshal song: %v / %v: %w", errYaml, errJSON, ErrSchema)
		}
	}
	if err := song.Validate(); err != nil {
		return Song{}, err
	}
	return song, nil
}

// MarshalSong serializes the song as JSON if ext is ".json", otherwise as
// YAML.
func MarshalSong(song Song, ext string) ([]byte, error) {
	if ext == ".json" {
		return json.MarshalIndent(song, "", "  ")
	}
	return yaml.Marshal(song)
}

// LoadSong reads and validates a preset file.
func LoadSong(path string) (Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return Song{}, fmt.Errorf("could not open preset: %w", err)
	}
	defer f.Close()
	song, err := ReadSong(f)
	if err != nil {
		return Song{}, fmt.Errorf("%s: %w", path, err)
	}
	return song, nil
}

// SaveSong validates the song and writes it to path, the format chosen by
// the file extension.
func SaveSong(path string, song Song) error {
	if err := song.Validate(); err != nil {
		return err
	}
	b, err := MarshalSong(song, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("could not marshal song: %w", err)
	}
	return WriteFileAtomic(path, b)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// in place, so path either keeps its old contents or gets all of data. All
// failures wrap ErrExportIO and the temporary file is removed.
func WriteFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create %v: %v: %w", path, err, ErrExportIO)
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	_, werr := f.Write(data)
	cerr := f.Close()
	if err = errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("could not write %v: %v: %w", path, err, ErrExportIO)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("could not rename %v: %v: %w", path, err, ErrExportIO)
	}
	return nil
}
