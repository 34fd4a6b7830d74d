package neoretro

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/sheet.txt
var templateFS embed.FS

type (
	sheetData struct {
		Title     string
		BPM       int
		Arpeggio  []int
		NameWidth int
		Rows      []sheetRow
		Legend    string
	}

	sheetRow struct {
		Name  string
		Kind  string
		Sound string
		Cells []string
		Mute  bool
	}
)

var noteNames = [...]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

var drumLetters = [NumDrumSlots]string{"K", "S", "h", "O"}

// NoteName formats a MIDI note number as e.g. "C-3" or "F#4", in the octave
// numbering where C3 is 48.
func NoteName(note int) string {
	if note < 0 || note > 127 {
		return "???"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

// Sheet renders the song as a plain text grid, one row per track and one
// column per step: note names for synth tracks, kit letters for drum tracks.
func Sheet(song Song, title string) ([]byte, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	caser := cases.Title(language.English)
	data := sheetData{
		Title:    title,
		BPM:      song.BPM,
		Arpeggio: song.Arpeggio,
		Legend:   "K kick  S snare  h hihat  O open hihat  ... rest",
	}
	for _, t := range song.Tracks {
		row := sheetRow{Name: caser.String(t.Name), Kind: t.Kind.String(), Mute: t.Mute}
		if t.Kind == DrumTrack {
			row.Sound = fmt.Sprintf("v%d l%d", t.Volume, t.SoundLength)
		} else {
			row.Sound = fmt.Sprintf("%.3s v%d", t.Waveform.String(), t.Volume)
		}
		for _, s := range t.Steps {
			switch {
			case !s.Active:
				row.Cells = append(row.Cells, "...")
			case t.Kind == DrumTrack:
				row.Cells = append(row.Cells, drumLetters[s.Slot]+"  ")
			default:
				row.Cells = append(row.Cells, NoteName(t.Note(s)))
			}
		}
		data.NameWidth = max(data.NameWidth, len(row.Name))
		data.Rows = append(data.Rows, row)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "sheet", data); err != nil {
		return nil, fmt.Errorf("could not execute sheet template: %v", err)
	}
	return buf.Bytes(), nil
}
