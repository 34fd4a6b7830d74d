package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/tcsenpai/neoretro"
	"github.com/tcsenpai/neoretro/cmd"
	"github.com/tcsenpai/neoretro/oto"
	"github.com/tcsenpai/neoretro/sequencer"
	"github.com/tcsenpai/neoretro/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the working directory.")
	play := flag.Bool("p", false, "Play the input presets (default behaviour when no other output is defined).")
	wavOut := flag.Bool("w", false, "Output the rendered preset as .wav file.")
	midiOut := flag.Bool("m", false, "Output the step patterns as .mid file.")
	sheetOut := flag.Bool("t", false, "Output the step patterns as a .txt sheet.")
	float := flag.Bool("c", false, "Write .wav files as 32-bit float instead of 16-bit PCM.")
	steps := flag.Int("steps", 0, "Number of steps to render. By default, one cycle of the longest track.")
	configFile := flag.String("config", "", "Engine config file (.yml or .json).")
	live := flag.Bool("live", false, "Run the sequencer live with MIDI input until interrupted; preset files are optional.")
	midiInput := flag.String("midi-input", "", "Open the first MIDI input whose name starts with this prefix in live mode.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help || (flag.NArg() == 0 && !*live) {
		flag.Usage()
		os.Exit(0)
	}
	cfg := neoretro.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = neoretro.LoadConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *float {
		cfg.PCM16 = false
	}
	if *live {
		song := neoretro.DefaultSong()
		if flag.NArg() > 0 {
			var err error
			if song, err = neoretro.LoadSong(flag.Arg(0)); err != nil {
				fmt.Fprintf(os.Stderr, "could not load preset: %v\n", err)
				os.Exit(1)
			}
		}
		if err := runLive(cfg, song, *midiInput); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if !*wavOut && !*midiOut && !*sheetOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	var audioContext neoretro.AudioContext
	if *play {
		var err error
		audioContext, err = oto.NewContext(cfg.SampleRate, cfg.BufferSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
		defer audioContext.Close()
	}
	process := func(filename string) error {
		output := func(extension string, write func(m *sequencer.Model, path string) error, m *sequencer.Model) error {
			dir := *directory
			if dir == "" {
				var err error
				if dir, err = os.Getwd(); err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			_, name := filepath.Split(filename)
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			return write(m, filepath.Join(dir, name))
		}
		song, err := neoretro.LoadSong(filename)
		if err != nil {
			return err
		}
		// a model without a player: only its file operations are used
		m, err := sequencer.NewModel(sequencer.NewBroker(), cfg, song)
		if err != nil {
			return err
		}
		var playWaiter neoretro.CloserWaiter
		if *play {
			buffer, err := sequencer.Render(context.Background(), song, neoretro.Loop{}, cfg, *steps)
			if err != nil {
				return fmt.Errorf("render failed: %v", err)
			}
			playWaiter = audioContext.Play(buffer.Source())
		}
		if *wavOut {
			wav := func(m *sequencer.Model, path string) error { return m.ExportWAV(context.Background(), path, *steps) }
			if err := output(".wav", wav, m); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *midiOut {
			if err := output(".mid", (*sequencer.Model).ExportMIDI, m); err != nil {
				return fmt.Errorf("error outputting .mid file: %v", err)
			}
		}
		if *sheetOut {
			if err := output(".txt", (*sequencer.Model).ExportSheet, m); err != nil {
				return fmt.Errorf("error outputting .txt file: %v", err)
			}
		}
		if playWaiter != nil {
			playWaiter.Wait()
			playWaiter.Close()
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, ext := range []string{"*.yml", "*.yaml", "*.json"} {
				matches, err := filepath.Glob(filepath.Join(param, ext))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, ext, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

// runLive plays the sequencer on the audio device, feeding it notes from the
// MIDI input, until interrupted.
func runLive(cfg neoretro.Config, song neoretro.Song, midiInput string) error {
	broker := sequencer.NewBroker()
	model, err := sequencer.NewModel(broker, cfg, song)
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	player, err := sequencer.NewPlayer(broker, cfg, logger)
	if err != nil {
		return err
	}
	midiContext := cmd.NewMidiContext(cfg.SampleRate)
	defer midiContext.Close()
	switch midiContext.Support() {
	case sequencer.MIDISupportNotCompiled:
		log.Printf("MIDI support not compiled in")
	case sequencer.MIDISupportNoDriver:
		log.Printf("no MIDI driver available")
	default:
		if input, err := sequencer.OpenInput(midiContext, midiInput); err != nil {
			log.Printf("%v", err)
		} else {
			log.Printf("listening to MIDI input %v", input)
		}
	}
	audioContext, err := oto.NewContext(cfg.SampleRate, cfg.BufferSize)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audioContext.Close()
	stream := neoretro.Stream(func(buf neoretro.AudioBuffer) error {
		player.Process(buf, midiContext)
		return nil
	}, cfg.BufferSize)
	playWaiter := audioContext.Play(stream)
	defer playWaiter.Close()
	model.TogglePlay()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()
	lastStep := -1
	printed := map[string]bool{}
	for {
		select {
		case <-interrupt:
			model.Panic()
			return nil
		case now := <-ticker.C:
			model.Update()
			shown := map[string]bool{}
			for alert := range model.Alerts().Iterate() {
				shown[alert.Message] = true
				if !printed[alert.Message] {
					fmt.Fprintln(os.Stderr)
					log.Printf("%v: %v", alert.Priority, alert.Message)
				}
			}
			printed = shown
			model.Alerts().Update(now.Sub(last))
			last = now
			if s := model.Snapshot().Status; s.Step != lastStep {
				lastStep = s.Step
				fmt.Fprintf(os.Stderr, "\rstep %4d  bpm %3.0f  voices %2d  peak %.2f", s.Step, s.BPM, s.Voices, s.Peak)
			}
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "neoretro command line utility for rendering and playing .yml/.json presets.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
