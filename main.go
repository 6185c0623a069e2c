package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mrdg/rack/audio"
	"github.com/mrdg/rack/log"
	"github.com/mrdg/rack/midi"
	"github.com/mrdg/rack/sink"
)

type config struct {
	sampleRate float64
	bufferSize int
	voices     int
	exciter    string
	sound      string
	preset     string
	midi       string
	listMidi   bool
	script     string
}

func main() {
	var cfg config
	flag.Float64Var(&cfg.sampleRate, "rate", audio.DefaultSampleRate, "sample rate in Hz")
	flag.IntVar(&cfg.bufferSize, "buffer", audio.DefaultBufferSize, "frames per audio buffer")
	flag.IntVar(&cfg.voices, "voices", audio.DefaultVoices, "number of synth voices")
	flag.StringVar(&cfg.exciter, "exciter", "", "exciter to start with: noise, sine, saw, square or sound")
	flag.StringVar(&cfg.sound, "sound", "", "wav file for the sound exciter")
	flag.StringVar(&cfg.preset, "preset", "", "preset to load at startup")
	flag.StringVar(&cfg.midi, "midi", "", `midi input to listen on: a device id or "default"`)
	flag.BoolVar(&cfg.listMidi, "list-midi", false, "list midi inputs and exit")
	flag.StringVar(&cfg.script, "run", "", "file with commands to run before the prompt")
	flag.Parse()

	logger := log.GetLogger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(cfg config, logger *logrus.Logger) error {
	if cfg.listMidi {
		return listInputs(os.Stdout)
	}

	opts := []audio.Option{
		audio.WithVoices(cfg.voices),
		audio.WithSampleRate(cfg.sampleRate),
		audio.WithLogger(logger),
	}
	if cfg.sound != "" {
		snd, err := audio.LoadSound(cfg.sound)
		if err != nil {
			return err
		}
		logger.WithField("file", snd.File()).Infof("loaded %.2fs sound", snd.Duration())
		opts = append(opts, audio.WithSound(snd))
	}
	synth, err := audio.NewSynth(audio.NewProps(), opts...)
	if err != nil {
		return err
	}
	if cfg.preset != "" {
		if err := audio.LoadPreset(cfg.preset, synth); err != nil {
			return err
		}
	}
	if cfg.exciter != "" {
		if err := synth.Set("exciter", cfg.exciter); err != nil {
			return err
		}
	}
	seq := audio.NewSequencer(audio.NewProps(), synth.SampleRate())

	out, err := sink.New(synth.SampleRate(), cfg.bufferSize)
	if err != nil {
		return err
	}
	defer out.Stop()
	out.AddTicker(seq)
	out.AddSources(synth)
	if err := out.Start(); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}

	e := newEnv(synth, seq, os.Stdout)
	if cfg.script != "" {
		if err := e.runScript(cfg.script); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.midi != "" {
		id, err := midiDevice(cfg.midi)
		if err != nil {
			return err
		}
		if err := midi.Init(); err != nil {
			return err
		}
		defer midi.Terminate()
		listener, err := midi.Open(id, synth, logger)
		if err != nil {
			return err
		}
		defer listener.Close()
		g.Go(func() error {
			err := listener.Run(ctx)
			if err != nil {
				logger.Error(err)
			}
			return err
		})
	}

	g.Go(func() error {
		defer cancel()
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return e.repl()
		}
		return e.readLines(os.Stdin)
	})
	return g.Wait()
}

// midiDevice turns the -midi flag into a device id. The default input is -1.
func midiDevice(s string) (int, error) {
	if s == "default" {
		return -1, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("not a midi device id: %q", s)
	}
	return id, nil
}

func listInputs(w io.Writer) error {
	if err := midi.Init(); err != nil {
		return err
	}
	defer midi.Terminate()
	for _, d := range midi.Inputs() {
		fmt.Fprintln(w, d)
	}
	return nil
}

// runScript evaluates a file line by line and stops at the first failing
// command.
func (e *env) runScript(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if _, err := e.eval(scanner.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", file, n, err)
		}
	}
	return scanner.Err()
}
