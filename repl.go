package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"github.com/mrdg/rack/audio"
	"github.com/mrdg/rack/dub"
)

type env struct {
	synth     *audio.Synth
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	out       io.Writer
}

func newEnv(synth *audio.Synth, seq *audio.Sequencer, out io.Writer) *env {
	return &env{
		synth:     synth,
		sequencer: seq,
		devices: map[string]audio.Device{
			"synth": synth,
			"seq":   seq,
		},
		out: out,
	}
}

func (e *env) device(name string) (audio.Device, error) {
	dev, ok := e.devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", name)
	}
	return dev, nil
}

func (e *env) setProp(device, prop string, v interface{}) error {
	dev, err := e.device(device)
	if err != nil {
		return err
	}
	return dev.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	return dev.Get(prop)
}

// eval runs every command on a line and returns the result of the last one.
// It stops at the first command that fails.
func (e *env) eval(input string) (dub.Node, error) {
	cmds, err := dub.ParseAll(input)
	if err != nil {
		return nil, err
	}
	var result dub.Node
	for _, cmd := range cmds {
		if result, err = e.run(cmd); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *env) run(command dub.Command) (dub.Node, error) {
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

// exec runs one line and prints the result of every command, or the first
// error. Syntax errors point at the offending input.
func (e *env) exec(line string) {
	cmds, err := dub.ParseAll(line)
	if err != nil {
		var serr *dub.SyntaxError
		if errors.As(err, &serr) {
			renderSyntaxError(e.out, line, serr)
		} else {
			fmt.Fprintln(e.out, err)
		}
		return
	}
	for _, cmd := range cmds {
		result, err := e.run(cmd)
		if err != nil {
			fmt.Fprintln(e.out, err)
			return
		}
		if result != nil {
			fmt.Fprintln(e.out, result)
		}
	}
}

func (e *env) repl() error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(e.out, err)
			continue
		}
		e.exec(line)
	}
}

// readLines is the prompt-less repl used when input does not come from a terminal.
func (e *env) readLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e.exec(scanner.Text())
	}
	return scanner.Err()
}
