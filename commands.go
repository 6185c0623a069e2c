package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrdg/rack/audio"
	"github.com/mrdg/rack/dub"
)

// pulse patterns are matched over one bar of 4/4 in sixteenth notes
const (
	pulseBeats = 4
	pulseUnit  = 4
	pulseSteps = 16
)

const (
	defaultVelocity   = 100
	defaultNoteLength = 0.5 // seconds
	snapshotTimeout   = time.Second
)

type command struct {
	name  string
	args  string
	help  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"set", "device prop value", "set a property", setCommand, 3},
		{"get", "device prop", "show a property", getCommand, 2},
		{"props", "device", "list the properties of a device", propsCommand, 1},
		{"preset", "name", "load a synth preset", presetCommand, 1},
		{"presets", "", "list synth presets", presetsCommand, 0},
		{"play", "pitch [velocity [seconds]]", "play a note", playCommand, -1},
		{"stop", "pitch", "release a note", stopCommand, 1},
		{"loop", "name device beats [pattern]", "loop a pattern of notes", loopCommand, 4},
		{"pulse", "name device pitch 'match", "loop a note on the matching steps of a 4/4 bar", pulseCommand, 4},
		{"unloop", "name", "remove a loop", unloopCommand, 1},
		{"loops", "", "list loops", loopsCommand, 0},
		{"modules", "", "show the modules of the synth rack", modulesCommand, 0},
		{"help", "", "show this help", helpCommand, 0},
	}
}

func setCommand(e *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return nil, err
	}
	switch v := args[2].(type) {
	case dub.Number:
		return nil, e.setProp(device, prop, float64(v))
	case dub.String:
		return nil, e.setProp(device, prop, string(v))
	case dub.Identifier:
		return nil, e.setProp(device, prop, string(v))
	default:
		return nil, fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(e *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args, &device, &prop); err != nil {
		return nil, err
	}
	v, err := e.getProp(device, prop)
	if err != nil {
		return nil, err
	}
	return propNode(v), nil
}

func propsCommand(e *env, args []dub.Node) (dub.Node, error) {
	var device string
	if err := readArgs(args, &device); err != nil {
		return nil, err
	}
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	keyed, ok := dev.(interface{ Keys() []string })
	if !ok {
		return nil, fmt.Errorf("device has no property list: %s", device)
	}
	for _, key := range keyed.Keys() {
		v, err := dev.Get(key)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(e.out, "%s = %v\n", key, propNode(v))
	}
	return nil, nil
}

// propNode converts a property value into something printable.
func propNode(v interface{}) dub.Node {
	switch v := v.(type) {
	case float64:
		return dub.Number(v)
	case int:
		return dub.Number(v)
	case string:
		return dub.String(v)
	case map[string]*audio.Clip:
		return dub.String(fmt.Sprintf("%d clips", len(v)))
	default:
		return dub.String(fmt.Sprint(v))
	}
}

func presetCommand(e *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, audio.LoadPreset(name, e.synth)
}

func presetsCommand(e *env, args []dub.Node) (dub.Node, error) {
	for _, name := range audio.Presets() {
		fmt.Fprintln(e.out, name)
	}
	return nil, nil
}

func playCommand(e *env, args []dub.Node) (dub.Node, error) {
	if len(args) > 3 {
		return nil, fmt.Errorf("wrong number of arguments: want at most 3, got %d", len(args))
	}
	var (
		pitch    int
		velocity = defaultVelocity
		seconds  = defaultNoteLength
	)
	slots := []interface{}{&pitch, &velocity, &seconds}
	if err := readArgs(args, slots[:len(args)]...); err != nil {
		return nil, err
	}
	if err := checkPitch(pitch); err != nil {
		return nil, err
	}
	if velocity < 1 || velocity > 127 {
		return nil, fmt.Errorf("velocity out of range 1-127: %d", velocity)
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("note length must be positive: %v", seconds)
	}
	e.synth.PlayNote(0, pitch, velocity, int(seconds*e.synth.SampleRate()))
	return nil, nil
}

func stopCommand(e *env, args []dub.Node) (dub.Node, error) {
	var pitch int
	if err := readArgs(args, &pitch); err != nil {
		return nil, err
	}
	if err := checkPitch(pitch); err != nil {
		return nil, err
	}
	e.synth.Stop(pitch)
	return nil, nil
}

func checkPitch(pitch int) error {
	if pitch < 0 || pitch > 127 {
		return fmt.Errorf("pitch out of range 0-127: %d", pitch)
	}
	return nil
}

func (e *env) playable(device string) (audio.Playable, error) {
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	playable, ok := dev.(audio.Playable)
	if !ok {
		return nil, fmt.Errorf("device is not playable: %s", device)
	}
	return playable, nil
}

func loopCommand(e *env, args []dub.Node) (dub.Node, error) {
	var name, device string
	var length float64
	var pattern []dub.Node
	if err := readArgs(args, &name, &device, &length, &pattern); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("loop length must be positive: %v", length)
	}
	playable, err := e.playable(device)
	if err != nil {
		return nil, err
	}
	clip := audio.NewClip(length, playable)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return nil, err
	}
	e.sequencer.AddClip(name, clip)
	return nil, nil
}

func evalPattern(pattern dub.Array, clip *audio.Clip, divLength float64, pos *float64) error {
	noteLength := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Number:
			clip.AddNote(*pos, int(v), noteLength)
			*pos += noteLength
		case dub.Identifier:
			if v != "r" { // rest
				return fmt.Errorf("invalid %q in pattern %v", v, pattern)
			}
			*pos += noteLength
		case dub.Tuple:
			for _, item := range v {
				if i, ok := item.(dub.Number); ok {
					clip.AddNote(*pos, int(i), noteLength)
				}
			}
			*pos += noteLength
		case dub.Array:
			if err := evalPattern(v, clip, noteLength, pos); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid %q in pattern %v", v, pattern)
		}
	}
	return nil
}

func pulseCommand(e *env, args []dub.Node) (dub.Node, error) {
	var name, device string
	var pitch int
	var expr dub.MatchExpr
	if err := readArgs(args, &name, &device, &pitch, &expr); err != nil {
		return nil, err
	}
	if err := checkPitch(pitch); err != nil {
		return nil, err
	}
	playable, err := e.playable(device)
	if err != nil {
		return nil, err
	}
	clip, err := pulseClip(expr, pitch, playable)
	if err != nil {
		return nil, err
	}
	e.sequencer.AddClip(name, clip)
	return nil, nil
}

// pulseClip turns the matching steps of a bar into notes one step long.
func pulseClip(expr dub.MatchExpr, pitch int, p audio.Playable) (*audio.Clip, error) {
	steps, err := expr.Steps(pulseBeats, pulseUnit, pulseSteps)
	if err != nil {
		return nil, err
	}
	clip := audio.NewClip(pulseBeats, p)
	step := float64(pulseBeats) / float64(len(steps))
	for i, on := range steps {
		if on > 0 {
			clip.AddNote(float64(i)*step, pitch, step)
		}
	}
	return clip, nil
}

func unloopCommand(e *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	if !e.sequencer.RemoveClip(name) {
		return nil, fmt.Errorf("no such loop: %s", name)
	}
	return nil, nil
}

func loopsCommand(e *env, args []dub.Node) (dub.Node, error) {
	for _, name := range e.sequencer.Clips() {
		fmt.Fprintln(e.out, name)
	}
	return nil, nil
}

func modulesCommand(e *env, args []dub.Node) (dub.Node, error) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	rack := e.synth.Rack()
	controls, err := rack.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	renderModules(e.out, rack.Modules(), controls)
	return nil, nil
}

func helpCommand(e *env, args []dub.Node) (dub.Node, error) {
	renderHelp(e.out, commands)
	return nil, nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = float64(n)
		case *int:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = int(n)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		case *dub.MatchExpr:
			expr, ok := arg.(dub.MatchExpr)
			if !ok {
				return fmt.Errorf("argument error: expected a match expression")
			}
			*p = expr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
