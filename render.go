package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mrdg/rack/audio"
	"github.com/mrdg/rack/dub"
)

// renderModules writes one row per module: its tag, its kind and the controls
// it had when the snapshot was taken.
func renderModules(w io.Writer, modules []audio.Module, controls audio.Controls) {
	var maxKindLen int
	for _, m := range modules {
		if n := len(kindName(m)); n > maxKindLen {
			maxKindLen = n
		}
	}
	for _, m := range modules {
		tag := m.Tag()
		kind := kindName(m)
		kind += strings.Repeat(" ", maxKindLen-len(kind))

		var cs []audio.Control
		if int(tag) < len(controls) {
			cs = controls[tag]
		}
		row := fmt.Sprintf("%s %s %s",
			colorize(fmt.Sprintf("%4d", tag), colorGreen),
			colorize(kind, colorBlue),
			formatControls(audio.ParamNames(m), cs))
		if s, ok := m.(*audio.Sampler); ok {
			row += " " + colorize(displayName(s.Sound().File()), colorMagenta)
		}
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

func formatControls(names []string, controls []audio.Control) string {
	parts := make([]string, len(controls))
	for i, c := range controls {
		name := strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		parts[i] = name + "=" + c.String()
	}
	return strings.Join(parts, " ")
}

func kindName(m audio.Module) string {
	name := fmt.Sprintf("%T", m)
	return name[strings.LastIndex(name, ".")+1:]
}

func renderHelp(w io.Writer, cmds []command) {
	var maxLen int
	usages := make([]string, len(cmds))
	for i, cmd := range cmds {
		usages[i] = strings.TrimSpace(cmd.name + " " + cmd.args)
		if len(usages[i]) > maxLen {
			maxLen = len(usages[i])
		}
	}
	for i, cmd := range cmds {
		pad := strings.Repeat(" ", maxLen-len(usages[i]))
		fmt.Fprintf(w, "%s%s  %s\n", colorize(usages[i], colorGreen), pad, cmd.help)
	}
}

// renderSyntaxError echoes line with a marker under the position of err.
func renderSyntaxError(w io.Writer, line string, err *dub.SyntaxError) {
	pos := err.Pos
	if pos > len(line) {
		pos = len(line)
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%s%s %s\n", strings.Repeat(" ", pos), colorize("^", colorRed), err.Msg)
}

func displayName(filename string) string {
	filename = filepath.Base(filename)
	return filename[:len(filename)-len(filepath.Ext(filename))]
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
