// Package log configures the logrus logger shared by the rack commands.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv turns on debug logging when it parses as a true boolean.
const DebugEnv = "RACK_DEBUG"

var debug, _ = strconv.ParseBool(os.Getenv(DebugEnv))

// Logger is what the audio and midi packages log to.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

// GetLogger returns a logger writing to stderr, leaving stdout to the REPL.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !debug})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
