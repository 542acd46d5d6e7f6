package log

import (
	"bytes"
	"errors"
	"slices"

	"github.com/rs/zerolog"
)

const (
	// Silent is the least verbose logging level, which effectively produces no log messages.
	Silent Level = iota

	// Error reports connection failures and other error messages.
	Error

	// Info is [Error], but also includes informational messages.
	Info

	// Debug is the most verbose logging level, including per-connection I/O traces.
	Debug
)

var levels = []levelDesc{
	{"silent", zerolog.Disabled},
	{"error", zerolog.ErrorLevel},
	{"info", zerolog.InfoLevel},
	{"debug", zerolog.DebugLevel},
}

type levelDesc struct {
	text  string
	level zerolog.Level
}

// Level determines severity of log messages.
type Level int8

func (l Level) String() string {
	text, err := l.MarshalText()
	if err != nil {
		return ""
	}
	return string(text)
}

func (l Level) MarshalText() ([]byte, error) {
	if l < Silent || l > Debug {
		return nil, errors.New("unknown log level")
	}
	return []byte(levels[l].text), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	textStr := string(bytes.ToLower(text))
	i := slices.IndexFunc(levels, func(l levelDesc) bool {
		return l.text == textStr
	})
	if i == -1 {
		return errors.New("unknown log level")
	}

	*l = Level(i)
	return nil
}

func makeZerologLevel(l Level) zerolog.Level {
	if l < Silent || l > Debug {
		panic("unknown log level")
	}
	return levels[l].level
}
