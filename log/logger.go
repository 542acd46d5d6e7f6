// Package log provides structured logging for connection establishment.
package log

import (
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Discard produces no log output and is safe to share.
var Discard = New(WithLevel(Silent), WithWriter(io.Discard))

func New(ops ...Option) *Logger {
	defaults := []Option{
		WithLogger(&Logger{zerolog.New(nil).
			With().Timestamp().Logger(),
		}),
		WithWriter(os.Stderr),
		WithLevel(Info),
	}

	var l Logger
	for _, op := range slices.Concat(defaults, ops) {
		op(&l)
	}
	return &l
}

func WithLogger(l *Logger) Option {
	return func(ll *Logger) {
		ll.log = l.log
	}
}

func WithFields(f Fields) Option {
	return func(l *Logger) {
		l.log = l.log.With().Fields(map[string]any(f)).Logger()
	}
}

func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.log = l.log.Level(makeZerologLevel(level))
	}
}

func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		out := w
		if isTerminal(w) {
			out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
				w.TimeFormat = time.DateTime
				w.Out = out
			})
		}
		l.log = l.log.Output(out)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return true
	}
	return false
}

type Option func(*Logger)

type Fields map[string]any

type Logger struct {
	log zerolog.Logger
}

// With returns a copy of the logger with the given fields attached to every message.
func (l *Logger) With(f Fields) *Logger {
	return &Logger{l.log.With().Fields(map[string]any(f)).Logger()}
}

func (l *Logger) Fatal(msg string, err error) {
	l.logEntry(zerolog.FatalLevel, msg, nil, err)
	os.Exit(1)
}

func (l *Logger) Error(msg string, err error) {
	l.logEntry(zerolog.ErrorLevel, msg, nil, err)
}

func (l *Logger) Info(msg string, f Fields) {
	l.logEntry(zerolog.InfoLevel, msg, f, nil)
}

func (l *Logger) Debug(msg string, f Fields) {
	l.logEntry(zerolog.DebugLevel, msg, f, nil)
}

// DebugEnabled reports whether messages at [Debug] level are recorded.
func (l *Logger) DebugEnabled() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}

func (l *Logger) logEntry(level zerolog.Level, msg string, f Fields, err error) {
	entry := l.log.WithLevel(level)
	if err != nil {
		entry = entry.Err(err)
	}

	entry.Fields(map[string]any(f)).
		Msg(msg)
}
