// Package stdlogger bridges printf style logger interfaces onto the global zerolog logger.
package stdlogger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger satisfies printf style logger interfaces such as gorm's logger.Writer.
type Logger struct {
	// level used by Printf.
	level zerolog.Level
	// component is attached to every event when not empty.
	component string
}

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the level Printf writes with. Default is debug.
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.level = level
	}
}

// WithComponent tags every event with a component field.
func WithComponent(name string) Option {
	return func(l *Logger) {
		l.component = name
	}
}

// New returns a Logger writing to the current global zerolog logger.
func New(opts ...Option) *Logger {
	l := &Logger{level: zerolog.DebugLevel}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Printf logs at the configured level.
func (l *Logger) Printf(format string, v ...any) {
	l.event(l.level).Msgf(format, v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...any) {
	l.event(zerolog.DebugLevel).Msgf(format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...any) {
	l.event(zerolog.InfoLevel).Msgf(format, v...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, v ...any) {
	l.event(zerolog.WarnLevel).Msgf(format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...any) {
	l.event(zerolog.ErrorLevel).Msgf(format, v...)
}
