package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds a zerolog-backed Logger. When APP_ENV is "dev" the
// output is a human-readable console stream, otherwise JSON lines. Every
// entry carries the component field.
func NewZerologLogger(component string) Logger {
	z := zerolog.New(baseWriter()).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &zerologLogger{log: z}
}

func baseWriter() zerolog.LevelWriter {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		return zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return zerolog.MultiLevelWriter(os.Stdout)
}

func (l *zerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *zerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *zerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *zerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *zerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
