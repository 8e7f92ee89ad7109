// Package logger carries the zerolog-backed implementation of the core
// logging contract used by the scheduling service.
package logger

import corelogger "github.com/atelio/fieldops/core/logger"

// Logger re-exports the core contract so infra packages need a single import.
type Logger = corelogger.Logger

// New returns a Logger tagging every line with the given component. Output
// format follows the APP_ENV environment variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
