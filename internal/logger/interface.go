package logger

import "codeberg.org/mutker/scrapster/internal/errors"

// Logger defines the interface for logging operations. Components take
// a Logger so tests can inject Nop().
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	With(component string) Logger
}
