package export

import "log"

// Logger is the minimal logging seam the core depends on. It defaults to
// the standard library's log.Default(), matching pkg/storage/badger.go's
// use of the log package directly; callers embedding the engine (e.g. a
// future Bolt/HTTP server command) can supply their own to redirect output.
type Logger interface {
	Printf(format string, args ...any)
}

// stdLogger adapts the standard library logger to the Logger interface.
type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Printf(format string, args ...any) {
	s.l.Printf(format, args...)
}

// DefaultLogger returns a Logger backed by log.Default().
func DefaultLogger() Logger {
	return stdLogger{l: log.Default()}
}
