package sqldbpool

import (
	"log"
	"os"
)

// Logger is the diagnostic and error sink the pool emits records to. It is
// stateless from the pool's point of view: the pool never inspects or
// retains anything a Logger returns.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger adapts the standard library's *log.Logger to Logger. It is the
// default sink when none is supplied to New.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes leveled lines to stderr through
// the standard library's log package.
func NewStdLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	s.l.Printf("DEBUG "+format, args...)
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("ERROR "+format, args...)
}

// nopLogger discards everything. Useful for tests that assert on pool
// behaviour rather than log output.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NewNopLogger returns a Logger that discards every record.
func NewNopLogger() Logger { return nopLogger{} }
