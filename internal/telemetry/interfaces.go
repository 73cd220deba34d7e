// Package telemetry holds the diagnostic logging and metrics seams shared by
// the runtime components, plus their Prometheus and in-process backings.
package telemetry

import (
	"log"

	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

// Logger is the printf-style diagnostic log the components write to.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts a function to Logger. A nil func discards.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// StdLogger is a Logger backed by a standard library logger.
type StdLogger struct {
	base *log.Logger
}

// WrapLogger returns a Logger over base. A nil base discards.
func WrapLogger(base *log.Logger) *StdLogger {
	return &StdLogger{base: base}
}

func (l *StdLogger) Printf(format string, args ...any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Printf(format, args...)
}

// StandardLogger exposes the underlying logger so the event router can use
// it for its own diagnostics.
func (l *StdLogger) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.base
}

// Metrics is the counter and gauge sink the components report to. Add
// accumulates; Store overwrites.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// Counters reports into an in-process logging.Metrics store.
type Counters struct {
	store *logging.Metrics
}

// WrapMetrics returns Metrics over store. A nil store discards.
func WrapMetrics(store *logging.Metrics) *Counters {
	return &Counters{store: store}
}

func (c *Counters) Add(key string, delta uint64) {
	if c != nil {
		c.store.TelemetryAdd(key, delta)
	}
}

func (c *Counters) Store(key string, value uint64) {
	if c != nil {
		c.store.TelemetryStore(key, value)
	}
}

var (
	_ Logger  = (*StdLogger)(nil)
	_ Metrics = (*Counters)(nil)
)
