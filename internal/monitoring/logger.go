// Package monitoring holds the process-wide diagnostic logger used by the
// store, the HTTP server and the command line.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that tags each line with prefix. It resolves
// Logf on every call so a later SetLogger still applies.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// Timed logs label with the time elapsed since start and returns the
// duration.
func Timed(label string, start time.Time) time.Duration {
	d := time.Since(start)
	Logf("%s took %v", label, d.Round(time.Microsecond))
	return d
}
