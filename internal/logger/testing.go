package logger

import (
	"bytes"
	"io"
)

// NewBufferLogger returns a debug-level logger writing JSON records into buf.
// Intended for tests that assert on log output.
func NewBufferLogger(buf *bytes.Buffer) Logger {
	return NewSlogLogger(buf, LogLevelDebug, true)
}

// Discard returns a logger that drops all records. Intended for silent tests.
func Discard() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, false)
}
