package logger

import (
	"os"
	"sync"
)

var (
	globalMu sync.RWMutex
	global   Logger = NewSlogLogger(os.Stderr, LogLevelInfo, false)
)

// Global returns the process-wide logger. Packages obtain module-scoped
// loggers from it once, typically guarded by sync.Once.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetGlobal replaces the process-wide logger. Intended to be called once
// during startup, before any package logger is created.
func SetGlobal(l Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}
