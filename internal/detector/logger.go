// Package detector implements checkpoint resolution, batched ensemble
// inference and evaluation for the fake-image classifier.
package detector

import (
	"sync"

	"github.com/mkessler/fakesight-go/internal/logger"
)

var (
	loggerOnce    sync.Once
	packageLogger logger.Logger
)

// getLogger returns the package logger, scoped to the detector module.
func getLogger() logger.Logger {
	loggerOnce.Do(func() {
		packageLogger = logger.Global().Module("detector")
	})
	return packageLogger
}
