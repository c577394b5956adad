package conf

import (
	"github.com/mkessler/fakesight-go/internal/errors"
)

func validationError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("conf").
		Category(errors.CategoryValidation).
		Build()
}

// ValidateSettings checks that the settings are internally consistent.
func ValidateSettings(s *Settings) error {
	d := &s.Detector

	if d.ImageSize <= 0 {
		return validationError("image size must be positive, got %d", d.ImageSize)
	}
	if d.BatchSize <= 0 {
		return validationError("batch size must be positive, got %d", d.BatchSize)
	}
	if d.Workers < 0 {
		return validationError("workers must not be negative, got %d", d.Workers)
	}
	if d.Threshold >= 0 && d.Threshold > 1 {
		return validationError("threshold must be within [0, 1], got %g", d.Threshold)
	}
	if d.ConfidenceFloor < 0 || d.ConfidenceFloor > 1 {
		return validationError("confidence floor must be within [0, 1], got %g", d.ConfidenceFloor)
	}
	if d.TTA.Augments < 1 {
		return validationError("tta augments must be at least 1, got %d", d.TTA.Augments)
	}
	if d.Runtime.Threads < 0 {
		return validationError("runtime threads must not be negative, got %d", d.Runtime.Threads)
	}
	return nil
}
