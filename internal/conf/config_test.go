package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/fakesight-go/internal/errors"
)

func defaultSettings() *Settings {
	return &Settings{
		Detector: DetectorSettings{
			ImageSize:       DefaultImageSize,
			Threshold:       -1,
			ConfidenceFloor: DefaultConfidenceFloor,
			BatchSize:       DefaultBatchSize,
			TTA:             TTASettings{Augments: DefaultTTAAugments},
		},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Settings) {},
		},
		{
			name:   "negative threshold means unset",
			mutate: func(s *Settings) { s.Detector.Threshold = -1 },
		},
		{
			name:    "zero image size",
			mutate:  func(s *Settings) { s.Detector.ImageSize = 0 },
			wantErr: "image size",
		},
		{
			name:    "zero batch size",
			mutate:  func(s *Settings) { s.Detector.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "negative workers",
			mutate:  func(s *Settings) { s.Detector.Workers = -1 },
			wantErr: "workers",
		},
		{
			name:    "threshold above one",
			mutate:  func(s *Settings) { s.Detector.Threshold = 1.5 },
			wantErr: "threshold",
		},
		{
			name:    "confidence floor above one",
			mutate:  func(s *Settings) { s.Detector.ConfidenceFloor = 1.1 },
			wantErr: "confidence floor",
		},
		{
			name:    "zero tta augments",
			mutate:  func(s *Settings) { s.Detector.TTA.Augments = 0 },
			wantErr: "tta augments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := defaultSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, &errors.EnhancedError{Category: errors.CategoryValidation}))
		})
	}
}

func TestThresholdOverride(t *testing.T) {
	t.Parallel()

	s := defaultSettings()
	assert.Nil(t, s.ThresholdOverride())

	s.Detector.Threshold = 0.35
	override := s.ThresholdOverride()
	require.NotNil(t, override)
	assert.InDelta(t, 0.35, *override, 1e-9)

	// The override is a copy, later settings changes do not affect it.
	s.Detector.Threshold = 0.9
	assert.InDelta(t, 0.35, *override, 1e-9)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	s := defaultSettings()
	s.Debug = true
	s.Detector.ModelDir = "/models"
	s.Detector.TTA.Enabled = true

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveSettings(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "modeldir: /models")
	assert.Contains(t, string(data), "debug: true")
}
