// Package conf handles loading and managing application settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mkessler/fakesight-go/internal/errors"
)

// TTASettings controls test-time augmentation.
type TTASettings struct {
	Enabled  bool `yaml:"enabled"`  // average predictions over augmented variants
	Augments int  `yaml:"augments"` // upper bound on variants per image
}

// RuntimeSettings holds inference backend tuning.
type RuntimeSettings struct {
	Threads    int  `yaml:"threads"`    // interpreter threads, 0 selects automatically
	UseXNNPACK bool `yaml:"usexnnpack"` // enable the XNNPACK delegate for TFLite models
}

// DetectorSettings holds model selection and inference parameters.
type DetectorSettings struct {
	ModelPath       string          `yaml:"modelpath"`       // single checkpoint file
	ModelDir        string          `yaml:"modeldir"`        // directory of checkpoints for ensembles
	Arch            string          `yaml:"arch"`            // explicit architecture, empty means detect from filename
	ImageSize       int             `yaml:"imagesize"`       // square input resolution
	Threshold       float64         `yaml:"threshold"`       // decision threshold override, negative means unset
	ConfidenceFloor float64         `yaml:"confidencefloor"` // minimum member weight in ensemble voting
	BatchSize       int             `yaml:"batchsize"`
	Workers         int             `yaml:"workers"` // decode workers, 0 selects automatically
	StrictLoad      bool            `yaml:"strictload"`
	TTA             TTASettings     `yaml:"tta"`
	Runtime         RuntimeSettings `yaml:"runtime"`
}

// OutputSettings controls console output.
type OutputSettings struct {
	Progress bool `yaml:"progress"` // per-image results as they are produced
}

// Settings contains all configuration options for the application.
type Settings struct {
	Debug    bool             `yaml:"debug"`
	Detector DetectorSettings `yaml:"detector"`
	Output   OutputSettings   `yaml:"output"`
}

// ThresholdOverride returns the user-supplied decision threshold, or nil when
// the sidecar or default value should apply.
func (s *Settings) ThresholdOverride() *float64 {
	if s.Detector.Threshold < 0 {
		return nil
	}
	t := s.Detector.Threshold
	return &t
}

// Load reads the configuration into a validated Settings struct. A missing
// config file is not an error, defaults apply.
func Load() (*Settings, error) {
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("unmarshaling config: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings writes the settings as YAML to the given path, creating parent
// directories as needed.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(fmt.Errorf("marshaling settings: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}
