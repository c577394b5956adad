package conf

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default inference parameters. Threshold -1 means no override, the value
// from a checkpoint's sidecar file or the built-in default applies.
const (
	DefaultImageSize       = 448
	DefaultTTAAugments     = 8
	DefaultBatchSize       = 32
	DefaultConfidenceFloor = 0.1
)

func setDefaultConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "fakesight"))
	}

	viper.SetDefault("debug", false)

	viper.SetDefault("detector.modelpath", "")
	viper.SetDefault("detector.modeldir", "")
	viper.SetDefault("detector.arch", "")
	viper.SetDefault("detector.imagesize", DefaultImageSize)
	viper.SetDefault("detector.threshold", -1.0)
	viper.SetDefault("detector.confidencefloor", DefaultConfidenceFloor)
	viper.SetDefault("detector.batchsize", DefaultBatchSize)
	viper.SetDefault("detector.workers", 0)
	viper.SetDefault("detector.strictload", false)
	viper.SetDefault("detector.tta.enabled", false)
	viper.SetDefault("detector.tta.augments", DefaultTTAAugments)
	viper.SetDefault("detector.runtime.threads", 0)
	viper.SetDefault("detector.runtime.usexnnpack", true)

	viper.SetDefault("output.progress", true)
}
