// Package cmd assembles the CLI command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkessler/fakesight-go/cmd/classify"
	"github.com/mkessler/fakesight-go/cmd/evaluate"
	"github.com/mkessler/fakesight-go/cmd/live"
	"github.com/mkessler/fakesight-go/cmd/models"
	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// RootCommand creates the root command with global flags and all
// subcommands.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fakesight",
		Short: "Detect AI-generated images",
		Long: `fakesight classifies images as real or AI-generated using an ensemble of
forensic-augmented EfficientNetV2 checkpoints.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(settings); err != nil {
			return err
		}
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}

		level := logger.LogLevelInfo
		if settings.Debug {
			level = logger.LogLevelDebug
		}
		logger.SetGlobal(logger.NewSlogLogger(os.Stderr, level, false))
		return nil
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		classify.Command(settings),
		evaluate.Command(settings),
		live.Command(settings),
		models.Command(settings),
	)
	return rootCmd
}

// setupFlags declares the global flags and binds them into viper so flag,
// config file and default resolve through one path.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	flags := rootCmd.PersistentFlags()

	flags.BoolP("debug", "d", settings.Debug, "Enable debug output")
	flags.String("model", settings.Detector.ModelPath, "Single checkpoint file (.tflite or .onnx)")
	flags.String("models", settings.Detector.ModelDir, "Directory of checkpoints for an ensemble")
	flags.String("arch", settings.Detector.Arch, "Backbone architecture, detected from the filename when empty")
	flags.Float64P("threshold", "t", settings.Detector.Threshold, "Decision threshold override, negative keeps per-model thresholds")
	flags.Bool("tta", settings.Detector.TTA.Enabled, "Enable test-time augmentation")
	flags.Int("tta-augments", settings.Detector.TTA.Augments, "Upper bound on augmentation variants per image")
	flags.Int("img-size", settings.Detector.ImageSize, "Inference image size")
	flags.IntP("batch-size", "b", settings.Detector.BatchSize, "Batch size for inference")
	flags.IntP("workers", "w", settings.Detector.Workers, "Preprocessing workers, 0 runs synchronously")
	flags.Bool("strict", settings.Detector.StrictLoad, "Reject checkpoints whose layout differs from the expected stages")
	flags.Float64("confidence-floor", settings.Detector.ConfidenceFloor, "Minimum member weight in ensemble voting")
	flags.Bool("progress", settings.Output.Progress, "Print per-image results as they are produced")

	bindings := map[string]string{
		"debug":                    "debug",
		"detector.modelpath":       "model",
		"detector.modeldir":        "models",
		"detector.arch":            "arch",
		"detector.threshold":       "threshold",
		"detector.tta.enabled":     "tta",
		"detector.tta.augments":    "tta-augments",
		"detector.imagesize":       "img-size",
		"detector.batchsize":       "batch-size",
		"detector.workers":         "workers",
		"detector.strictload":      "strict",
		"detector.confidencefloor": "confidence-floor",
		"output.progress":          "progress",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			cobra.CheckErr(err)
		}
	}
}
