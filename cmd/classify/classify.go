// Package classify implements the one-shot classification command.
package classify

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/console"
	"github.com/mkessler/fakesight-go/internal/detector"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/imagery"
)

// Command creates the classify command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [paths...]",
		Short: "Classify image files or directories as real or fake",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args, cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, inputs []string, out io.Writer) error {
	images, unresolved := imagery.ExpandInputs(inputs)
	for _, path := range unresolved {
		fmt.Fprintf(out, "WARNING: no images found in %q\n", path)
	}
	if len(images) == 0 {
		return errors.Newf("no images to classify").
			Component("classify").
			Category(errors.CategoryValidation).
			Build()
	}

	predictor, err := detector.NewPredictorFromSettings(settings)
	if err != nil {
		return err
	}
	defer predictor.Close()

	override := settings.ThresholdOverride()
	if settings.Output.Progress {
		console.PrintThresholdInfo(out, detector.DisplayThreshold(predictor, override))
	}

	var progress detector.ProgressFunc
	if settings.Output.Progress {
		progress = func(p detector.Prediction) { console.PrintPrediction(out, p) }
	}

	result, err := predictor.Predict(ctx, images, detector.PredictOptions{
		UseTTA:    settings.Detector.TTA.Enabled,
		Override:  override,
		BatchSize: settings.Detector.BatchSize,
		Workers:   settings.Detector.Workers,
		Progress:  progress,
	})
	if err != nil {
		return err
	}

	if settings.Output.Progress && len(images) > 1 {
		console.PrintSummary(out, result.Summary)
	}
	return nil
}
