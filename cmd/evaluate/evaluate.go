// Package evaluate implements the labeled test-set evaluation command.
package evaluate

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/console"
	"github.com/mkessler/fakesight-go/internal/detector"
)

// Command creates the evaluate command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <test-dir>",
		Short: "Evaluate against a test directory with real/ and fake/ subdirectories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args[0], cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, testDir string, out io.Writer) error {
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

	result, err := detector.Evaluate(ctx, predictor, testDir, detector.PredictOptions{
		UseTTA:    settings.Detector.TTA.Enabled,
		Override:  override,
		BatchSize: settings.Detector.BatchSize,
		Workers:   settings.Detector.Workers,
		Progress:  progress,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nFINAL TEST STATISTICS (%d real, %d fake):\n",
		result.RealImages, result.FakeImages)
	fmt.Fprintln(out, console.MetricsTable(result.Metrics))
	if len(result.Summary.Skipped) > 0 {
		fmt.Fprintf(out, "SKIPPED: %d undecodable image(s)\n", len(result.Summary.Skipped))
	}
	return nil
}
