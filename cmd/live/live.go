// Package live implements the interactive session command. Models stay
// loaded between inputs and unchanged files are served from a verdict cache.
package live

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/console"
	"github.com/mkessler/fakesight-go/internal/detector"
	"github.com/mkessler/fakesight-go/internal/imagery"
)

// Command creates the live command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Interactive mode, models stay loaded for continuous classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, in io.Reader, out io.Writer) error {
	predictor, err := detector.NewPredictorFromSettings(settings)
	if err != nil {
		return err
	}

	session := detector.NewSession(predictor, settings)
	defer session.Close()

	printBanner(out, session)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "\n> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "\n> ")
			continue
		}
		if isExit(line) {
			fmt.Fprintln(out, "Live mode ended.")
			return nil
		}

		if err := dispatch(ctx, session, line, out); err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
		}
		fmt.Fprint(out, "\n> ")
	}
	return scanner.Err()
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

func dispatch(ctx context.Context, session *detector.Session, line string, out io.Writer) error {
	lower := strings.ToLower(line)

	switch {
	case lower == "tta":
		state := "disabled"
		if session.ToggleTTA() {
			state = "enabled"
		}
		fmt.Fprintf(out, "TTA %s\n", state)
		return nil

	case lower == "info":
		printInfo(out, session)
		return nil

	case strings.HasPrefix(lower, "batch "):
		n, err := strconv.Atoi(strings.TrimSpace(line[len("batch "):]))
		if err != nil {
			return fmt.Errorf("invalid batch size, use: batch <number>")
		}
		if err := session.SetBatchSize(n); err != nil {
			return err
		}
		fmt.Fprintf(out, "Batch size set to %d\n", session.BatchSize())
		return nil

	case strings.HasPrefix(lower, "workers "):
		n, err := strconv.Atoi(strings.TrimSpace(line[len("workers "):]))
		if err != nil {
			return fmt.Errorf("invalid worker count, use: workers <number>")
		}
		if err := session.SetWorkers(n); err != nil {
			return err
		}
		fmt.Fprintf(out, "Workers set to %d\n", session.Workers())
		return nil

	case strings.HasPrefix(lower, "test "):
		dir := strings.Trim(strings.TrimSpace(line[len("test "):]), `"'`)
		return runEvaluation(ctx, session, dir, out)

	default:
		return classifyPaths(ctx, session, line, out)
	}
}

func runEvaluation(ctx context.Context, session *detector.Session, dir string, out io.Writer) error {
	fmt.Fprintf(out, "INFO: evaluating %q...\n", dir)
	console.PrintThresholdInfo(out, session.DisplayThreshold())

	result, err := session.Evaluate(ctx, dir,
		func(p detector.Prediction) { console.PrintPrediction(out, p) })
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nFINAL TEST STATISTICS (%d real, %d fake):\n",
		result.RealImages, result.FakeImages)
	fmt.Fprintln(out, console.MetricsTable(result.Metrics))
	return nil
}

func classifyPaths(ctx context.Context, session *detector.Session, line string, out io.Writer) error {
	images, unresolved := imagery.ExpandInputs(splitArgs(line))
	for _, path := range unresolved {
		fmt.Fprintf(out, "WARNING: no images found in %q\n", path)
	}
	if len(images) == 0 {
		fmt.Fprintln(out, "WARNING: no valid images found")
		return nil
	}

	fmt.Fprintf(out, "INFO: processing %d image(s)...\n", len(images))
	result, err := session.Classify(ctx, images,
		func(p detector.Prediction) { console.PrintPrediction(out, p) })
	if err != nil {
		return err
	}

	if len(images) > 1 {
		console.PrintSummary(out, result.Summary)
	}
	return nil
}

func printBanner(out io.Writer, session *detector.Session) {
	info := session.Info()

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "LIVE MODE: %d model(s) loaded and ready\n", len(info.Models))
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, `  <paths>          classify images or folders, quotes allowed`)
	fmt.Fprintln(out, `  test <dir>       evaluate a folder with real/ and fake/ subdirs`)
	fmt.Fprintf(out, "  tta              toggle test-time augmentation (currently %s)\n", onOff(info.TTA))
	fmt.Fprintf(out, "  batch <n>        change the batch size (currently %d)\n", info.BatchSize)
	fmt.Fprintf(out, "  workers <n>      change the worker count (currently %d)\n", info.Workers)
	fmt.Fprintln(out, "  info             show loaded models and settings")
	fmt.Fprintln(out, "  exit             leave live mode")
}

func printInfo(out io.Writer, session *detector.Session) {
	info := session.Info()
	fmt.Fprintln(out, console.ModelsTable(info.Models))
	fmt.Fprintf(out, "Settings: TTA=%s, batch size=%d, workers=%d\n",
		onOff(info.TTA), info.BatchSize, info.Workers)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
