// Package console renders predictions, summaries and tables for the CLI.
package console

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/mkessler/fakesight-go/internal/detector"
)

// PrintPrediction writes the one-line verdict for an image. Ground-truth
// mismatches are flagged with a MISCLASSIFIED prefix.
func PrintPrediction(w io.Writer, p detector.Prediction) {
	name := baseName(p.Path)

	switch {
	case p.Truth == nil:
		fmt.Fprintf(w, "img: %s pred: %s prob: %.3f conf: %.3f\n",
			name, p.Label, p.Probability, p.Confidence)
	case p.Misclassified():
		fmt.Fprintf(w, "MISCLASSIFIED: img: %s true: %s pred: %s prob: %.3f conf: %.3f\n",
			name, *p.Truth, p.Label, p.Probability, p.Confidence)
	default:
		fmt.Fprintf(w, "img: %s true: %s pred: %s prob: %.3f conf: %.3f\n",
			name, *p.Truth, p.Label, p.Probability, p.Confidence)
	}
}

// PrintSummary writes the run totals. Shown only for multi-image runs by the
// callers.
func PrintSummary(w io.Writer, s detector.Summary) {
	fmt.Fprintf(w, "\nSUMMARY: %d REAL, %d FAKE\n", s.Real, s.Fake)
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "SKIPPED: %d undecodable image(s)\n", len(s.Skipped))
	}
}

// PrintThresholdInfo writes which decision threshold a run uses. A nil
// threshold means an ensemble deciding per model.
func PrintThresholdInfo(w io.Writer, threshold *float64) {
	if threshold == nil {
		fmt.Fprintln(w, "INFO: USED_THRESHOLD: per-model")
		return
	}
	fmt.Fprintf(w, "INFO: USED_THRESHOLD: %.3f\n", *threshold)
}

func baseName(path string) string {
	return filepath.Base(path)
}
