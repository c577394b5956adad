package detector

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/imagery"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// ConfusionMatrix counts verdicts against ground truth. Rows are truth,
// columns are prediction.
type ConfusionMatrix struct {
	TrueReal  int // real predicted real
	FalseFake int // real predicted fake
	FalseReal int // fake predicted real
	TrueFake  int // fake predicted fake
}

// Metrics are the binary classification scores of an evaluation run, with
// FAKE as the positive class.
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Confusion ConfusionMatrix
}

// EvalResult bundles the metrics with the per-image predictions.
type EvalResult struct {
	Metrics     Metrics
	Predictions []Prediction
	Summary     Summary
	RealImages  int
	FakeImages  int
}

func evalError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("detector").
		Category(errors.CategoryEvaluation).
		Build()
}

// Evaluate runs the predictor over a labeled test directory. The directory
// must contain "real" and "fake" subdirectories and at least one image
// between them.
func Evaluate(ctx context.Context, p Predictor, testDir string, opts PredictOptions) (*EvalResult, error) {
	realDir := filepath.Join(testDir, "real")
	fakeDir := filepath.Join(testDir, "fake")

	for _, dir := range []string{realDir, fakeDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, evalError("test directory must contain real and fake subdirectories, missing %s", dir)
		}
	}

	realImages, err := imagery.FindImages(realDir)
	if err != nil {
		return nil, err
	}
	fakeImages, err := imagery.FindImages(fakeDir)
	if err != nil {
		return nil, err
	}
	if len(realImages) == 0 && len(fakeImages) == 0 {
		return nil, evalError("no images found in test directories")
	}

	getLogger().Info("starting evaluation",
		logger.Int("real_images", len(realImages)),
		logger.Int("fake_images", len(fakeImages)))

	paths := append(append([]string{}, realImages...), fakeImages...)
	truth := make([]Label, 0, len(paths))
	for range realImages {
		truth = append(truth, LabelReal)
	}
	for range fakeImages {
		truth = append(truth, LabelFake)
	}
	opts.Truth = truth

	result, err := p.Predict(ctx, paths, opts)
	if err != nil {
		return nil, err
	}

	return &EvalResult{
		Metrics:     ComputeMetrics(result.Predictions),
		Predictions: result.Predictions,
		Summary:     result.Summary,
		RealImages:  len(realImages),
		FakeImages:  len(fakeImages),
	}, nil
}

// ComputeMetrics derives the classification scores from predictions that
// carry ground truth. Predictions without truth are ignored.
func ComputeMetrics(preds []Prediction) Metrics {
	var cm ConfusionMatrix
	for _, pred := range preds {
		if pred.Truth == nil {
			continue
		}
		switch {
		case *pred.Truth == LabelReal && pred.Label == LabelReal:
			cm.TrueReal++
		case *pred.Truth == LabelReal && pred.Label == LabelFake:
			cm.FalseFake++
		case *pred.Truth == LabelFake && pred.Label == LabelReal:
			cm.FalseReal++
		default:
			cm.TrueFake++
		}
	}

	m := Metrics{Confusion: cm}
	total := cm.TrueReal + cm.FalseFake + cm.FalseReal + cm.TrueFake
	if total == 0 {
		return m
	}

	m.Accuracy = float64(cm.TrueReal+cm.TrueFake) / float64(total)
	if predicted := cm.TrueFake + cm.FalseFake; predicted > 0 {
		m.Precision = float64(cm.TrueFake) / float64(predicted)
	}
	if actual := cm.TrueFake + cm.FalseReal; actual > 0 {
		m.Recall = float64(cm.TrueFake) / float64(actual)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
