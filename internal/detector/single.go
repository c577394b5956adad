package detector

import (
	"context"
	"math"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/imagery"
)

// Label is the verdict for an image.
type Label string

const (
	LabelReal Label = "REAL"
	LabelFake Label = "FAKE"
)

// Prediction is the verdict for one image. Probability is the model
// probability for a single model and the vote share for an ensemble. Truth
// is set during evaluation runs.
type Prediction struct {
	Path        string
	Label       Label
	Probability float64
	Confidence  float64
	Truth       *Label
}

// Misclassified reports whether a ground-truth label is present and differs
// from the verdict.
func (p Prediction) Misclassified() bool {
	return p.Truth != nil && *p.Truth != p.Label
}

// Summary counts the verdicts of a run.
type Summary struct {
	Real    int
	Fake    int
	Skipped []string
}

// ProgressFunc receives each prediction as soon as its batch completes.
type ProgressFunc func(Prediction)

// PredictOptions are the per-call knobs of a predictor.
type PredictOptions struct {
	UseTTA    bool
	Override  *float64 // global threshold override, nil keeps per-model behavior
	BatchSize int
	Workers   int
	Truth     []Label // optional ground truth parallel to the input paths
	Progress  ProgressFunc
}

// PredictResult is the outcome of a prediction run. Predictions follow the
// input order with undecodable images removed.
type PredictResult struct {
	Predictions []Prediction
	Summary     Summary
}

// ModelInfo describes a loaded model for display.
type ModelInfo struct {
	Name       string
	Path       string
	Arch       Arch
	Adapted    bool
	Threshold  float64
	HasSidecar bool
}

// Predictor classifies images as real or fake.
type Predictor interface {
	Predict(ctx context.Context, paths []string, opts PredictOptions) (*PredictResult, error)
	Describe() []ModelInfo
	Close() error
}

// clamp01 bounds v to the unit interval.
func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// confidenceFor maps the distance from the decision threshold to a 0..1
// confidence.
func confidenceFor(prob, threshold float64) float64 {
	return clamp01(2 * math.Abs(prob-threshold))
}

// planFor expands the augmentation plan for a run.
func planFor(useTTA bool, size, augments int) []imagery.Transform {
	if useTTA {
		return imagery.Plan(size, augments)
	}
	return []imagery.Transform{imagery.Base(size)}
}

// truthFor returns the ground-truth label for an input index, nil when no
// truth was supplied.
func truthFor(truth []Label, index int) *Label {
	if index >= len(truth) {
		return nil
	}
	t := truth[index]
	return &t
}

// SinglePredictor classifies with one model. The decision threshold is the
// override when given, otherwise the sidecar value, otherwise 0.5.
type SinglePredictor struct {
	model       *Model
	runner      *Runner
	imageSize   int
	ttaAugments int
}

// NewSinglePredictor resolves the checkpoint at path.
func NewSinglePredictor(path string, settings *conf.DetectorSettings) (*SinglePredictor, error) {
	model, err := resolveCheckpoint(path, ResolveOptions{
		Arch:      settings.Arch,
		ImageSize: settings.ImageSize,
		Strict:    settings.StrictLoad,
		Runtime:   settings.Runtime,
	})
	if err != nil {
		return nil, err
	}

	return &SinglePredictor{
		model:       model,
		runner:      NewRunner([]*Model{model}),
		imageSize:   settings.ImageSize,
		ttaAugments: settings.TTA.Augments,
	}, nil
}

// EffectiveThreshold resolves the decision threshold for a run.
func (p *SinglePredictor) EffectiveThreshold(override *float64) float64 {
	switch {
	case override != nil:
		return *override
	case p.model.HasSidecar:
		return p.model.Threshold
	default:
		return DefaultSingleThreshold
	}
}

func (p *SinglePredictor) Predict(ctx context.Context, paths []string, opts PredictOptions) (*PredictResult, error) {
	threshold := p.EffectiveThreshold(opts.Override)

	run, err := p.runner.Run(ctx, paths, RunConfig{
		ImageSize: p.imageSize,
		BatchSize: opts.BatchSize,
		Workers:   opts.Workers,
		Plan:      planFor(opts.UseTTA, p.imageSize, p.ttaAugments),
	})
	if err != nil {
		return nil, err
	}

	result := &PredictResult{Summary: Summary{Skipped: run.Skipped}}
	probs := run.Probs[0]

	for i, path := range run.Images {
		prob := probs[i]

		label := LabelReal
		if prob >= threshold {
			label = LabelFake
		}

		pred := Prediction{
			Path:        path,
			Label:       label,
			Probability: prob,
			Confidence:  confidenceFor(prob, threshold),
			Truth:       truthFor(opts.Truth, run.Indices[i]),
		}
		result.Predictions = append(result.Predictions, pred)

		if label == LabelFake {
			result.Summary.Fake++
		} else {
			result.Summary.Real++
		}
		if opts.Progress != nil {
			opts.Progress(pred)
		}
	}
	return result, nil
}

// Describe returns display metadata for the loaded model.
func (p *SinglePredictor) Describe() []ModelInfo {
	return []ModelInfo{{
		Name:       p.model.Name,
		Path:       p.model.Path,
		Arch:       p.model.Arch,
		Adapted:    p.model.Adapted,
		Threshold:  p.EffectiveThreshold(nil),
		HasSidecar: p.model.HasSidecar,
	}}
}

// Close releases the model.
func (p *SinglePredictor) Close() error {
	return p.model.Close()
}

var _ Predictor = (*SinglePredictor)(nil)
