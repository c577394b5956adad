package detector

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// EnsemblePredictor combines the verdicts of every checkpoint in a directory
// through a confidence-weighted vote. Members that fail to load are skipped,
// an empty ensemble is an error.
type EnsemblePredictor struct {
	models          []*Model
	runner          *Runner
	imageSize       int
	ttaAugments     int
	confidenceFloor float64
}

// NewEnsemblePredictor resolves every checkpoint in dir.
func NewEnsemblePredictor(dir string, settings *conf.DetectorSettings) (*EnsemblePredictor, error) {
	checkpoints, err := FindCheckpoints(dir)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, errors.Newf("no checkpoint files found in %s", dir).
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}

	opts := ResolveOptions{
		Arch:      settings.Arch,
		ImageSize: settings.ImageSize,
		Strict:    settings.StrictLoad,
		Runtime:   settings.Runtime,
	}

	log := getLogger()
	var models []*Model
	for _, path := range checkpoints {
		model, err := resolveCheckpoint(path, opts)
		if err != nil {
			log.Warn("skipping unloadable checkpoint",
				logger.String("path", path),
				logger.Error(err))
			continue
		}
		models = append(models, model)
	}
	if len(models) == 0 {
		return nil, errors.Newf("no models could be loaded from %s", dir).
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}

	return &EnsemblePredictor{
		models:          models,
		runner:          NewRunner(models),
		imageSize:       settings.ImageSize,
		ttaAugments:     settings.TTA.Augments,
		confidenceFloor: settings.ConfidenceFloor,
	}, nil
}

// memberThreshold resolves the decision threshold of one ensemble member.
func memberThreshold(m *Model, override *float64) float64 {
	switch {
	case override != nil:
		return *override
	case m.HasSidecar:
		return m.Threshold
	default:
		return DefaultEnsembleThreshold
	}
}

// EnsembleVote combines per-model probabilities into a vote share and its
// confidence. Each member decides FAKE when its probability reaches its
// threshold and is weighted by how far the probability sits from that
// threshold. Members below the confidence floor still count in the
// unweighted fallback, which applies when no member clears the floor.
func EnsembleVote(probs, thresholds []float64, floor float64) (vote, confidence float64) {
	var weightedSum, weightSum float64
	decisions := make([]float64, 0, len(probs))

	for i, prob := range probs {
		threshold := thresholds[i]

		decision := 0.0
		if prob >= threshold {
			decision = 1.0
		}
		conf := clamp01(2 * math.Abs(prob-threshold))

		if conf >= floor {
			weightedSum += decision * conf
			weightSum += conf
		}
		decisions = append(decisions, decision)
	}

	if weightSum > 0 {
		vote = weightedSum / weightSum
	} else {
		vote = stat.Mean(decisions, nil)
	}

	vote = clamp01(vote)
	confidence = clamp01(2 * math.Abs(vote-0.5))
	return vote, confidence
}

func (p *EnsemblePredictor) Predict(ctx context.Context, paths []string, opts PredictOptions) (*PredictResult, error) {
	run, err := p.runner.Run(ctx, paths, RunConfig{
		ImageSize: p.imageSize,
		BatchSize: opts.BatchSize,
		Workers:   opts.Workers,
		Plan:      planFor(opts.UseTTA, p.imageSize, p.ttaAugments),
	})
	if err != nil {
		return nil, err
	}

	thresholds := make([]float64, len(p.models))
	for i, m := range p.models {
		thresholds[i] = memberThreshold(m, opts.Override)
	}

	result := &PredictResult{Summary: Summary{Skipped: run.Skipped}}
	memberProbs := make([]float64, len(p.models))

	for i, path := range run.Images {
		for j := range p.models {
			memberProbs[j] = run.Probs[j][i]
		}
		vote, confidence := EnsembleVote(memberProbs, thresholds, p.confidenceFloor)

		label := LabelReal
		if vote >= 0.5 {
			label = LabelFake
		}

		pred := Prediction{
			Path:        path,
			Label:       label,
			Probability: vote,
			Confidence:  confidence,
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

// Describe returns display metadata for every member.
func (p *EnsemblePredictor) Describe() []ModelInfo {
	infos := make([]ModelInfo, 0, len(p.models))
	for _, m := range p.models {
		infos = append(infos, ModelInfo{
			Name:       m.Name,
			Path:       m.Path,
			Arch:       m.Arch,
			Adapted:    m.Adapted,
			Threshold:  memberThreshold(m, nil),
			HasSidecar: m.HasSidecar,
		})
	}
	return infos
}

// Close releases every member, returning the first error.
func (p *EnsemblePredictor) Close() error {
	var firstErr error
	for _, m := range p.models {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Predictor = (*EnsemblePredictor)(nil)
