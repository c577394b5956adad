package detector

import (
	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// NewPredictorFromSettings builds the predictor the settings describe: an
// ensemble when a model directory is set, otherwise a single model, falling
// back to the first checkpoint found beside the executable.
func NewPredictorFromSettings(settings *conf.Settings) (Predictor, error) {
	d := &settings.Detector

	if d.ModelDir != "" {
		return NewEnsemblePredictor(d.ModelDir, d)
	}

	path := d.ModelPath
	if path == "" {
		found, ok := FindDefaultCheckpoint()
		if !ok {
			return nil, errors.Newf("no model configured and no checkpoint found beside the executable").
				Component("detector").
				Category(errors.CategoryConfiguration).
				Build()
		}
		getLogger().Info("using checkpoint found beside the executable",
			logger.String("path", found))
		path = found
	}
	return NewSinglePredictor(path, d)
}

// DisplayThreshold returns the global decision threshold a run will use for
// display purposes. Nil means an ensemble deciding per model.
func DisplayThreshold(p Predictor, override *float64) *float64 {
	if override != nil {
		return override
	}
	if sp, ok := p.(*SinglePredictor); ok {
		thr := sp.EffectiveThreshold(nil)
		return &thr
	}
	return nil
}
