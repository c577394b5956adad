package detector

import (
	"path/filepath"
	"strings"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// Model is a resolved checkpoint: a loaded backend plus the metadata derived
// during resolution.
type Model struct {
	Name       string
	Path       string
	Arch       Arch
	Adapted    bool // checkpoint carries the 9-to-3 channel stem adapter
	Report     LoadReport
	Threshold  float64 // sidecar value, meaningful only when HasSidecar
	HasSidecar bool

	classifier Classifier
}

// ResolveOptions configures checkpoint resolution.
type ResolveOptions struct {
	Arch      string // explicit architecture, empty means detect from filename
	ImageSize int
	Strict    bool
	Runtime   conf.RuntimeSettings
}

// resolveCheckpoint is swapped by tests that build predictors without real
// inference backends.
var resolveCheckpoint = Resolve

// Resolve loads the checkpoint at path, detects its architecture and adapter
// stage, builds the load report and probes the threshold sidecar. Strict
// mode turns a non-clean report into an error.
func Resolve(path string, opts ResolveOptions) (*Model, error) {
	var (
		classifier Classifier
		names      []string
		err        error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tflite":
		classifier, names, err = newTFLiteClassifier(path, opts.Runtime, opts.ImageSize)
	case ".onnx":
		classifier, names, err = newONNXClassifier(path, opts.ImageSize)
	default:
		err = initErrorf(path, "unsupported checkpoint format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	arch := DetectArch(path, opts.Arch)
	adapted := hasStemStage(names)
	report := buildLoadReport(names, adapted)

	log := getLogger()
	if !report.Clean() {
		if opts.Strict {
			classifier.Close()
			return nil, errors.Newf("checkpoint layout mismatch: missing %v, unexpected %v",
				report.Missing, report.Unexpected).
				Component("detector").
				Category(errors.CategoryModelLoad).
				Context("model_path", path).
				Build()
		}
		log.Warn("checkpoint layout differs from expected stages",
			logger.String("model_path", path),
			logger.Any("missing", report.Missing),
			logger.Any("unexpected", report.Unexpected))
	}

	model := &Model{
		Name:       checkpointStem(path),
		Path:       path,
		Arch:       arch,
		Adapted:    adapted,
		Report:     report,
		classifier: classifier,
	}

	if thr, ok := ResolveThreshold(path); ok {
		model.Threshold = thr
		model.HasSidecar = true
	}

	log.Info("checkpoint resolved",
		logger.String("model", model.Name),
		logger.String("arch", string(arch)),
		logger.Bool("adapted", adapted),
		logger.Bool("sidecar_threshold", model.HasSidecar))
	return model, nil
}

// Score delegates to the loaded backend.
func (m *Model) Score(batch Batch) ([]float64, error) {
	return m.classifier.Score(batch)
}

// Close releases the backend resources.
func (m *Model) Close() error {
	if m.classifier == nil {
		return nil
	}
	err := m.classifier.Close()
	m.classifier = nil
	return err
}
