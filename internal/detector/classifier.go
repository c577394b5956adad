package detector

import (
	"strings"
)

// Batch holds a contiguous block of CHW float32 tensors ready for inference.
type Batch struct {
	Data     []float32 // Items * Channels * Size * Size values
	Items    int
	Channels int
	Size     int
}

// Classifier is a loaded inference backend. Score returns one raw logit per
// batch item. Implementations are not safe for concurrent use.
type Classifier interface {
	Score(batch Batch) ([]float64, error)
	Close() error
}

// LoadReport records the difference between the parameter names a checkpoint
// exposes and the stages an EfficientNetV2 export is expected to carry.
// Permissive loading logs the report, strict loading rejects a non-empty one.
type LoadReport struct {
	Missing    []string
	Unexpected []string
}

// Clean reports whether the checkpoint matched the expected layout exactly.
func (r LoadReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

func expectedStages(adapted bool) []string {
	if adapted {
		return []string{"stem", "backbone"}
	}
	return []string{"conv_stem", "blocks", "classifier"}
}

// stageOf extracts the leading path segment of a parameter or layer name,
// e.g. "stem.proj.weight" and "stem/proj" both map to "stem". Names made of
// separators only map to "".
func stageOf(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == '.' || r == '/' || r == ':'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// hasStemStage reports whether any parameter name starts with the adapter
// stage prefix, marking a checkpoint trained with the 9-to-3 channel stem.
func hasStemStage(names []string) bool {
	for _, name := range names {
		if name != "" && stageOf(name) == "stem" {
			return true
		}
	}
	return false
}

// buildLoadReport compares the checkpoint's parameter names against the
// stages expected for its layout.
func buildLoadReport(names []string, adapted bool) LoadReport {
	stages := expectedStages(adapted)

	found := make(map[string]bool, len(stages))
	seen := make(map[string]bool)
	var unexpected []string

	for _, name := range names {
		stage := stageOf(name)
		if stage == "" {
			continue
		}

		matched := false
		for _, s := range stages {
			if stage == s {
				found[s] = true
				matched = true
				break
			}
		}
		if !matched && !seen[stage] {
			seen[stage] = true
			unexpected = append(unexpected, stage)
		}
	}

	var missing []string
	for _, s := range stages {
		if !found[s] {
			missing = append(missing, s)
		}
	}
	return LoadReport{Missing: missing, Unexpected: unexpected}
}
