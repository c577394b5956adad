package detector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkessler/fakesight-go/internal/logger"
)

// Decision threshold defaults. Ensemble members without a sidecar use a
// lower threshold than a standalone model because the vote averages out
// their individual noise.
const (
	DefaultSingleThreshold   = 0.5
	DefaultEnsembleThreshold = 0.25
)

// thresholdCandidates returns sidecar paths to probe for a checkpoint, most
// specific first, duplicates removed while preserving order.
func thresholdCandidates(modelPath string) []string {
	stem := checkpointStem(modelPath)
	base := strings.ReplaceAll(stem, "_best", "")
	dir := filepath.Dir(modelPath)

	candidates := []string{
		filepath.Join(dir, stem+"_threshold.json"),
		filepath.Join(dir, base+"_threshold.json"),
		filepath.Join(dir, "threshold.json"),
	}

	seen := make(map[string]bool, len(candidates))
	uniq := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	return uniq
}

// parseThresholdFile reads a sidecar file holding either a JSON object with
// a "best_threshold" or "threshold" number, or a bare number. Anything else
// yields ok false.
func parseThresholdFile(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, false
	}

	switch v := parsed.(type) {
	case map[string]any:
		for _, key := range []string{"best_threshold", "threshold"} {
			if num, ok := v[key].(float64); ok {
				return num, true
			}
		}
	case float64:
		return v, true
	}
	return 0, false
}

// ResolveThreshold probes the sidecar candidates for a checkpoint and
// returns the first threshold found. A missing or malformed sidecar is not
// an error, the caller falls back to its default.
func ResolveThreshold(modelPath string) (float64, bool) {
	for _, candidate := range thresholdCandidates(modelPath) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if thr, ok := parseThresholdFile(candidate); ok {
			return thr, true
		}
		getLogger().Warn("ignoring malformed threshold sidecar",
			logger.String("path", candidate))
	}
	return 0, false
}
