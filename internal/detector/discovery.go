package detector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkessler/fakesight-go/internal/errors"
)

var checkpointExtensions = map[string]bool{
	".tflite": true,
	".onnx":   true,
}

// IsCheckpoint reports whether path has a recognized checkpoint extension.
func IsCheckpoint(path string) bool {
	return checkpointExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindCheckpoints returns the checkpoint files directly inside dir in
// lexical order.
func FindCheckpoints(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}

	var checkpoints []string
	for _, entry := range entries {
		if !entry.IsDir() && IsCheckpoint(entry.Name()) {
			checkpoints = append(checkpoints, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(checkpoints)
	return checkpoints, nil
}

// FindDefaultCheckpoint looks for a checkpoint next to the executable, used
// when no model was configured.
func FindDefaultCheckpoint() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}

	checkpoints, err := FindCheckpoints(filepath.Dir(exe))
	if err != nil || len(checkpoints) == 0 {
		return "", false
	}
	return checkpoints[0], true
}
