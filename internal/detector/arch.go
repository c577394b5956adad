package detector

import (
	"path/filepath"
	"strings"
)

// Arch names an EfficientNetV2 backbone variant.
type Arch string

const (
	ArchEfficientNetV2XL Arch = "tf_efficientnetv2_xl"
	ArchEfficientNetV2L  Arch = "tf_efficientnetv2_l"
	ArchEfficientNetV2M  Arch = "tf_efficientnetv2_m"
	ArchEfficientNetV2S  Arch = "tf_efficientnetv2_s"
	ArchEfficientNetV2B3 Arch = "tf_efficientnetv2_b3"
	ArchEfficientNetV2B2 Arch = "tf_efficientnetv2_b2"
	ArchEfficientNetV2B1 Arch = "tf_efficientnetv2_b1"
	ArchEfficientNetV2B0 Arch = "tf_efficientnetv2_b0"
)

// DefaultArch is used when the filename gives no hint.
const DefaultArch = ArchEfficientNetV2M

// archPriority is matched top to bottom so the more specific variant names
// win over their substrings, xl before l and b3 before b0.
var archPriority = []struct {
	substr string
	arch   Arch
}{
	{"efficientnetv2_xl", ArchEfficientNetV2XL},
	{"efficientnetv2_l", ArchEfficientNetV2L},
	{"efficientnetv2_m", ArchEfficientNetV2M},
	{"efficientnetv2_s", ArchEfficientNetV2S},
	{"efficientnetv2_b3", ArchEfficientNetV2B3},
	{"efficientnetv2_b2", ArchEfficientNetV2B2},
	{"efficientnetv2_b1", ArchEfficientNetV2B1},
	{"efficientnetv2_b0", ArchEfficientNetV2B0},
}

// checkpointStem returns the checkpoint filename without directory and
// extension.
func checkpointStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DetectArch determines the backbone for a checkpoint. An explicit name wins,
// otherwise the lowercased filename stem is matched against the variant
// table, falling back to the mid-size default.
func DetectArch(path, explicit string) Arch {
	if explicit != "" {
		return Arch(explicit)
	}

	stem := strings.ToLower(checkpointStem(path))
	for _, entry := range archPriority {
		if strings.Contains(stem, entry.substr) {
			return entry.arch
		}
	}
	return DefaultArch
}
