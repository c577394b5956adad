// Package imagery handles image discovery, decoding and the construction of
// forensic-augmented input tensors.
package imagery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkessler/fakesight-go/internal/errors"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

// IsSupportedImage reports whether path has a recognized image extension.
// The check is case insensitive.
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindImages walks root recursively and returns all supported image files in
// lexical order.
func FindImages(root string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSupportedImage(path) {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(err).
			Component("imagery").
			Category(errors.CategoryFileIO).
			Context("root", root).
			Build()
	}

	sort.Strings(images)
	return images, nil
}

// ExpandInputs resolves a mix of image files and directories into a flat
// image list. Inputs that do not exist or yield no supported images are
// returned separately so callers can warn about them.
func ExpandInputs(inputs []string) (images, unresolved []string) {
	for _, input := range inputs {
		info, err := os.Stat(input)
		switch {
		case err != nil:
			unresolved = append(unresolved, input)
		case info.IsDir():
			found, err := FindImages(input)
			if err != nil || len(found) == 0 {
				unresolved = append(unresolved, input)
				continue
			}
			images = append(images, found...)
		case IsSupportedImage(input):
			images = append(images, input)
		default:
			unresolved = append(unresolved, input)
		}
	}
	return images, unresolved
}
