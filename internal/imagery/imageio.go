package imagery

import (
	"os"

	"gocv.io/x/gocv"

	"github.com/mkessler/fakesight-go/internal/errors"
)

func decodeError(path string) error {
	return errors.Newf("unable to decode image").
		Component("imagery").
		Category(errors.CategoryImageDecode).
		Context("path", path).
		Build()
}

// ReadImage decodes the image at path into a BGR matrix. Paths that IMRead
// cannot open directly, for instance non-ASCII names on some platforms, fall
// back to reading the bytes and decoding in memory. The caller owns the
// returned Mat.
func ReadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.NewMat(), errors.New(err).
			Component("imagery").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	img, err = gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		img.Close()
		return gocv.NewMat(), decodeError(path)
	}
	return img, nil
}
