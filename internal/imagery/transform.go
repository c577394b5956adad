package imagery

import (
	"image"
	"image/color"
	"math/rand"

	"gocv.io/x/gocv"

	"github.com/mkessler/fakesight-go/internal/errors"
)

// TransformKind identifies a test-time augmentation variant.
type TransformKind int

const (
	// Identity resizes the longest side and pads to a centered square.
	Identity TransformKind = iota
	// HorizontalFlip mirrors the identity result left to right.
	HorizontalFlip
	// RandomCrop cuts a square from a canvas scaled 1.1x larger.
	RandomCrop
	// Rotation rotates the identity result by a small fixed angle.
	Rotation
)

func (k TransformKind) String() string {
	switch k {
	case Identity:
		return "identity"
	case HorizontalFlip:
		return "hflip"
	case RandomCrop:
		return "crop"
	case Rotation:
		return "rotate"
	default:
		return "unknown"
	}
}

// Transform describes one augmentation variant. Size is the target square
// resolution. Angle applies to Rotation, CropIndex seeds the offset for
// RandomCrop so repeated runs produce identical crops.
type Transform struct {
	Kind      TransformKind
	Size      int
	Angle     float64
	CropIndex int
}

// Base returns the plain resize-and-pad transform used without augmentation.
func Base(size int) Transform {
	return Transform{Kind: Identity, Size: size}
}

// Plan returns up to count augmentation variants in a fixed order: identity,
// horizontal flip, at most three crops, then rotations by +5 and -5 degrees.
func Plan(size, count int) []Transform {
	transforms := []Transform{
		{Kind: Identity, Size: size},
		{Kind: HorizontalFlip, Size: size},
	}

	crops := min(3, count-len(transforms))
	for i := 0; i < crops; i++ {
		transforms = append(transforms, Transform{Kind: RandomCrop, Size: size, CropIndex: i})
	}

	for _, angle := range []float64{5, -5} {
		if len(transforms) < count {
			transforms = append(transforms, Transform{Kind: Rotation, Size: size, Angle: angle})
		}
	}

	if count < len(transforms) {
		transforms = transforms[:count]
	}
	return transforms
}

// Apply renders the variant from a decoded BGR image. The source is left
// untouched and the caller owns the returned Mat.
func Apply(src gocv.Mat, t Transform) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), errors.Newf("empty source image").
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}

	switch t.Kind {
	case Identity:
		return letterbox(src, t.Size), nil
	case HorizontalFlip:
		canvas := letterbox(src, t.Size)
		defer canvas.Close()
		flipped := gocv.NewMat()
		gocv.Flip(canvas, &flipped, 1)
		return flipped, nil
	case RandomCrop:
		canvasSize := int(float64(t.Size) * 1.1)
		canvas := letterbox(src, canvasSize)
		defer canvas.Close()
		return cropSquare(canvas, t.Size, t.CropIndex), nil
	case Rotation:
		canvas := letterbox(src, t.Size)
		defer canvas.Close()
		return rotate(canvas, t.Angle), nil
	default:
		return gocv.NewMat(), errors.Newf("unknown transform kind %d", t.Kind).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}
}

// letterbox scales the longest side to size and pads the shorter side with
// black, split evenly so the content stays centered.
func letterbox(src gocv.Mat, size int) gocv.Mat {
	rows, cols := src.Rows(), src.Cols()
	longest := max(rows, cols)

	var scaled gocv.Mat
	if longest == size {
		scaled = src.Clone()
	} else {
		scaled = gocv.NewMat()
		scale := float64(size) / float64(longest)
		width := max(1, int(float64(cols)*scale+0.5))
		height := max(1, int(float64(rows)*scale+0.5))
		interp := gocv.InterpolationArea
		if longest < size {
			interp = gocv.InterpolationLinear
		}
		gocv.Resize(src, &scaled, image.Pt(width, height), 0, 0, interp)
	}
	defer scaled.Close()

	padV := size - scaled.Rows()
	padH := size - scaled.Cols()
	top, left := padV/2, padH/2

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(scaled, &padded, top, padV-top, left, padH-left,
		gocv.BorderConstant, color.RGBA{})
	return padded
}

func cropSquare(canvas gocv.Mat, size, cropIndex int) gocv.Mat {
	rng := rand.New(rand.NewSource(int64(cropIndex) + 1))
	maxX := canvas.Cols() - size
	maxY := canvas.Rows() - size

	x, y := 0, 0
	if maxX > 0 {
		x = rng.Intn(maxX + 1)
	}
	if maxY > 0 {
		y = rng.Intn(maxY + 1)
	}

	region := canvas.Region(image.Rect(x, y, x+size, y+size))
	defer region.Close()
	return region.Clone()
}

func rotate(canvas gocv.Mat, angle float64) gocv.Mat {
	center := image.Pt(canvas.Cols()/2, canvas.Rows()/2)
	m := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer m.Close()

	rotated := gocv.NewMat()
	gocv.WarpAffineWithParams(canvas, &rotated, m,
		image.Pt(canvas.Cols(), canvas.Rows()),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})
	return rotated
}
