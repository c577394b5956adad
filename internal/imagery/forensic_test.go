package imagery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestSRMKernelProperties(t *testing.T) {
	t.Parallel()

	// The Laplacian-style kernel is normalized by 4 and sums to zero, the
	// remaining edge kernels keep their integer taps.
	assert.InDelta(t, -1.0, float64(srmKernels[0][1][1]), 1e-9)

	for k, kernel := range srmKernels[:3] {
		var sum float32
		for _, row := range kernel {
			for _, v := range row {
				sum += v
			}
		}
		assert.InDelta(t, 0, float64(sum), 1e-6, "kernel %d", k)
	}
}

func TestFFTLogMagnitudeConstantImage(t *testing.T) {
	t.Parallel()

	const size = 4
	gray := make([]float32, size*size)
	for i := range gray {
		gray[i] = 0.5
	}

	dst := make([]float32, size*size)
	fftLogMagnitude(gray, size, dst)

	// All energy of a constant image sits in the DC term, which the shift
	// moves to the center of the plane.
	center := (size/2)*size + size/2
	wantDC := math.Log1p(0.5 * size * size)
	assert.InDelta(t, wantDC, float64(dst[center]), 1e-6)

	for i, v := range dst {
		if i == center {
			continue
		}
		assert.InDelta(t, 0, float64(v), 1e-6, "bin %d", i)
	}
}

func TestZScore(t *testing.T) {
	t.Parallel()

	plane := []float32{1, 2, 3, 4, 5, 6}
	zscore(plane)

	var sum, sumSq float64
	for _, v := range plane {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 0, sum/float64(len(plane)), 1e-5)
	assert.InDelta(t, 1, math.Sqrt(sumSq/float64(len(plane))), 1e-4)

	// A constant plane collapses to zeros instead of dividing by zero.
	flat := []float32{3, 3, 3, 3}
	zscore(flat)
	for _, v := range flat {
		assert.InDelta(t, 0, float64(v), 1e-9)
	}
}

func TestBuildTensor(t *testing.T) {
	t.Parallel()

	const size = 8
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(32, 64, 128, 0),
		size, size, gocv.MatTypeCV8UC3)
	defer src.Close()

	tensor, err := BuildTensor(src, size)
	require.NoError(t, err)
	require.Len(t, tensor, NumChannels*size*size)

	// BGR (32, 64, 128) decodes to R=128, G=64, B=32 before standardization.
	plane := size * size
	wantR := (128.0/255.0 - 0.485) / 0.229
	wantG := (64.0/255.0 - 0.456) / 0.224
	wantB := (32.0/255.0 - 0.406) / 0.225
	assert.InDelta(t, wantR, float64(tensor[0]), 1e-4)
	assert.InDelta(t, wantG, float64(tensor[plane]), 1e-4)
	assert.InDelta(t, wantB, float64(tensor[2*plane]), 1e-4)

	for i, v := range tensor {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
			"non-finite value at %d", i)
	}

	// Uniform input has zero SRM response everywhere away from the border,
	// so the z-scored planes stay near zero there.
	srm := tensor[4*plane : 5*plane]
	interior := srm[3*size+3]
	assert.InDelta(t, 0, float64(interior), 0.5)
}

func TestBuildTensorRejectsWrongSize(t *testing.T) {
	t.Parallel()

	src := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer src.Close()

	_, err := BuildTensor(src, 32)
	assert.Error(t, err)
}
