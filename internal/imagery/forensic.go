package imagery

import (
	"image"
	"math"
	"math/cmplx"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/mkessler/fakesight-go/internal/errors"
)

// NumChannels is the depth of the model input tensor: standardized RGB plus
// six forensic channels, one FFT log magnitude and five SRM filter responses.
const NumChannels = 9

var (
	rgbMean = [3]float32{0.485, 0.456, 0.406}
	rgbStd  = [3]float32{0.229, 0.224, 0.225}
)

// srmKernels are high-pass residual filters from steganalysis rich models.
// Applied to grayscale pixel values in the 0..255 range.
var srmKernels = [5][3][3]float32{
	{
		{-0.25, 0.5, -0.25},
		{0.5, -1, 0.5},
		{-0.25, 0.5, -0.25},
	},
	{
		{-1, 1, 0},
		{-1, 1, 0},
		{-1, 1, 0},
	},
	{
		{-1, -1, -1},
		{1, 1, 1},
		{0, 0, 0},
	},
	{
		{0, -1, 1},
		{-1, 1, 0},
		{1, 0, 0},
	},
	{
		{1, -1, 0},
		{0, 1, -1},
		{0, 0, 0},
	},
}

// BuildTensor converts a transformed BGR image of size x size pixels into a
// CHW float32 tensor of NumChannels planes. The first three planes are RGB
// standardized with ImageNet statistics, the remaining six are forensic
// channels z-scored per plane.
func BuildTensor(src gocv.Mat, size int) ([]float32, error) {
	if src.Rows() != size || src.Cols() != size {
		return nil, errors.Newf("image is %dx%d, want %dx%d",
			src.Cols(), src.Rows(), size, size).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}
	if src.Type() != gocv.MatTypeCV8UC3 {
		return nil, errors.Newf("image type %d, want 8-bit BGR", int(src.Type())).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}

	plane := size * size
	tensor := make([]float32, NumChannels*plane)

	if err := fillRGB(src, tensor[:3*plane], size); err != nil {
		return nil, err
	}

	gray, err := grayFloat(src)
	if err != nil {
		return nil, err
	}

	fftLogMagnitude(gray, size, tensor[3*plane:4*plane])
	if err := fillSRM(gray, size, tensor[4*plane:]); err != nil {
		return nil, err
	}

	for c := 3; c < NumChannels; c++ {
		zscore(tensor[c*plane : (c+1)*plane])
	}
	return tensor, nil
}

func fillRGB(src gocv.Mat, dst []float32, size int) error {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)

	scaled := gocv.NewMat()
	defer scaled.Close()
	rgb.ConvertToWithParams(&scaled, gocv.MatTypeCV32F, 1.0/255.0, 0)

	data, err := scaled.DataPtrFloat32()
	if err != nil {
		return errors.New(err).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}

	plane := size * size
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			dst[c*plane+i] = (data[i*3+c] - rgbMean[c]) / rgbStd[c]
		}
	}
	return nil
}

// grayFloat returns the Rec.601 grayscale of the BGR image scaled to 0..1.
func grayFloat(src gocv.Mat) ([]float32, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	grayF := gocv.NewMat()
	defer grayF.Close()
	gray.ConvertToWithParams(&grayF, gocv.MatTypeCV32F, 1.0/255.0, 0)

	data, err := grayF.DataPtrFloat32()
	if err != nil {
		return nil, errors.New(err).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}

	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// fftLogMagnitude writes log1p of the centered 2-D FFT magnitude of gray
// into dst. The spectrum is shifted so the zero frequency lands in the
// middle of the plane.
func fftLogMagnitude(gray []float32, size int, dst []float32) {
	fft := fourier.NewCmplxFFT(size)

	grid := make([]complex128, size*size)
	for i, v := range gray {
		grid[i] = complex(float64(v), 0)
	}

	row := make([]complex128, size)
	for y := 0; y < size; y++ {
		copy(row, grid[y*size:(y+1)*size])
		fft.Coefficients(grid[y*size:(y+1)*size], row)
	}

	col := make([]complex128, size)
	out := make([]complex128, size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			col[y] = grid[y*size+x]
		}
		fft.Coefficients(out, col)
		for y := 0; y < size; y++ {
			grid[y*size+x] = out[y]
		}
	}

	half := size / 2
	for y := 0; y < size; y++ {
		sy := (y + half) % size
		for x := 0; x < size; x++ {
			sx := (x + half) % size
			dst[sy*size+sx] = float32(math.Log1p(cmplx.Abs(grid[y*size+x])))
		}
	}
}

func fillSRM(gray []float32, size int, dst []float32) error {
	scaled := gocv.NewMatWithSize(size, size, gocv.MatTypeCV32F)
	defer scaled.Close()

	buf, err := scaled.DataPtrFloat32()
	if err != nil {
		return errors.New(err).
			Component("imagery").
			Category(errors.CategoryValidation).
			Build()
	}
	for i, v := range gray {
		buf[i] = v * 255.0
	}

	plane := size * size
	for k, kernel := range srmKernels {
		kern := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				kern.SetFloatAt(r, c, kernel[r][c])
			}
		}

		resp := gocv.NewMat()
		gocv.Filter2D(scaled, &resp, gocv.MatTypeCV32F, kern,
			image.Pt(-1, -1), 0, gocv.BorderDefault)
		kern.Close()

		data, err := resp.DataPtrFloat32()
		if err != nil {
			resp.Close()
			return errors.New(err).
				Component("imagery").
				Category(errors.CategoryValidation).
				Build()
		}
		copy(dst[k*plane:(k+1)*plane], data)
		resp.Close()
	}
	return nil
}

// zscore normalizes a plane in place to zero mean and unit variance. The
// epsilon keeps constant planes finite.
func zscore(plane []float32) {
	var sum float64
	for _, v := range plane {
		sum += float64(v)
	}
	mean := sum / float64(len(plane))

	var variance float64
	for _, v := range plane {
		d := float64(v) - mean
		variance += d * d
	}
	sd := math.Sqrt(variance/float64(len(plane))) + 1e-6

	for i, v := range plane {
		plane[i] = float32((float64(v) - mean) / sd)
	}
}
