package detector

import (
	"gocv.io/x/gocv"

	"github.com/mkessler/fakesight-go/internal/errors"
)

// onnxClassifier runs a .onnx checkpoint through the OpenCV DNN module.
// Unlike the TFLite backend it scores a whole batch in one forward pass on
// an NCHW blob.
type onnxClassifier struct {
	net  gocv.Net
	size int
}

// newONNXClassifier loads the checkpoint and returns the classifier along
// with the network's layer names for layout inspection.
func newONNXClassifier(path string, imageSize int) (*onnxClassifier, []string, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, nil, initErrorf(path, "cannot load ONNX model")
	}

	return &onnxClassifier{net: net, size: imageSize}, net.GetLayerNames(), nil
}

func (c *onnxClassifier) Score(batch Batch) ([]float64, error) {
	if batch.Size != c.size {
		return nil, errors.Newf("batch size %d, model expects %d", batch.Size, c.size).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}

	blob := gocv.NewMatWithSizes(
		[]int{batch.Items, batch.Channels, batch.Size, batch.Size},
		gocv.MatTypeCV32F)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}
	copy(data, batch.Data)

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	if out.Empty() || out.Total() != batch.Items {
		return nil, errors.Newf("forward pass produced %d values, want %d",
			out.Total(), batch.Items).
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}

	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryInference).
			Build()
	}

	logits := make([]float64, batch.Items)
	for i, v := range raw {
		logits[i] = float64(v)
	}
	return logits, nil
}

func (c *onnxClassifier) Close() error {
	return c.net.Close()
}
