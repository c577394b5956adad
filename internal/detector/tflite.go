package detector

import (
	"runtime"

	"github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/logger"
)

// tfliteClassifier runs a .tflite checkpoint. The interpreter carries a
// fixed single-item input, batches are scored item by item with the CHW
// tensor transposed into the interpreter's NHWC layout.
type tfliteClassifier struct {
	interpreter *tflite.Interpreter
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	size        int
	channels    int
}

func initErrorf(path, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("detector").
		Category(errors.CategoryModelInit).
		Context("model_path", path).
		Build()
}

// newTFLiteClassifier loads the checkpoint and returns the classifier along
// with the model's tensor names for layout inspection.
func newTFLiteClassifier(path string, rt conf.RuntimeSettings, imageSize int) (*tfliteClassifier, []string, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, nil, initErrorf(path, "cannot load TensorFlow Lite model")
	}

	threads := determineThreadCount(rt.Threads)
	options := tflite.NewInterpreterOptions()

	log := getLogger()
	if rt.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		getLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, nil, initErrorf(path, "cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, nil, errors.Newf("tensor allocation failed: %w", errors.ErrResourceExhausted).
			Component("detector").
			Category(errors.CategoryResource).
			Context("model_path", path).
			Build()
	}

	c := &tfliteClassifier{
		interpreter: interpreter,
		model:       model,
		options:     options,
		size:        imageSize,
		channels:    9,
	}

	if err := c.validateTensors(path); err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, c.tensorNames(), nil
}

// determineThreadCount selects the interpreter thread count, leaving one
// core for the rest of the process when picking automatically.
func determineThreadCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(1, runtime.NumCPU()-1)
}

func (c *tfliteClassifier) validateTensors(path string) error {
	input := c.interpreter.GetInputTensor(0)
	wantLen := c.channels * c.size * c.size
	if len(input.Float32s()) != wantLen {
		return initErrorf(path, "input tensor holds %d values, want %d for %dx%dx%d",
			len(input.Float32s()), wantLen, c.size, c.size, c.channels)
	}

	output := c.interpreter.GetOutputTensor(0)
	outputSize := output.Dim(output.NumDims() - 1)
	if outputSize != 1 {
		return initErrorf(path, "output tensor has %d values, want a single logit", outputSize)
	}
	return nil
}

// tensorNames lists the model's input and output tensor names. Exports of
// adapted checkpoints carry the stem stage in these names.
func (c *tfliteClassifier) tensorNames() []string {
	var names []string
	for i := 0; i < c.interpreter.GetInputTensorCount(); i++ {
		names = append(names, c.interpreter.GetInputTensor(i).Name())
	}
	for i := 0; i < c.interpreter.GetOutputTensorCount(); i++ {
		names = append(names, c.interpreter.GetOutputTensor(i).Name())
	}
	return names
}

func (c *tfliteClassifier) Score(batch Batch) ([]float64, error) {
	if batch.Size != c.size || batch.Channels != c.channels {
		return nil, errors.Newf("batch is %dx%dx%d, model expects %dx%dx%d",
			batch.Size, batch.Size, batch.Channels, c.size, c.size, c.channels).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}

	plane := batch.Size * batch.Size
	itemLen := batch.Channels * plane
	logits := make([]float64, 0, batch.Items)

	input := c.interpreter.GetInputTensor(0).Float32s()
	for item := 0; item < batch.Items; item++ {
		tensor := batch.Data[item*itemLen : (item+1)*itemLen]

		// CHW to NHWC.
		for i := 0; i < plane; i++ {
			for ch := 0; ch < batch.Channels; ch++ {
				input[i*batch.Channels+ch] = tensor[ch*plane+i]
			}
		}

		if status := c.interpreter.Invoke(); status != tflite.OK {
			return nil, errors.Newf("tensor invoke failed").
				Component("detector").
				Category(errors.CategoryInference).
				Context("item", item).
				Build()
		}

		output := c.interpreter.GetOutputTensor(0).Float32s()
		logits = append(logits, float64(output[0]))
	}
	return logits, nil
}

func (c *tfliteClassifier) Close() error {
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.options != nil {
		c.options.Delete()
		c.options = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
	return nil
}
