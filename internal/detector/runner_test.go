package detector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/mkessler/fakesight-go/internal/errors"
	"github.com/mkessler/fakesight-go/internal/imagery"
)

// scriptedClassifier hands out logits from a fixed sequence, optionally
// refusing batches larger than one item.
type scriptedClassifier struct {
	logits       []float64
	pos          int
	failMulti    bool
	scoreCalls   int
	refusedCalls int
}

func (c *scriptedClassifier) Score(batch Batch) ([]float64, error) {
	c.scoreCalls++
	if c.failMulti && batch.Items > 1 {
		c.refusedCalls++
		return nil, errors.ErrResourceExhausted
	}

	out := make([]float64, batch.Items)
	for i := range out {
		out[i] = c.logits[c.pos%len(c.logits)]
		c.pos++
	}
	return out, nil
}

func (c *scriptedClassifier) Close() error { return nil }

func newTestRunner(models []*Model) *Runner {
	r := NewRunner(models)
	r.decode = func(path string) (gocv.Mat, error) {
		if strings.Contains(path, "corrupt") {
			return gocv.NewMat(), errors.Newf("unable to decode image").
				Category(errors.CategoryImageDecode).
				Build()
		}
		return gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3), nil
	}
	r.build = func(src gocv.Mat, tr imagery.Transform) ([]float32, error) {
		return make([]float32, imagery.NumChannels*tr.Size*tr.Size), nil
	}
	return r
}

func TestRunnerAveragesVariantsInProbabilitySpace(t *testing.T) {
	t.Parallel()

	// Seven TTA variants for one image, scored across three batches.
	logits := []float64{-2, -1, 0, 1, 2, 3, 4}
	classifier := &scriptedClassifier{logits: logits}
	model := &Model{Name: "m1", classifier: classifier}

	runner := newTestRunner([]*Model{model})
	result, err := runner.Run(context.Background(), []string{"a.jpg"}, RunConfig{
		ImageSize: 4,
		BatchSize: 3,
		Plan:      imagery.Plan(4, 8),
	})
	require.NoError(t, err)

	var want float64
	for _, l := range logits {
		want += sigmoid(l)
	}
	want /= float64(len(logits))

	require.Len(t, result.Probs[0], 1)
	assert.InDelta(t, want, result.Probs[0][0], 1e-12)
	assert.Equal(t, 3, classifier.scoreCalls)
}

func TestRunnerSkipsUndecodableImages(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{logits: []float64{0}}
	model := &Model{Name: "m1", classifier: classifier}

	runner := newTestRunner([]*Model{model})
	result, err := runner.Run(context.Background(),
		[]string{"a.jpg", "corrupt.jpg", "b.jpg"},
		RunConfig{ImageSize: 4, BatchSize: 8})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, result.Images)
	assert.Equal(t, []int{0, 2}, result.Indices)
	assert.Equal(t, []string{"corrupt.jpg"}, result.Skipped)
	assert.Len(t, result.Probs[0], 2)
}

func TestRunnerRetriesOnceAtBatchSizeOne(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{logits: []float64{1}, failMulti: true}
	model := &Model{Name: "m1", classifier: classifier}

	runner := newTestRunner([]*Model{model})
	result, err := runner.Run(context.Background(),
		[]string{"a.jpg", "b.jpg", "c.jpg"},
		RunConfig{ImageSize: 4, BatchSize: 4})
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.refusedCalls)
	assert.Len(t, result.Probs[0], 3)
	for _, prob := range result.Probs[0] {
		assert.InDelta(t, sigmoid(1), prob, 1e-12)
	}
}

func TestRunnerDoesNotRetryAtBatchSizeOne(t *testing.T) {
	t.Parallel()

	model := &Model{Name: "m1", classifier: failingClassifier{}}

	runner := newTestRunner([]*Model{model})
	_, err := runner.Run(context.Background(), []string{"a.jpg"},
		RunConfig{ImageSize: 4, BatchSize: 1})
	require.Error(t, err)
	assert.True(t, errors.IsResourceExhaustion(err))
}

type failingClassifier struct{}

func (failingClassifier) Score(Batch) ([]float64, error) {
	return nil, errors.ErrResourceExhausted
}

func (failingClassifier) Close() error { return nil }

func TestRunnerHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	classifier := &scriptedClassifier{logits: []float64{0}}
	model := &Model{Name: "m1", classifier: classifier}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner([]*Model{model})
	_, err := runner.Run(ctx, []string{"a.jpg"}, RunConfig{ImageSize: 4, BatchSize: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerMultipleModels(t *testing.T) {
	t.Parallel()

	m1 := &Model{Name: "m1", classifier: &scriptedClassifier{logits: []float64{2}}}
	m2 := &Model{Name: "m2", classifier: &scriptedClassifier{logits: []float64{-2}}}

	runner := newTestRunner([]*Model{m1, m2})
	result, err := runner.Run(context.Background(), []string{"a.jpg", "b.jpg"},
		RunConfig{ImageSize: 4, BatchSize: 2, Workers: 2})
	require.NoError(t, err)

	assert.InDelta(t, sigmoid(2), result.Probs[0][0], 1e-12)
	assert.InDelta(t, sigmoid(-2), result.Probs[1][1], 1e-12)
}

func TestRunnerKeepsSameStemModelsSeparate(t *testing.T) {
	t.Parallel()

	// model_best.tflite and model_best.onnx share the stem "model_best";
	// their scores must stay separate series.
	m1 := &Model{Name: "model_best", Path: "model_best.tflite",
		classifier: &scriptedClassifier{logits: []float64{2}}}
	m2 := &Model{Name: "model_best", Path: "model_best.onnx",
		classifier: &scriptedClassifier{logits: []float64{-2}}}

	runner := newTestRunner([]*Model{m1, m2})
	result, err := runner.Run(context.Background(), []string{"a.jpg"},
		RunConfig{ImageSize: 4, BatchSize: 1})
	require.NoError(t, err)

	require.Len(t, result.Probs, 2)
	require.Len(t, result.Probs[0], 1)
	require.Len(t, result.Probs[1], 1)
	assert.InDelta(t, sigmoid(2), result.Probs[0][0], 1e-12)
	assert.InDelta(t, sigmoid(-2), result.Probs[1][0], 1e-12)
}
