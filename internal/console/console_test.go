package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkessler/fakesight-go/internal/detector"
)

func TestPrintPrediction(t *testing.T) {
	t.Parallel()

	real, fake := detector.LabelReal, detector.LabelFake

	tests := []struct {
		name string
		pred detector.Prediction
		want string
	}{
		{
			name: "without truth",
			pred: detector.Prediction{
				Path: "/data/photo.jpg", Label: fake,
				Probability: 0.8125, Confidence: 0.625,
			},
			want: "img: photo.jpg pred: FAKE prob: 0.812 conf: 0.625\n",
		},
		{
			name: "matching truth",
			pred: detector.Prediction{
				Path: "a.png", Label: real, Truth: &real,
				Probability: 0.1, Confidence: 0.8,
			},
			want: "img: a.png true: REAL pred: REAL prob: 0.100 conf: 0.800\n",
		},
		{
			name: "misclassified",
			pred: detector.Prediction{
				Path: "b.png", Label: fake, Truth: &real,
				Probability: 0.9, Confidence: 0.8,
			},
			want: "MISCLASSIFIED: img: b.png true: REAL pred: FAKE prob: 0.900 conf: 0.800\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			PrintPrediction(buf, tt.pred)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	PrintSummary(buf, detector.Summary{Real: 3, Fake: 2, Skipped: []string{"x.jpg"}})

	assert.Contains(t, buf.String(), "SUMMARY: 3 REAL, 2 FAKE")
	assert.Contains(t, buf.String(), "SKIPPED: 1")
}

func TestPrintThresholdInfo(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	PrintThresholdInfo(buf, nil)
	assert.Equal(t, "INFO: USED_THRESHOLD: per-model\n", buf.String())

	buf.Reset()
	threshold := 0.35
	PrintThresholdInfo(buf, &threshold)
	assert.Equal(t, "INFO: USED_THRESHOLD: 0.350\n", buf.String())
}

func TestTablesRender(t *testing.T) {
	t.Parallel()

	metrics := MetricsTable(detector.Metrics{
		Accuracy: 0.4, Precision: 0.4, Recall: 1,
		F1:        0.5714,
		Confusion: detector.ConfusionMatrix{FalseFake: 3, TrueFake: 2},
	})
	assert.Contains(t, metrics, "Accuracy")
	assert.Contains(t, metrics, "0.4000")
	assert.Contains(t, metrics, "True Fake (TP)")

	models := ModelsTable([]detector.ModelInfo{{
		Name: "effv2_m_best", Arch: detector.ArchEfficientNetV2M,
		Adapted: true, Threshold: 0.25,
	}})
	assert.Contains(t, models, "effv2_m_best")
	assert.Contains(t, models, "tf_efficientnetv2_m")
	assert.Contains(t, models, "yes")
	assert.Contains(t, models, "default")
}
