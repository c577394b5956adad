package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &record))
	return record
}

func TestModuleScoping(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewBufferLogger(buf)

	log.Module("detector").Module("runner").Info("batch done", Int("items", 4))

	record := decodeLastRecord(t, buf)
	assert.Equal(t, "detector.runner", record["module"])
	assert.Equal(t, "batch done", record["msg"])
	assert.InDelta(t, 4, record["items"], 0.001)
}

func TestWithAccumulatesFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewBufferLogger(buf).With(String("model", "effv2_m"))

	log.Warn("threshold sidecar missing")

	record := decodeLastRecord(t, buf)
	assert.Equal(t, "effv2_m", record["model"])
	assert.Equal(t, "WARN", record["level"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelWarn, true)

	log.Info("dropped")
	log.Debug("dropped too")
	assert.Zero(t, buf.Len())

	log.Error("kept")
	assert.NotZero(t, buf.Len())
}

func TestFieldConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "p", Value: 0.25}, Float64("p", 0.25))
	assert.Equal(t, Field{Key: "tta", Value: true}, Bool("tta", true))
	assert.Equal(t, Field{Key: "elapsed", Value: "2s"}, Duration("elapsed", 2*time.Second))

	assert.Equal(t, Field{Key: "error", Value: "boom"}, Error(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Error(nil))
}

func TestSetGlobal(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := Global()
	defer SetGlobal(prev)

	SetGlobal(NewBufferLogger(buf))
	Global().Info("hello")

	record := decodeLastRecord(t, buf)
	assert.Equal(t, "hello", record["msg"])
}
