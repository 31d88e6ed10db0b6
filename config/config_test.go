package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-synap/inference/providers"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Classifier.TopCount)
	assert.Equal(t, float32(0.5), cfg.Detector.ScoreThreshold)
	assert.True(t, cfg.Detector.NMS)
	assert.Equal(t, providers.CPUExecutionProvider, cfg.Backend.ExecutionProvider)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: /models/yolov8s.synap
labels: /models/info.json
backend:
  execution_provider: CUDA
  intra_op_threads: 2
preprocess:
  decoder: opencv
  fill: 114
  filter: lanczos
detector:
  score_threshold: 0.25
  max_detections: 10
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/models/yolov8s.synap", cfg.Model)
	assert.Equal(t, "/models/info.json", cfg.Labels)
	assert.Equal(t, providers.CUDAExecutionProvider, cfg.Backend.ExecutionProvider)
	assert.Equal(t, 2, cfg.Backend.IntraOpThreads)
	assert.Equal(t, providers.OptimizationExtended, cfg.Backend.OptimizationLevel)
	assert.Equal(t, uint8(114), cfg.Preprocess.Fill)
	assert.Equal(t, float32(0.25), cfg.Detector.ScoreThreshold)
	assert.Equal(t, float32(0.5), cfg.Detector.IoUThreshold, "untouched keys keep defaults")
	assert.Equal(t, 10, cfg.Detector.MaxDetections)
	assert.Len(t, cfg.Preprocess.Options(), 2)

	l := logrus.New()
	require.NoError(t, cfg.Log.Apply(l))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Model, cfg.Model)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "modle: x"},
		{"provider", "backend: {execution_provider: tpu}"},
		{"decoder", "preprocess: {decoder: magick}"},
		{"filter", "preprocess: {filter: box}"},
		{"top count", "classifier: {top_count: 0}"},
		{"threshold", "detector: {score_threshold: 1.5}"},
		{"max detections", "detector: {max_detections: -1}"},
		{"log level", "log: {level: loud}"},
		{"empty model", "model: ''"},
		{"syntax", "model: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("classifier: {top_count: 0}"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogApply(t *testing.T) {
	l := logrus.New()
	require.NoError(t, LogConfig{Level: "warn"}.Apply(l))
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	assert.Error(t, LogConfig{Level: "info", Format: "xml"}.Apply(l))
	assert.Error(t, LogConfig{Level: "nope"}.Apply(l))
}
