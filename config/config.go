// Package config - YAML configuration for the engine and the command-line tools.
//
// Load decodes a file over Default(), so a file only needs the keys it changes:
//
//	model: /usr/share/synap/models/object_detection/coco/model/yolov8s-640x384/model.synap
//	backend:
//	  execution_provider: cpu
//	  intra_op_threads: 4
//	detector:
//	  score_threshold: 0.4
//	log:
//	  level: debug
package config

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-synap/images"
	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/postprocess"
	"github.com/nvr-ai/go-synap/preprocess"
)

// Decoder names accepted by PreprocessConfig.Decoder.
const (
	DecoderStd    = "std"
	DecoderOpenCV = "opencv"
)

var filters = []string{"nearest", "bilinear", "bicubic", "mitchell", "lanczos"}

// ErrInvalidConfig is returned for values that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	// Model is the path of the model container.
	Model string `yaml:"model"`
	// Labels is an optional label file (info.json or one name per line).
	Labels     string                     `yaml:"labels"`
	Backend    providers.Config           `yaml:"backend"`
	Preprocess PreprocessConfig           `yaml:"preprocess"`
	Classifier ClassifierConfig           `yaml:"classifier"`
	Detector   postprocess.DetectorConfig `yaml:"detector"`
	Log        LogConfig                  `yaml:"log"`
}

// PreprocessConfig configures image decoding and resizing.
type PreprocessConfig struct {
	// Decoder is "std" (pure Go) or "opencv".
	Decoder string `yaml:"decoder"`
	// Fill is the gray level of letterbox padding.
	Fill uint8 `yaml:"fill"`
	// Filter is one of nearest, bilinear, bicubic, mitchell or lanczos.
	Filter string `yaml:"filter"`
}

// Options returns the preprocessor options for everything but the decoder.
func (c PreprocessConfig) Options() []preprocess.Option {
	return []preprocess.Option{
		preprocess.WithFill(c.Fill),
		preprocess.WithFilter(images.ParseResampleFilter(c.Filter)),
	}
}

// ClassifierConfig configures classification output.
type ClassifierConfig struct {
	TopCount int `yaml:"top_count"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Apply sets the level and formatter of l.
func (c LogConfig) Apply(l *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	l.SetLevel(level)
	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return errors.Wrapf(ErrInvalidConfig, "log format %q", c.Format)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model:      "model.synap",
		Backend:    providers.DefaultConfig(),
		Preprocess: PreprocessConfig{Decoder: DecoderStd, Filter: "bilinear"},
		Classifier: ClassifierConfig{TopCount: 5},
		Detector:   postprocess.DefaultDetectorConfig(),
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over Default() and validates the result. Unknown keys are errors.
//
// Arguments:
//   - path: The configuration file.
//
// Returns:
//   - *Config: The merged configuration.
//   - error: A read, decode or validation error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and normalizes backend names.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.Wrap(ErrInvalidConfig, "model path is empty")
	}
	if err := c.Backend.Validate(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	switch c.Preprocess.Decoder {
	case "", DecoderStd, DecoderOpenCV:
	default:
		return errors.Wrapf(ErrInvalidConfig, "decoder %q", c.Preprocess.Decoder)
	}
	if c.Preprocess.Filter != "" && !slices.Contains(filters, c.Preprocess.Filter) {
		return errors.Wrapf(ErrInvalidConfig, "filter %q", c.Preprocess.Filter)
	}
	if c.Classifier.TopCount < 1 {
		return errors.Wrapf(ErrInvalidConfig, "classifier top_count %d", c.Classifier.TopCount)
	}
	d := c.Detector
	if d.ScoreThreshold < 0 || d.ScoreThreshold > 1 || d.IoUThreshold < 0 || d.IoUThreshold > 1 {
		return errors.Wrapf(ErrInvalidConfig, "detector thresholds %g/%g", d.ScoreThreshold, d.IoUThreshold)
	}
	if d.MaxDetections < 0 {
		return errors.Wrapf(ErrInvalidConfig, "detector max_detections %d", d.MaxDetections)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}
