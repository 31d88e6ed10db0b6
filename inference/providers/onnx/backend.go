// Package onnx - ONNX Runtime compute backend.
//
// Containers carrying a "0/model.onnx" entry are executed by ONNX Runtime. Input and output
// tensors are bound once, at Open, as custom data tensors over the network's buffers, so Run
// moves no data.
//
// Importing the package registers a backend named "onnx" with the default configuration:
//
//	import _ "github.com/nvr-ai/go-synap/inference/providers/onnx"
package onnx

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

// Name is the registry name of the backend.
const Name = "onnx"

func init() {
	providers.Register(New(providers.DefaultConfig()))
}

// Backend executes containers through ONNX Runtime.
type Backend struct {
	cfg providers.Config
	log logrus.FieldLogger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for session lifecycle messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Backend) { b.log = l }
}

// New creates a backend with the given configuration.
func New(cfg providers.Config, opts ...Option) *Backend {
	b := &Backend{cfg: cfg, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements providers.Backend.
func (b *Backend) Name() string { return Name }

// Config returns the backend configuration.
func (b *Backend) Config() providers.Config { return b.cfg }

var envMu sync.Mutex

// initEnvironment loads the shared library once per process. A failed attempt is not
// remembered, so a later backend with a correct library path can still initialize.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		var err error
		if libPath, err = providers.SharedLibPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// Open implements providers.Backend.
//
// Arguments:
//   - m: The parsed container; it must hold an ONNX graph.
//   - inputs: The network input tensors, bound by name in order.
//   - outputs: The network output tensors, bound by name in order.
//
// Returns:
//   - providers.Session: A session that reads and writes the tensors' buffers.
//   - error: When the container has no ONNX graph, a tensor type has no ONNX equivalent,
//     or ONNX Runtime rejects the model.
func (b *Backend) Open(m *models.Model, inputs, outputs *tensor.Tensors) (providers.Session, error) {
	if !m.HasEntry(models.ONNXEntry) {
		return nil, errors.Wrapf(providers.ErrUnsupportedModel, "%s has no %s", m.Source, models.ONNXEntry)
	}
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	graph, err := m.Entry(models.ONNXEntry)
	if err != nil {
		return nil, err
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	s := &session{}
	inNames, err := s.bind(inputs, &s.inputs)
	if err != nil {
		s.destroyTensors()
		return nil, err
	}
	outNames, err := s.bind(outputs, &s.outputs)
	if err != nil {
		s.destroyTensors()
		return nil, err
	}

	options, err := sessionOptions(cfg, b.log)
	if err != nil {
		s.destroyTensors()
		return nil, err
	}
	defer options.Destroy()

	s.session, err = ort.NewAdvancedSessionWithONNXData(graph, inNames, outNames, s.inputs, s.outputs, options)
	if err != nil {
		s.destroyTensors()
		return nil, errors.Wrap(err, "error creating ORT session")
	}
	b.log.WithFields(logrus.Fields{
		"source":   m.Source,
		"inputs":   inNames,
		"outputs":  outNames,
		"provider": cfg.ExecutionProvider,
	}).Debug("onnx session created")
	return s, nil
}
