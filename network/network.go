// Package network - Loads model containers and runs them through a compute backend.
//
// A Network owns at most one loaded model together with its input and output tensors.
// Loading replaces both collections wholesale; handles obtained before a reload keep the
// data they last saw. A Network is not safe for concurrent use.
package network

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

// Network runs one model at a time.
type Network struct {
	backend providers.Backend
	log     logrus.FieldLogger

	model   *models.Model
	session providers.Session
	inputs  *tensor.Tensors
	outputs *tensor.Tensors
}

// Option configures a Network.
type Option func(*Network)

// WithBackend selects the compute backend. Without it the registry default is used at load.
func WithBackend(b providers.Backend) Option {
	return func(n *Network) { n.backend = b }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(n *Network) { n.log = l }
}

// New creates an unloaded network with empty input and output collections.
func New(opts ...Option) *Network {
	n := &Network{
		log:     logrus.StandardLogger(),
		inputs:  tensor.NewTensors(),
		outputs: tensor.NewTensors(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Load loads the container at path, replacing any model loaded before.
//
// Arguments:
//   - path: The container file.
//
// Returns:
//   - error: A *LoadError matching ErrLoad. On failure the previous model stays loaded.
func (n *Network) Load(path string) error {
	m, err := models.Open(path)
	if err != nil {
		return loadError(path, err)
	}
	return n.install(m)
}

// LoadBytes loads a container held in memory. The blob must stay unmodified while loaded.
func (n *Network) LoadBytes(blob []byte) error {
	m, err := models.FromBytes(blob)
	if err != nil {
		return loadError(memorySource(blob), err)
	}
	return n.install(m)
}

func (n *Network) install(m *models.Model) error {
	backend, err := n.resolveBackend()
	if err != nil {
		_ = m.Close()
		return loadError(m.Source, err)
	}

	inputs, err := allocate(m.Inputs)
	if err != nil {
		_ = m.Close()
		return loadError(m.Source, err)
	}
	outputs, err := allocate(m.Outputs)
	if err != nil {
		inputs.Release()
		_ = m.Close()
		return loadError(m.Source, err)
	}

	session, err := backend.Open(m, inputs, outputs)
	if err != nil {
		inputs.Release()
		outputs.Release()
		_ = m.Close()
		return loadError(m.Source, err)
	}

	n.unload()
	n.model, n.session, n.inputs, n.outputs = m, session, inputs, outputs
	n.log.WithFields(logrus.Fields{
		"source":  m.Source,
		"inputs":  inputs.Len(),
		"outputs": outputs.Len(),
		"backend": backend.Name(),
	}).Info("model loaded")
	return nil
}

func (n *Network) resolveBackend() (providers.Backend, error) {
	if n.backend != nil {
		return n.backend, nil
	}
	return providers.Default()
}

func allocate(specs []tensor.Spec) (*tensor.Tensors, error) {
	ts := make([]*tensor.Tensor, 0, len(specs))
	for _, s := range specs {
		t, err := tensor.New(s)
		if err != nil {
			tensor.NewTensors(ts...).Release()
			return nil, err
		}
		ts = append(ts, t)
	}
	return tensor.NewTensors(ts...), nil
}

// unload drops the current model. Tensor handles held elsewhere keep their data.
func (n *Network) unload() {
	if n.session != nil {
		if err := n.session.Close(); err != nil {
			n.log.WithError(err).Warn("closing session")
		}
	}
	n.inputs.Release()
	n.outputs.Release()
	if err := n.model.Close(); err != nil {
		n.log.WithError(err).Warn("closing model")
	}
	n.model, n.session = nil, nil
	n.inputs, n.outputs = tensor.NewTensors(), tensor.NewTensors()
}

// Predict runs inference synchronously.
//
// When inputs are given there must be exactly one per network input; each is assigned to
// the input at the same position with Tensor.Assign. Without arguments the inputs must
// already have been written.
//
// Arguments:
//   - inputs: Optional data for every input, in order.
//
// Returns:
//   - *tensor.Tensors: The outputs, overwritten in place.
//   - error: A *PredictError matching ErrPredict.
func (n *Network) Predict(inputs ...any) (*tensor.Tensors, error) {
	if n.model == nil || n.session == nil {
		return nil, &PredictError{Err: errors.New("no model loaded")}
	}
	if len(inputs) > 0 {
		if len(inputs) != n.inputs.Len() {
			return nil, &PredictError{Err: errors.Errorf(
				"Invalid number of inputs: expected %d inputs, got %d inputs", n.inputs.Len(), len(inputs))}
		}
		if err := assignAll(n.inputs, inputs); err != nil {
			return nil, &PredictError{Err: err}
		}
	}
	for _, t := range n.inputs.All() {
		if err := t.Validate(); err != nil {
			return nil, &PredictError{Err: err}
		}
		if !t.Written() {
			return nil, &PredictError{Err: errors.Errorf("input %s was never assigned", t.Name())}
		}
	}
	if err := n.session.Run(); err != nil {
		return nil, &PredictError{Err: err}
	}
	for _, t := range n.outputs.All() {
		t.Buffer().MarkWritten()
	}
	n.log.WithField("source", n.model.Source).Debug("predict")
	return n.outputs, nil
}

// assignAll converts every input into a scratch tensor first, so a failing input leaves
// all network inputs untouched.
func assignAll(dst *tensor.Tensors, inputs []any) error {
	staged := make([]*tensor.Tensor, 0, len(inputs))
	defer func() { tensor.NewTensors(staged...).Release() }()
	for i, t := range dst.All() {
		s, err := tensor.New(t.Spec())
		if err != nil {
			return err
		}
		staged = append(staged, s)
		if err := s.Assign(inputs[i]); err != nil {
			return errors.WithMessagef(err, "input %d (%s)", i, t.Name())
		}
	}
	for i, t := range dst.All() {
		if err := t.AssignBytes(staged[i].Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Inputs returns the input tensors of the loaded model.
func (n *Network) Inputs() *tensor.Tensors { return n.inputs }

// Outputs returns the output tensors of the loaded model.
func (n *Network) Outputs() *tensor.Tensors { return n.outputs }

// Model returns the loaded model, or nil.
func (n *Network) Model() *models.Model { return n.model }

// Loaded reports whether a model is loaded.
func (n *Network) Loaded() bool { return n.model != nil }

// Close unloads the model and releases every resource it held.
func (n *Network) Close() error {
	n.unload()
	return nil
}
