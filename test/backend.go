// Package test - Shared fixtures: a deterministic compute backend, container builders and
// image generators.
package test

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/inference/providers"
	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

// MockBackendName is the name reported by MockBackend.
const MockBackendName = "mock"

// ComputeFunc fills outputs from inputs.
type ComputeFunc func(inputs, outputs *tensor.Tensors) error

// MockBackend is a providers.Backend whose sessions run a Go function instead of a model.
//
// The zero value is not usable; call NewMockBackend.
type MockBackend struct {
	// Compute replaces DeterministicCompute when set.
	Compute ComputeFunc
	// OpenErr is returned by Open when set.
	OpenErr error
	// RunErr is returned by every Run when set.
	RunErr error

	// Opened counts successful Open calls.
	Opened int
	// Runs counts Run calls.
	Runs int
	// Closed counts Close calls.
	Closed int
}

// NewMockBackend creates a backend running DeterministicCompute.
func NewMockBackend() *MockBackend {
	return &MockBackend{Compute: DeterministicCompute}
}

// Name implements providers.Backend.
func (b *MockBackend) Name() string { return MockBackendName }

// Open implements providers.Backend.
func (b *MockBackend) Open(_ *models.Model, inputs, outputs *tensor.Tensors) (providers.Session, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	b.Opened++
	return &mockSession{backend: b, inputs: inputs, outputs: outputs}, nil
}

type mockSession struct {
	backend *MockBackend
	inputs  *tensor.Tensors
	outputs *tensor.Tensors
	closed  bool
}

func (s *mockSession) Run() error {
	s.backend.Runs++
	if s.closed {
		return errors.New("mock session closed")
	}
	if s.backend.RunErr != nil {
		return s.backend.RunErr
	}
	compute := s.backend.Compute
	if compute == nil {
		compute = DeterministicCompute
	}
	return compute(s.inputs, s.outputs)
}

func (s *mockSession) Close() error {
	s.backend.Closed++
	s.closed = true
	return nil
}

// DeterministicCompute writes out[i] = (i*31 + 7 + seed) % 251 into every output, where seed
// is the sum of all input bytes modulo 251. All-zero inputs give seed 0.
func DeterministicCompute(inputs, outputs *tensor.Tensors) error {
	seed := 0
	for _, in := range inputs.All() {
		for _, b := range in.Bytes() {
			seed = (seed + int(b)) % 251
		}
	}
	for _, out := range outputs.All() {
		raw := out.Bytes()
		for i := range raw {
			raw[i] = byte((i*31 + 7 + seed) % 251)
		}
	}
	return nil
}
