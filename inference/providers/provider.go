// Package providers - Compute backend boundary.
//
// A Backend turns a parsed model container plus the network's tensors into a Session. The
// session is bound once to the tensors' buffers and reads inputs and writes outputs in place
// on every Run.
package providers

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

var (
	// ErrNoBackend is returned when no backend has been registered.
	ErrNoBackend = errors.New("no compute backend registered")
	// ErrUnknownBackend is returned by Lookup for unregistered names.
	ErrUnknownBackend = errors.New("unknown compute backend")
	// ErrUnsupportedModel is returned by a backend that cannot execute a container.
	ErrUnsupportedModel = errors.New("model not supported by backend")
)

// Backend executes model containers.
type Backend interface {
	// Name identifies the backend in the registry and in logs.
	Name() string
	// Open prepares the model for execution against the given tensors. The session must
	// read inputs from and write outputs to the tensors' buffers.
	Open(m *models.Model, inputs, outputs *tensor.Tensors) (Session, error)
}

// Session runs a prepared model synchronously.
type Session interface {
	Run() error
	Close() error
}

var (
	mu       sync.RWMutex
	backends []Backend
)

// Register adds b to the registry, replacing any backend with the same name.
// The first registered backend is the default.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if i := slices.IndexFunc(backends, func(x Backend) bool { return x.Name() == b.Name() }); i >= 0 {
		backends[i] = b
		return
	}
	backends = append(backends, b)
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, b := range backends {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
}

// Default returns the first registered backend.
func Default() (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	if len(backends) == 0 {
		return nil, ErrNoBackend
	}
	return backends[0], nil
}

// Names lists registered backends in registration order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	return names
}
