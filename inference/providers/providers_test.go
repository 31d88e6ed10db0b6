package providers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

type namedBackend string

func (n namedBackend) Name() string { return string(n) }

func (n namedBackend) Open(*models.Model, *tensor.Tensors, *tensor.Tensors) (Session, error) {
	return nil, ErrUnsupportedModel
}

func TestRegistry(t *testing.T) {
	mu.Lock()
	saved := backends
	backends = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		backends = saved
		mu.Unlock()
	})

	_, err := Default()
	assert.True(t, errors.Is(err, ErrNoBackend))

	Register(namedBackend("a"))
	Register(namedBackend("b"))
	Register(namedBackend("a"))
	assert.Equal(t, []string{"a", "b"}, Names())

	d, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "a", d.Name())

	b, err := Lookup("b")
	require.NoError(t, err)
	assert.Equal(t, "b", b.Name())

	_, err = Lookup("missing")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestConfigValidate(t *testing.T) {
	c := Config{ExecutionProvider: "CUDA", OptimizationLevel: ""}
	require.NoError(t, c.Validate())
	assert.Equal(t, CUDAExecutionProvider, c.ExecutionProvider)
	assert.Equal(t, OptimizationExtended, c.OptimizationLevel)

	c = DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, CPUExecutionProvider, c.ExecutionProvider)
	assert.GreaterOrEqual(t, c.IntraOpThreads, 1)

	assert.Error(t, (&Config{ExecutionProvider: "tpu"}).Validate())
	assert.Error(t, (&Config{OptimizationLevel: "max"}).Validate())
	assert.Error(t, (&Config{IntraOpThreads: -1}).Validate())
}

func TestProviderOptionMaps(t *testing.T) {
	ov := OpenVINOOptions{DeviceType: "GPU", NumOfThreads: 4}
	assert.Equal(t, map[string]string{"device_type": "GPU", "num_of_threads": "4"}, ov.Map())

	cuda := CUDAOptions{DeviceID: 1, GPUMemLimit: 1 << 30, CudnnConvAlgoSearch: 1, UseTF32: true}.Map()
	assert.Equal(t, "1", cuda["device_id"])
	assert.Equal(t, "1073741824", cuda["gpu_mem_limit"])
	assert.Equal(t, "HEURISTIC", cuda["cudnn_conv_algo_search"])
	assert.Equal(t, "1", cuda["use_tf32"])
	assert.Equal(t, "kNextPowerOfTwo", cuda["arena_extend_strategy"])
}

func TestSharedLibPathEnv(t *testing.T) {
	t.Setenv(LibraryPathEnv, "/opt/ort/libonnxruntime.so")
	p, err := SharedLibPath()
	require.NoError(t, err)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", p)
}
