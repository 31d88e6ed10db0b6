package network

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/test"
	"github.com/nvr-ai/go-synap/types"
)

const goldenModel = "testdata/yolov8s-640x384-uint8.synap"

func newNetwork(t *testing.T) (*Network, *test.MockBackend) {
	t.Helper()
	backend := test.NewMockBackend()
	logger, _ := logtest.NewNullLogger()
	n := New(WithBackend(backend), WithLogger(logger))
	t.Cleanup(func() { _ = n.Close() })
	return n, backend
}

func TestNewNetworkIsEmpty(t *testing.T) {
	n, _ := newNetwork(t)
	assert.False(t, n.Loaded())
	assert.Equal(t, 0, n.Inputs().Len())
	assert.Equal(t, 0, n.Outputs().Len())
	assert.Nil(t, n.Model())

	_, err := n.Predict()
	assert.True(t, errors.Is(err, ErrPredict))
}

func TestLoadMissingFile(t *testing.T) {
	n, _ := newNetwork(t)
	path := filepath.Join(t.TempDir(), "nope.synap")

	err := n.Load(path)
	require.True(t, errors.Is(err, ErrLoad))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Source)
	assert.Contains(t, err.Error(), "Unable to load model from file")

	var invalid *models.InvalidModelError
	assert.True(t, errors.As(err, &invalid))
}

func TestLoadBytesNotAZip(t *testing.T) {
	n, _ := newNetwork(t)
	err := n.LoadBytes([]byte("not a zip"))
	require.True(t, errors.Is(err, ErrLoad))
	assert.Contains(t, err.Error(), "Unable to load model from memory (9 bytes)")
	assert.False(t, n.Loaded())
}

func TestFailedLoadKeepsPreviousModel(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))
	inputs := n.Inputs()

	backend.OpenErr = errors.New("device busy")
	err := n.LoadBytes(test.BuildContainer(t, test.ClassifierMetadata, nil))
	require.True(t, errors.Is(err, ErrLoad))

	assert.Same(t, inputs, n.Inputs())
	assert.Equal(t, goldenModel, n.Model().Source)
	assert.Equal(t, 0, backend.Closed)
}

func TestLoadTensors(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))
	assert.Equal(t, 1, backend.Opened)

	require.Equal(t, 1, n.Inputs().Len())
	in, err := n.Inputs().At(0)
	require.NoError(t, err)
	assert.Equal(t, "inputs_0", in.Name())
	assert.Equal(t, types.Uint8, in.DataType())
	assert.Equal(t, types.LayoutNHWC, in.Layout())
	assert.Equal(t, "Shape(1, 384, 640, 3)", in.Shape().String())
	assert.Equal(t, 737280, in.Size())

	out, err := n.Outputs().At(0)
	require.NoError(t, err)
	assert.Equal(t, "Identity", out.Name())
	assert.Equal(t, 423360, out.Size())
	assert.False(t, out.Written())
}

func TestPredictRequiresAssignedInputs(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))

	_, err := n.Predict()
	require.True(t, errors.Is(err, ErrPredict))
	assert.Contains(t, err.Error(), "never assigned")
	assert.Equal(t, 0, backend.Runs)
}

func TestPredictInputCount(t *testing.T) {
	n, _ := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))

	_, err := n.Predict(make([]byte, 737280), make([]byte, 1))
	require.True(t, errors.Is(err, ErrPredict))
	assert.Contains(t, err.Error(), "expected 1 inputs, got 2 inputs")

	_, err = n.Predict(make([]byte, 10))
	require.True(t, errors.Is(err, ErrPredict))
	assert.True(t, errors.Is(err, tensor.ErrSizeMismatch))
}

func TestPredictBackendFailure(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))
	backend.RunErr = errors.New("npu fault")

	_, err := n.Predict(make([]byte, 737280))
	require.True(t, errors.Is(err, ErrPredict))
	assert.Contains(t, err.Error(), "npu fault")
}

// TestPredictGolden runs the golden container end to end and compares outputs byte for byte.
func TestPredictGolden(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))

	in, err := n.Inputs().At(0)
	require.NoError(t, err)
	require.NoError(t, in.AssignBytes(make([]byte, in.Size())))

	outputs, err := n.Predict()
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Runs)

	out, err := outputs.At(0)
	require.NoError(t, err)
	assert.True(t, out.Written())

	want, err := os.ReadFile("testdata/output_0.dat")
	require.NoError(t, err)
	assert.Equal(t, want, out.Bytes())

	raw, err := os.ReadFile("testdata/output_float_0.dat")
	require.NoError(t, err)
	floats := out.AsFloat()
	require.Len(t, floats, len(raw)/4)
	for i := range floats {
		f := math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		if f != floats[i] {
			t.Fatalf("item %d: got %v, want %v", i, floats[i], f)
		}
	}
}

func TestReloadFreezesOldHandles(t *testing.T) {
	n, backend := newNetwork(t)
	require.NoError(t, n.Load(goldenModel))
	outputs, err := n.Predict(make([]byte, 737280))
	require.NoError(t, err)
	old, err := outputs.At(0)
	require.NoError(t, err)
	snapshot := append([]byte(nil), old.Bytes()...)

	require.NoError(t, n.LoadBytes(test.BuildContainer(t, test.ClassifierMetadata, nil)))
	assert.Equal(t, 1, backend.Closed)
	assert.True(t, old.Buffer().Released())
	assert.Equal(t, snapshot, old.Bytes())

	in, err := n.Inputs().At(0)
	require.NoError(t, err)
	assert.Equal(t, "image", in.Name())
	assert.NotSame(t, old.Buffer(), in.Buffer())
}

func TestLoadLogsFields(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	n := New(WithBackend(test.NewMockBackend()), WithLogger(logger))
	t.Cleanup(func() { _ = n.Close() })

	require.NoError(t, n.Load(goldenModel))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, goldenModel, entry.Data["source"])
	assert.Equal(t, test.MockBackendName, entry.Data["backend"])
}

func TestPredictWithTypedInput(t *testing.T) {
	n, _ := newNetwork(t)
	md := `{"Inputs": {"x": {"shape": [1, 4], "format": "none", "quantize": {"qtype": "i8", "scale": 0.5, "zero_point": 0}}},
		"Outputs": {"y": {"shape": [1, 4], "format": "none", "dtype": "u8"}}}`
	require.NoError(t, n.LoadBytes(test.BuildContainer(t, md, nil)))

	outputs, err := n.Predict([]int8{1, 2, 3, 4})
	require.NoError(t, err)
	out, err := outputs.At(0)
	require.NoError(t, err)
	// seed = 1+2+3+4
	assert.Equal(t, []byte{17, 48, 79, 110}, out.Bytes())
}

func TestPredictFailedInputLeavesOthersUntouched(t *testing.T) {
	n, _ := newNetwork(t)
	md := `{"Inputs": {"a": {"shape": [1, 2], "dtype": "u8"}, "b": {"shape": [1, 3], "dtype": "u8"}},
		"Outputs": {"y": {"shape": [1, 2], "dtype": "u8"}}}`
	require.NoError(t, n.LoadBytes(test.BuildContainer(t, md, nil)))

	_, err := n.Predict([]byte{1, 2}, []byte{3, 4, 5})
	require.NoError(t, err)

	_, err = n.Predict([]byte{9, 9}, []byte{7})
	assert.True(t, errors.Is(err, ErrPredict), "got %v", err)
	a, err := n.Inputs().At(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, a.Bytes())
}
