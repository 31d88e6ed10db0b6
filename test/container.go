package test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-synap/models"
	"github.com/nvr-ai/go-synap/tensor"
)

// ClassifierMetadata describes a small image classifier: one 8x8 RGB uint8 input and ten
// quantized class scores.
const ClassifierMetadata = `{
  "Inputs": {
    "image": {"shape": [1, 8, 8, 3], "format": "nhwc", "dtype": "u8", "data_format": "rgb"}
  },
  "Outputs": {
    "probs": {"shape": [1, 10], "format": "none", "quantize": {"qtype": "u8", "scale": 0.00390625, "zero_point": 0}}
  }
}`

// DetectorMetadata mirrors a yolov8s 640x384 model quantized to uint8.
const DetectorMetadata = `{
  "Inputs": {
    "inputs_0": {"name": "inputs_0", "shape": [1, 384, 640, 3], "format": "nhwc", "dtype": "u8", "data_format": "rgb"}
  },
  "Outputs": {
    "Identity": {"name": "Identity", "shape": [1, 84, 5040], "format": "nhwc",
      "quantize": {"qtype": "u8", "scale": 0.00390625, "zero_point": 0},
      "data_format": "yolov8 w_scale=640 h_scale=384"}
  }
}`

// BuildContainer returns a zip archive holding metadata as model.json plus entries.
func BuildContainer(t testing.TB, metadata string, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	write(models.MetadataEntry, []byte(metadata))
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, entries[name])
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// WriteContainer writes a container into a temporary directory and returns its path.
func WriteContainer(t testing.TB, metadata string, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.synap")
	require.NoError(t, os.WriteFile(path, BuildContainer(t, metadata, entries), 0o600))
	return path
}

// MustOpenContainer parses an in-memory container built from metadata and entries.
func MustOpenContainer(t testing.TB, metadata string, entries map[string][]byte) *models.Model {
	t.Helper()
	m, err := models.FromBytes(BuildContainer(t, metadata, entries))
	require.NoError(t, err)
	return m
}

// MustTensors allocates the input and output tensors declared by m.
func MustTensors(t testing.TB, m *models.Model) (inputs, outputs *tensor.Tensors) {
	t.Helper()
	alloc := func(specs []tensor.Spec) *tensor.Tensors {
		ts := make([]*tensor.Tensor, len(specs))
		for i, s := range specs {
			tn, err := tensor.New(s)
			require.NoError(t, err)
			ts[i] = tn
		}
		return tensor.NewTensors(ts...)
	}
	return alloc(m.Inputs), alloc(m.Outputs)
}
