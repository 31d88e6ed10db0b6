package postprocess

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

func floatTensor(t *testing.T, name, dataFormat string, vals []float32, dims ...int) *tensor.Tensor {
	t.Helper()
	tn, err := tensor.New(tensor.Spec{
		Name:       name,
		DataType:   types.Float32,
		Shape:      types.NewShape(dims...),
		DataFormat: dataFormat,
	})
	require.NoError(t, err)
	require.NoError(t, tn.Assign(vals))
	return tn
}

// attrMajor lays out anchors as [1, A, N].
func attrMajor(anchors [][]float32) []float32 {
	n, a := len(anchors), len(anchors[0])
	out := make([]float32, a*n)
	for row, attrs := range anchors {
		for i, v := range attrs {
			out[i*n+row] = v
		}
	}
	return out
}

// rowMajor lays out anchors as [1, N, A].
func rowMajor(anchors [][]float32) []float32 {
	var out []float32
	for _, attrs := range anchors {
		out = append(out, attrs...)
	}
	return out
}

func pad(anchors [][]float32, n int) [][]float32 {
	a := len(anchors[0])
	for len(anchors) < n {
		anchors = append(anchors, make([]float32, a))
	}
	return anchors
}

func placement(ox, oy int, scale float64) types.Placement {
	return types.Placement{Rect: types.NewRect(ox, oy, 100, 100), Scale: scale, Source: types.Dim2d{X: 200, Y: 200}}
}

func TestClassifierOrdering(t *testing.T) {
	out := floatTensor(t, "probs", "", []float32{0.1, 0.7, 0.7, 0.2, 0.9}, 1, 5)
	outputs := tensor.NewTensors(out)

	res, err := NewClassifier(3).Process(outputs)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, []int{4, 1, 2}, []int{res.Items[0].ClassIndex, res.Items[1].ClassIndex, res.Items[2].ClassIndex})
	assert.InDelta(t, 0.9, res.Items[0].Confidence, 1e-6)

	res, err = NewClassifier(10).Process(outputs)
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, 0, res.Items[4].ClassIndex)

	c := NewClassifier(0)
	assert.Equal(t, 1, c.TopCount())
	res, err = c.Process(outputs)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestClassifierRanksNaNLast(t *testing.T) {
	nan := float32(math.NaN())
	out := floatTensor(t, "probs", "", []float32{0.1, nan, 0.9, 0.5, 0.7}, 1, 5)

	res, err := NewClassifier(5).Process(tensor.NewTensors(out))
	require.NoError(t, err)
	got := make([]int, len(res.Items))
	for i, item := range res.Items {
		got[i] = item.ClassIndex
	}
	assert.Equal(t, []int{2, 4, 3, 0, 1}, got)
}

func TestClassifierDequantizes(t *testing.T) {
	out, err := tensor.New(tensor.Spec{
		Name:         "probs",
		DataType:     types.Uint8,
		Shape:        types.NewShape(1, 3),
		Quantization: &tensor.Quantization{Scale: 1.0 / 256},
	})
	require.NoError(t, err)
	require.NoError(t, out.AssignBytes([]byte{0, 128, 255}))

	res, err := NewClassifier(3).Process(tensor.NewTensors(out))
	require.NoError(t, err)
	assert.Equal(t, ClassifierResultItem{ClassIndex: 2, Confidence: 0.99609375}, res.Items[0])
	assert.Equal(t, ClassifierResultItem{ClassIndex: 1, Confidence: 0.5}, res.Items[1])
}

func TestClassifierErrors(t *testing.T) {
	_, err := NewClassifier(1).Process(tensor.NewTensors())
	assert.True(t, errors.Is(err, ErrNoOutputs))
	_, err = NewClassifier(1).Process(nil)
	assert.True(t, errors.Is(err, ErrNoOutputs))
}

func TestDetectYOLOv8(t *testing.T) {
	anchors := pad([][]float32{
		{100, 100, 40, 20, 0.9, 0.1},
		{102, 101, 40, 20, 0.8, 0.1},
		{102, 101, 40, 20, 0.1, 0.85},
		{300, 200, 10, 10, 0.4, 0.0},
	}, 8)
	out := floatTensor(t, "Identity", "yolov8", attrMajor(anchors), 1, 6, 8)

	res, err := NewDetector(DefaultDetectorConfig()).Process(tensor.NewTensors(out), placement(0, 12, 0.5))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	assert.Equal(t, 0, res.Items[0].ClassIndex)
	assert.InDelta(t, 0.9, res.Items[0].Confidence, 1e-6)
	assert.Equal(t, types.NewRect(160, 156, 80, 40), res.Items[0].BoundingBox)
	assert.True(t, res.Items[0].Mask.Empty())

	assert.Equal(t, 1, res.Items[1].ClassIndex)
	assert.InDelta(t, 0.85, res.Items[1].Confidence, 1e-6)
}

func TestRemapInvertsLetterbox(t *testing.T) {
	// A box (10, 20, 30, 40) in the source image, letterboxed with offset (3, 7).
	tests := []struct {
		name   string
		scale  float64
		anchor []float32
	}{
		{"downscale", 0.5, []float32{15.5, 27, 15, 20, 0.9}},
		{"upscale", 1.5, []float32{40.5, 67, 45, 60, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := floatTensor(t, "out", "yolov8", rowMajor(pad([][]float32{tt.anchor}, 6)), 1, 6, 5)
			res, err := NewDetector(DefaultDetectorConfig()).Process(tensor.NewTensors(out), placement(3, 7, tt.scale))
			require.NoError(t, err)
			require.Len(t, res.Items, 1)
			assert.Equal(t, types.NewRect(10, 20, 30, 40), res.Items[0].BoundingBox)
		})
	}
}

func TestDetectLandmarks(t *testing.T) {
	anchors := pad([][]float32{{50, 50, 20, 20, 0.9, 52, 48, 0.7}}, 10)
	out := floatTensor(t, "out", "yolov8 landmarks=1", attrMajor(anchors), 1, 8, 10)

	res, err := NewDetector(DefaultDetectorConfig()).Process(tensor.NewTensors(out), placement(2, 0, 2))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, types.NewRect(19, 20, 10, 10), item.BoundingBox)
	require.Len(t, item.Landmarks, 1)
	assert.True(t, item.Landmarks[0].Equal(types.NewLandmark(25, 24, 0)))
	assert.InDelta(t, 0.7, item.Landmarks[0].Visibility, 1e-6)
}

func TestDetectNormalizedCoordinates(t *testing.T) {
	anchors := pad([][]float32{{0.5, 0.5, 0.25, 0.25, 0.75}}, 8)
	out := floatTensor(t, "out", "yolov8 w_scale=640 h_scale=384", attrMajor(anchors), 1, 5, 8)

	res, err := NewDetector(DefaultDetectorConfig()).Process(tensor.NewTensors(out), placement(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, types.NewRect(240, 144, 160, 96), res.Items[0].BoundingBox)
}

func TestDetectYOLOv5(t *testing.T) {
	anchors := pad([][]float32{
		{20, 20, 10, 10, 0.9, 0.1, 0.8},
		{60, 60, 10, 10, 0.4, 1.0, 0.0},
	}, 8)
	out := floatTensor(t, "out", "yolov5", rowMajor(anchors), 1, 8, 7)

	res, err := NewDetector(DefaultDetectorConfig()).Process(tensor.NewTensors(out), placement(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Items[0].ClassIndex)
	assert.InDelta(t, 0.72, res.Items[0].Confidence, 1e-6)
	assert.Equal(t, types.NewRect(15, 15, 10, 10), res.Items[0].BoundingBox)
}

func TestDetectSSD(t *testing.T) {
	outputs := tensor.NewTensors(
		floatTensor(t, "boxes", "ssd", []float32{0.1, 0.2, 0.5, 0.6, 0, 0, 1, 1, 0, 0, 1, 1}, 1, 3, 4),
		floatTensor(t, "classes", "", []float32{2, 1, 1}, 1, 3),
		floatTensor(t, "scores", "", []float32{0.8, 0.3, 0.99}, 1, 3),
		floatTensor(t, "count", "", []float32{2}, 1),
	)
	cfg := DefaultDetectorConfig()
	cfg.InputSize = types.Dim2d{X: 100, Y: 50}

	res, err := NewDetector(cfg).Process(outputs, placement(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 2, res.Items[0].ClassIndex)
	assert.Equal(t, types.NewRect(20, 5, 40, 20), res.Items[0].BoundingBox)
}

func TestDetectSSDNeedsScale(t *testing.T) {
	nan := float32(math.NaN())
	outputs := func(format string) *tensor.Tensors {
		return tensor.NewTensors(
			floatTensor(t, "boxes", format, []float32{0.1, 0.1, 0.5, 0.5, 0, 0, 1, 1}, 1, 2, 4),
			floatTensor(t, "classes", "", []float32{0, 1}, 1, 2),
			floatTensor(t, "scores", "", []float32{0.9, nan}, 1, 2),
			floatTensor(t, "count", "", []float32{2}, 1),
		)
	}

	_, err := NewDetector(DefaultDetectorConfig()).Process(outputs("ssd"), placement(0, 0, 1))
	assert.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)

	res, err := NewDetector(DefaultDetectorConfig()).Process(outputs("ssd w_scale=200 h_scale=100"), placement(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 1, "NaN scores never pass the threshold")
	assert.Equal(t, types.NewRect(20, 10, 80, 40), res.Items[0].BoundingBox)
}

func TestDetectorLimits(t *testing.T) {
	anchors := pad([][]float32{
		{50, 50, 20, 20, 0.9},
		{51, 50, 20, 20, 0.8},
		{52, 50, 20, 20, 0.7},
	}, 8)
	out := tensor.NewTensors(floatTensor(t, "out", "yolov8", attrMajor(anchors), 1, 5, 8))

	cfg := DefaultDetectorConfig()
	cfg.NMS = false
	res, err := NewDetector(cfg).Process(out, placement(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	cfg.MaxDetections = 2
	res, err = NewDetector(cfg).Process(out, placement(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.InDelta(t, 0.8, res.Items[1].Confidence, 1e-6)

	res, err = NewDetector(DefaultDetectorConfig()).Process(out, placement(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestDetectorErrors(t *testing.T) {
	valid := tensor.NewTensors(floatTensor(t, "out", "yolov8", make([]float32, 40), 1, 5, 8))
	tests := []struct {
		name      string
		outputs   *tensor.Tensors
		placement types.Placement
		want      error
	}{
		{"empty placement", valid, types.Placement{}, ErrEmptyPlacement},
		{"zero scale", valid, types.Placement{Rect: types.NewRect(0, 0, 10, 10)}, ErrEmptyPlacement},
		{"no outputs", tensor.NewTensors(), placement(0, 0, 1), ErrNoOutputs},
		{"unknown format", tensor.NewTensors(floatTensor(t, "out", "centernet", make([]float32, 40), 1, 5, 8)), placement(0, 0, 1), ErrShapeMismatch},
		{"rank", tensor.NewTensors(floatTensor(t, "out", "yolov8", make([]float32, 40), 5, 8)), placement(0, 0, 1), ErrShapeMismatch},
		{"too few attributes", tensor.NewTensors(floatTensor(t, "out", "yolov8", make([]float32, 32), 1, 4, 8)), placement(0, 0, 1), ErrShapeMismatch},
		{"cannot infer", tensor.NewTensors(floatTensor(t, "out", "", make([]float32, 40), 5, 8)), placement(0, 0, 1), ErrShapeMismatch},
		{"ssd shapes", tensor.NewTensors(
			floatTensor(t, "boxes", "ssd", make([]float32, 12), 1, 3, 4),
			floatTensor(t, "classes", "", make([]float32, 2), 1, 2),
			floatTensor(t, "scores", "", make([]float32, 3), 1, 3),
			floatTensor(t, "count", "", make([]float32, 1), 1),
		), placement(0, 0, 1), ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetector(DefaultDetectorConfig()).Process(tt.outputs, tt.placement)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestOverlap(t *testing.T) {
	big := box{0, 0, 100, 100}
	small := box{10, 10, 20, 20}
	assert.InDelta(t, 0.01, overlap(big, small, false), 1e-6)
	assert.InDelta(t, 1.0, overlap(big, small, true), 1e-6)
	assert.Zero(t, overlap(big, box{200, 200, 210, 210}, false))
	assert.InDelta(t, 1.0/3, overlap(box{0, 0, 2, 1}, box{1, 0, 3, 1}, false), 1e-6)

	cands := []candidate{
		{box: big, confidence: 0.9},
		{box: small, confidence: 0.8},
	}
	assert.Len(t, suppress(cands, 0.5, false), 2)
	assert.Len(t, suppress(cands, 0.5, true), 1)
	assert.Nil(t, suppress(nil, 0.5, false))
}

func TestParseDataFormat(t *testing.T) {
	f := parseDataFormat("YOLOv8 w_scale=640 h_scale=384 landmarks=5")
	assert.Equal(t, "yolov8", f.keyword)
	assert.Equal(t, float32(640), f.float("w_scale", 1))
	assert.Equal(t, 5, f.int("landmarks", 0))
	assert.Equal(t, float32(1), f.float("missing", 1))

	assert.Empty(t, parseDataFormat("").keyword)
	assert.Empty(t, parseDataFormat("w_scale=2").keyword)
}
