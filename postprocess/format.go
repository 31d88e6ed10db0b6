package postprocess

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

// Detection encodings selected by the first keyword of an output's data format.
const (
	FormatYOLOv8 = "yolov8"
	FormatYOLOv5 = "yolov5"
	FormatSSD    = "ssd"
	// FormatTFLiteDetection is the TensorFlow Lite name of the SSD post-processing op.
	FormatTFLiteDetection = "tflite_detection"
)

// dataFormat is a parsed "keyword key=value ..." string.
type dataFormat struct {
	keyword string
	params  map[string]string
}

func parseDataFormat(s string) dataFormat {
	f := dataFormat{params: map[string]string{}}
	for i, field := range strings.Fields(s) {
		if k, v, ok := strings.Cut(field, "="); ok {
			f.params[strings.ToLower(k)] = v
			continue
		}
		if i == 0 {
			f.keyword = strings.ToLower(field)
		}
	}
	return f
}

func (f dataFormat) float(key string, def float32) float32 {
	v, err := strconv.ParseFloat(f.params[key], 32)
	if err != nil || v <= 0 {
		return def
	}
	return float32(v)
}

func (f dataFormat) int(key string, def int) int {
	v, err := strconv.Atoi(f.params[key])
	if err != nil || v < 0 {
		return def
	}
	return v
}

// box is an axis-aligned box in tensor pixel coordinates.
type box struct {
	x1, y1, x2, y2 float32
}

func (b box) area() float32 {
	return math32.Max(0, b.x2-b.x1) * math32.Max(0, b.y2-b.y1)
}

type point struct {
	x, y, visibility float32
}

// candidate is a decoded detection before suppression and remapping.
type candidate struct {
	box        box
	confidence float32
	class      int
	landmarks  []point
}

// decode picks the encoding for outputs and decodes every candidate at or above threshold.
func (d *Detector) decode(outputs *tensor.Tensors, threshold float32) ([]candidate, error) {
	first, _ := outputs.At(0)
	f := parseDataFormat(first.DataFormat())
	keyword := f.keyword
	if keyword == "" {
		switch {
		case outputs.Len() == 1 && first.Shape().Len() == 3:
			keyword = FormatYOLOv8
		case outputs.Len() == 4:
			keyword = FormatSSD
		default:
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot infer encoding from %d outputs", outputs.Len())
		}
	}

	switch keyword {
	case FormatYOLOv8:
		return decodeYOLO(first, f, false, threshold)
	case FormatYOLOv5:
		return decodeYOLO(first, f, true, threshold)
	case FormatSSD, FormatTFLiteDetection:
		return decodeSSD(outputs, f, d.cfg.InputSize, threshold)
	}
	return nil, errors.Wrapf(ErrShapeMismatch, "unknown detection format %q", keyword)
}

// decodeYOLO reads [1, A, N] (attribute major, when A < N) or [1, N, A] outputs.
// Each anchor holds cx, cy, w, h, an objectness score for yolov5, the class scores and
// three values (x, y, visibility) per landmark.
func decodeYOLO(t *tensor.Tensor, f dataFormat, objectness bool, threshold float32) ([]candidate, error) {
	dims := t.Shape().Dims()
	if len(dims) != 3 || dims[0] != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s: %s", t.Name(), t.Shape())
	}
	attrMajor := dims[1] < dims[2]
	a, n := dims[2], dims[1]
	if attrMajor {
		a, n = dims[1], dims[2]
	}
	head := 4
	if objectness {
		head = 5
	}
	landmarks := f.int("landmarks", 0)
	classes := a - head - 3*landmarks
	if classes < 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s: %d attributes for %d landmarks", t.Name(), a, landmarks)
	}

	vals := t.AsFloat()
	at := func(row, attr int) float32 {
		if attrMajor {
			return vals[attr*n+row]
		}
		return vals[row*a+attr]
	}
	ws, hs := f.float("w_scale", 1), f.float("h_scale", 1)

	var out []candidate
	for row := range n {
		best, score := 0, at(row, head)
		for c := 1; c < classes; c++ {
			if s := at(row, head+c); s > score {
				best, score = c, s
			}
		}
		if objectness {
			score *= at(row, 4)
		}
		if !(score >= threshold) {
			continue
		}
		cx, cy := at(row, 0)*ws, at(row, 1)*hs
		w, h := at(row, 2)*ws, at(row, 3)*hs
		cand := candidate{
			box:        box{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
			confidence: score,
			class:      best,
		}
		for l := range landmarks {
			base := head + classes + 3*l
			cand.landmarks = append(cand.landmarks, point{
				x:          at(row, base) * ws,
				y:          at(row, base+1) * hs,
				visibility: at(row, base+2),
			})
		}
		out = append(out, cand)
	}
	return out, nil
}

// decodeSSD reads the four outputs of an SSD post-processing stage: normalized boxes
// [1, N, 4] as ymin, xmin, ymax, xmax, classes [1, N], scores [1, N] and a count.
// Boxes are scaled by w_scale/h_scale, or by inputSize when the format omits them.
func decodeSSD(outputs *tensor.Tensors, f dataFormat, inputSize types.Dim2d, threshold float32) ([]candidate, error) {
	if outputs.Len() < 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "ssd needs 4 outputs, got %d", outputs.Len())
	}
	ts := outputs.Slice()
	boxes, classes, scores, count := ts[0], ts[1], ts[2], ts[3]
	dims := boxes.Shape().Dims()
	if len(dims) != 3 || dims[0] != 1 || dims[2] != 4 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%s: %s", boxes.Name(), boxes.Shape())
	}
	n := dims[1]
	if classes.ItemCount() != n || scores.ItemCount() != n || !count.IsScalar() {
		return nil, errors.Wrapf(ErrShapeMismatch, "ssd outputs %s, %s, %s",
			classes.Shape(), scores.Shape(), count.Shape())
	}

	ws := f.float("w_scale", float32(inputSize.X))
	hs := f.float("h_scale", float32(inputSize.Y))
	if ws <= 0 || hs <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%s: normalized boxes need w_scale and h_scale or a detector input size", boxes.Name())
	}
	b, cls, sc := boxes.AsFloat(), classes.AsFloat(), scores.AsFloat()
	if c := int(count.AsFloat()[0]); c >= 0 && c < n {
		n = c
	}

	var out []candidate
	for i := range n {
		if !(sc[i] >= threshold) {
			continue
		}
		out = append(out, candidate{
			box:        box{b[4*i+1] * ws, b[4*i] * hs, b[4*i+3] * ws, b[4*i+2] * hs},
			confidence: sc[i],
			class:      int(cls[i]),
		})
	}
	return out, nil
}
