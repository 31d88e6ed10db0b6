package postprocess

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/tensor"
	"github.com/nvr-ai/go-synap/types"
)

// DetectorConfig configures a Detector.
type DetectorConfig struct {
	// ScoreThreshold drops detections with a lower confidence.
	ScoreThreshold float32 `yaml:"score_threshold" json:"score_threshold"`
	// MaxDetections truncates the result when positive.
	MaxDetections int `yaml:"max_detections" json:"max_detections"`
	// NMS enables non-maximum suppression.
	NMS bool `yaml:"nms" json:"nms"`
	// IoUThreshold is the overlap above which a box is suppressed.
	IoUThreshold float32 `yaml:"iou_threshold" json:"iou_threshold"`
	// IoUWithMin measures overlap against the smaller box instead of the union.
	IoUWithMin bool `yaml:"iou_with_min" json:"iou_with_min"`
	// InputSize is the network input grid, used to scale normalized SSD boxes when the
	// output data format has no w_scale and h_scale.
	InputSize types.Dim2d `yaml:"-" json:"-"`
}

// DefaultDetectorConfig returns a threshold of 0.5 with NMS at IoU 0.5 and no limit.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ScoreThreshold: 0.5,
		NMS:            true,
		IoUThreshold:   0.5,
	}
}

// DetectorResultItem is one detection in source image coordinates.
type DetectorResultItem struct {
	ClassIndex  int              `json:"class_index"`
	Confidence  float32          `json:"confidence"`
	BoundingBox types.Rect       `json:"bounding_box"`
	Landmarks   []types.Landmark `json:"landmarks,omitempty"`
	Mask        types.Mask       `json:"-"`
}

// DetectorResult holds detections, highest confidence first.
type DetectorResult struct {
	Items []DetectorResultItem `json:"items"`
}

// Detector decodes object detection outputs.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the detector configuration.
func (d *Detector) Config() DetectorConfig { return d.cfg }

// Process decodes outputs and maps the detections back to the source image.
//
// Arguments:
//   - outputs: The network outputs. The first tensor's data format selects the
//     encoding (yolov8, yolov5 or ssd); without one it is inferred from the shapes.
//   - placement: The placement returned by the preprocessor for the input image.
//
// Returns:
//   - *DetectorResult: Detections sorted by confidence descending.
//   - error: ErrEmptyPlacement, ErrNoOutputs or ErrShapeMismatch.
func (d *Detector) Process(outputs *tensor.Tensors, placement types.Placement) (*DetectorResult, error) {
	if placement.Empty() {
		return nil, errors.Wrap(ErrEmptyPlacement, placement.String())
	}
	if outputs.Len() == 0 {
		return nil, ErrNoOutputs
	}
	cands, err := d.decode(outputs, d.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(cands, func(a, b candidate) int { return byConfidence(a.confidence, b.confidence) })
	if d.cfg.NMS {
		cands = suppress(cands, d.cfg.IoUThreshold, d.cfg.IoUWithMin)
	}
	if d.cfg.MaxDetections > 0 && len(cands) > d.cfg.MaxDetections {
		cands = cands[:d.cfg.MaxDetections]
	}

	res := &DetectorResult{Items: make([]DetectorResultItem, len(cands))}
	for i, c := range cands {
		res.Items[i] = remap(c, placement)
	}
	return res, nil
}

// remap inverts the letterbox: orig = (coord - origin) / scale.
func remap(c candidate, p types.Placement) DetectorResultItem {
	s := float32(p.Scale)
	ox, oy := float32(p.Origin.X), float32(p.Origin.Y)
	round := func(v float32) int { return int(math.Round(float64(v))) }

	item := DetectorResultItem{
		ClassIndex: c.class,
		Confidence: c.confidence,
		BoundingBox: types.NewRect(
			round((c.box.x1-ox)/s),
			round((c.box.y1-oy)/s),
			round((c.box.x2-c.box.x1)/s),
			round((c.box.y2-c.box.y1)/s),
		),
	}
	for _, lm := range c.landmarks {
		l := types.NewLandmark(round((lm.x-ox)/s), round((lm.y-oy)/s), 0)
		l.Visibility = lm.visibility
		item.Landmarks = append(item.Landmarks, l)
	}
	return item
}
