package models

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Labels maps class indices produced by a model to human-readable names.
type Labels struct {
	names     []string
	nameToIdx map[string]int
}

// NewLabels builds a label set where names[i] is the label of class i.
func NewLabels(names ...string) *Labels {
	l := &Labels{names: names, nameToIdx: make(map[string]int, len(names))}
	for i, n := range names {
		if _, dup := l.nameToIdx[n]; !dup {
			l.nameToIdx[n] = i
		}
	}
	return l
}

// LoadLabels reads a label file.
//
// JSON files carry a "labels" array, as in the info.json shipped next to models. Any other
// file is read as one label per line.
//
// Arguments:
//   - path: The label file.
//
// Returns:
//   - *Labels: The loaded labels.
//   - error: When the file cannot be read or holds no labels.
func LoadLabels(path string) (*Labels, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read labels %s", path)
	}
	var names []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var info struct {
			Labels []string `json:"labels"`
		}
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, errors.Wrapf(err, "parse labels %s", path)
		}
		names = info.Labels
	} else {
		sc := bufio.NewScanner(bytes.NewReader(raw))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				names = append(names, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, errors.Wrapf(err, "scan labels %s", path)
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no labels in %s", path)
	}
	return NewLabels(names...), nil
}

// Len returns the number of labels.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

// Name returns the label of class idx, or "" when idx is out of range.
func (l *Labels) Name(idx int) string {
	if idx < 0 || idx >= l.Len() {
		return ""
	}
	return l.names[idx]
}

// Index returns the class index of name.
func (l *Labels) Index(name string) (int, error) {
	if l != nil {
		if idx, ok := l.nameToIdx[name]; ok {
			return idx, nil
		}
	}
	return -1, errors.Errorf("label %q not found", name)
}

// COCOLabels is the zero-based list of the 80 COCO classes that YOLO detectors index into.
var COCOLabels = NewLabels(
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
)
