package postprocess

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/tensor"
)

// ClassifierResultItem is one ranked class.
type ClassifierResultItem struct {
	ClassIndex int     `json:"class_index"`
	Confidence float32 `json:"confidence"`
}

// ClassifierResult holds the top classes, best first.
type ClassifierResult struct {
	Items []ClassifierResultItem `json:"items"`
}

// Classifier ranks the scores of a classification network.
type Classifier struct {
	topCount int
}

// NewClassifier creates a classifier returning up to topCount classes. Values below 1
// select a single class.
func NewClassifier(topCount int) *Classifier {
	return &Classifier{topCount: max(topCount, 1)}
}

// TopCount returns the maximum number of classes per result.
func (c *Classifier) TopCount() int { return c.topCount }

// byConfidence orders confidences descending with NaN last.
func byConfidence(a, b float32) int { return cmp.Compare(b, a) }

// Process ranks the dequantized scores of the first output tensor.
//
// Items are sorted by confidence descending; equal confidences keep the lower class
// index first and NaN scores rank last. Exactly min(topCount, classes) items are returned.
func (c *Classifier) Process(outputs *tensor.Tensors) (*ClassifierResult, error) {
	if outputs.Len() == 0 {
		return nil, ErrNoOutputs
	}
	out, _ := outputs.At(0)
	scores := out.AsFloat()
	if len(scores) == 0 {
		return nil, errors.Wrap(ErrNoClasses, out.Name())
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return byConfidence(scores[a], scores[b]) })

	n := min(c.topCount, len(idx))
	res := &ClassifierResult{Items: make([]ClassifierResultItem, n)}
	for i := range n {
		res.Items[i] = ClassifierResultItem{ClassIndex: idx[i], Confidence: scores[idx[i]]}
	}
	return res, nil
}
