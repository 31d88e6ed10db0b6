package postprocess

import "github.com/chewxy/math32"

// overlap returns intersection / union of two boxes, or intersection / smaller area
// when withMin is set.
func overlap(a, b box, withMin bool) float32 {
	inter := box{
		x1: math32.Max(a.x1, b.x1),
		y1: math32.Max(a.y1, b.y1),
		x2: math32.Min(a.x2, b.x2),
		y2: math32.Min(a.y2, b.y2),
	}.area()
	if inter <= 0 {
		return 0
	}
	var denom float32
	if withMin {
		denom = math32.Min(a.area(), b.area())
	} else {
		denom = a.area() + b.area() - inter
	}
	if denom <= 0 {
		return 0
	}
	return inter / denom
}

// suppress performs class-aware greedy non-maximum suppression.
//
// Arguments:
//   - cands: Candidates sorted by descending confidence.
//   - threshold: Overlap above which the lower-confidence box of a class is dropped.
//   - withMin: Use intersection over the smaller area instead of IoU.
//
// Returns:
//   - The surviving candidates, in input order.
func suppress(cands []candidate, threshold float32, withMin bool) []candidate {
	if len(cands) == 0 {
		return nil
	}
	kept := make([]candidate, 0, len(cands))
	used := make([]bool, len(cands))
	for i := range cands {
		if used[i] {
			continue
		}
		anchor := cands[i]
		kept = append(kept, anchor)
		for j := i + 1; j < len(cands); j++ {
			if used[j] || cands[j].class != anchor.class {
				continue
			}
			if overlap(anchor.box, cands[j].box, withMin) > threshold {
				used[j] = true
			}
		}
	}
	return kept
}
