package yolo

import (
	"sort"

	"DermaScan/internal/entity"
)

// AnchorCount is the number of predictions a YOLOv8-style head emits for a
// square input of the given size (strides 8, 16 and 32).
func AnchorCount(size int) int {
	total := 0
	for _, stride := range []int{8, 16, 32} {
		n := size / stride
		total += n * n
	}
	return total
}

// decodeOutput reads a [1, 4+numClasses, anchors] head. Each column holds
// cx, cy, w, h followed by one score per class.
func decodeOutput(out []float32, numClasses, anchors int, confThreshold float64) []entity.BoundingBox {
	rows := 4 + numClasses
	if len(out) < rows*anchors {
		return nil
	}

	boxes := make([]entity.BoundingBox, 0)
	for a := 0; a < anchors; a++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := out[(4+c)*anchors+a]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 || float64(bestScore) < confThreshold {
			continue
		}

		cx := float64(out[a])
		cy := float64(out[anchors+a])
		w := float64(out[2*anchors+a])
		h := float64(out[3*anchors+a])

		boxes = append(boxes, entity.BoundingBox{
			X1:         cx - w/2,
			Y1:         cy - h/2,
			X2:         cx + w/2,
			Y2:         cy + h/2,
			Confidence: float64(bestScore),
			Class:      bestClass,
		})
	}

	return boxes
}

// nonMaxSuppression is class-aware: boxes only suppress boxes of the same
// class. The result is ordered by descending confidence.
func nonMaxSuppression(boxes []entity.BoundingBox, iouThreshold float64, maxDetections int) []entity.BoundingBox {
	sorted := make([]entity.BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]entity.BoundingBox, 0, len(sorted))
	for _, candidate := range sorted {
		if maxDetections > 0 && len(kept) >= maxDetections {
			break
		}
		suppressed := false
		for _, k := range kept {
			if k.Class == candidate.Class && iou(k, candidate) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, candidate)
		}
	}

	return kept
}

func iou(a, b entity.BoundingBox) float64 {
	ix1 := max(a.X1, b.X1)
	iy1 := max(a.Y1, b.Y1)
	ix2 := min(a.X2, b.X2)
	iy2 := min(a.Y2, b.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
