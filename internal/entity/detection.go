package entity

// BoundingBox is a raw detector box in source image pixels.
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Class      int     `json:"class"`
}

// InferenceResult is one result object returned by a detector call. A single
// call may yield several of them.
type InferenceResult struct {
	Boxes []BoundingBox `json:"boxes"`
}

// Detection is a bounding box with its class resolved to a condition name.
type Detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Class      int     `json:"class"`
	Problem    string  `json:"problem"`
}
