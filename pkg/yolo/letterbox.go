package yolo

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

const padValue = 114.0 / 255.0

// Transform records how a source image was letterboxed into the square model
// input so boxes can be mapped back to source pixels. PadX and PadY are the
// whole-pixel offsets the resized image was placed at.
type Transform struct {
	Scale  float64
	PadX   int
	PadY   int
	Width  int
	Height int
}

// Letterbox scales img to fit a size x size square keeping the aspect ratio,
// pads the rest with gray and returns a planar RGB tensor normalized to [0,1].
func Letterbox(img image.Image, size int) ([]float32, Transform) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	tr := Transform{
		Scale:  scale,
		PadX:   (size - newW) / 2,
		PadY:   (size - newH) / 2,
		Width:  w,
		Height: h,
	}

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)
	rb := resized.Bounds()

	plane := size * size
	data := make([]float32, 3*plane)
	for i := range data {
		data[i] = padValue
	}

	offX := tr.PadX
	offY := tr.PadY
	for y := 0; y < rb.Dy() && y+offY < size; y++ {
		for x := 0; x < rb.Dx() && x+offX < size; x++ {
			r, g, b, _ := resized.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			idx := (y+offY)*size + (x + offX)
			data[idx] = float32(r) / 65535.0
			data[plane+idx] = float32(g) / 65535.0
			data[2*plane+idx] = float32(b) / 65535.0
		}
	}

	return data, tr
}

// Restore maps a box from model input space back to the source image and
// clips it to the image bounds.
func (t Transform) Restore(x1, y1, x2, y2 float64) (float64, float64, float64, float64) {
	unmap := func(v float64, pad int, limit int) float64 {
		v = (v - float64(pad)) / t.Scale
		return math.Max(0, math.Min(v, float64(limit)))
	}
	return unmap(x1, t.PadX, t.Width), unmap(y1, t.PadY, t.Height),
		unmap(x2, t.PadX, t.Width), unmap(y2, t.PadY, t.Height)
}
