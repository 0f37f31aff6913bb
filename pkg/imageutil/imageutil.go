// Package imageutil normalizes arbitrary image bytes to JPEG.
package imageutil

import (
	"bytes"
	"fmt"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const jpegQuality = 95

// ToJPEG decodes data in any registered format (jpeg, png, gif, bmp, tiff,
// webp), applies EXIF orientation and re-encodes it as JPEG.
func ToJPEG(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}
