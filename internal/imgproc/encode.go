package imgproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// EncodePNG renders an image to PNG bytes, the interchange format every OCR
// backend accepts.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
