package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// PreprocessContrast is the contrast boost applied after grayscale conversion.
const PreprocessContrast = 0.3

// Preprocess prepares an image for OCR: it converts to grayscale and
// stretches the contrast. The result has the same size as img and its origin
// at (0,0).
func Preprocess(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	gray := effect.Grayscale(img)
	return adjust.Contrast(gray, PreprocessContrast)
}
