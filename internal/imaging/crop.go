package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
)

// MaxCropScale bounds the zoom factor accepted by Crop and CropGroup.
const MaxCropScale = 8.0

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts the pixel rectangle r from img, measured from the image's
// top-left corner, and scales it by scale. A scale of 0 means 1.
func Crop(img image.Image, r image.Rectangle, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	r = r.Add(bounds.Min)

	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: %v is empty", r.Sub(bounds.Min))
	}
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r.Sub(bounds.Min), bounds.Sub(bounds.Min))
	}
	if scale == 0 {
		scale = 1
	}
	if scale < 0 || scale > MaxCropScale {
		return nil, fmt.Errorf("scale %v out of range (0, %v]", scale, MaxCropScale)
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return encodePNG(cropped)
}

// CropGroup crops the area covered by a normalized text box, padded like an
// on-screen highlight so that the glyph edges are not clipped.
func CropGroup(img image.Image, box geometry.Rect, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	r := box.Pixels(bounds.Dx(), bounds.Dy())
	if r.Empty() {
		return nil, fmt.Errorf("%w: group box covers no pixels", ErrDegenerate)
	}
	padX, padY := int(geometry.HighlightPadX), int(geometry.HighlightPadY)
	r = image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY).
		Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	return Crop(img, r, scale)
}

func encodePNG(img image.Image) (*CropResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &CropResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
