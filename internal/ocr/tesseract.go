//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-text-mcp/internal/imaging"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// Tesseract recognizes text with the Tesseract engine through gosseract.
type Tesseract struct {
	clientFactory  func() *gosseract.Client
	tessdataPrefix string
	preprocess     bool
}

// TesseractOption configures a Tesseract engine.
type TesseractOption func(*Tesseract)

// WithTessdataPrefix points Tesseract at a tessdata directory instead of the
// system default.
func WithTessdataPrefix(prefix string) TesseractOption {
	return func(e *Tesseract) { e.tessdataPrefix = prefix }
}

// WithPreprocess enables grayscale and contrast enhancement before
// recognition.
func WithPreprocess(enabled bool) TesseractOption {
	return func(e *Tesseract) { e.preprocess = enabled }
}

// NewTesseract constructs a Tesseract-backed engine.
func NewTesseract(opts ...TesseractOption) *Tesseract {
	e := &Tesseract{clientFactory: gosseract.NewClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Engine.
func (e *Tesseract) Name() string { return "tesseract" }

// Recognize implements Engine. The image is made upright, optionally
// preprocessed, and handed to Tesseract as PNG bytes. Word or line boxes are
// returned as normalized fragments; empty words are dropped.
func (e *Tesseract) Recognize(ctx context.Context, req Request) ([]textgroup.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := orientation.Apply(req.Image, req.Orientation)
	if e.preprocess {
		img = imaging.Preprocess(img)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	if len(req.Languages) > 0 {
		if err := client.SetLanguage(req.Languages...); err != nil {
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}

	level := gosseract.RIL_WORD
	if req.Level == LevelLine {
		level = gosseract.RIL_TEXTLINE
	}
	boxes, err := client.GetBoundingBoxes(level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return fragmentsFromBoxes(boxes, bounds.Dx(), bounds.Dy()), nil
}

// fragmentsFromBoxes converts Tesseract boxes of a w x h image. The image was
// handed over as PNG, which starts at (0,0), so boxes are already relative to
// the top-left corner whatever the origin of the source image.
func fragmentsFromBoxes(boxes []gosseract.BoundingBox, w, h int) []textgroup.Fragment {
	fragments := make([]textgroup.Fragment, 0, len(boxes))
	for _, box := range boxes {
		f, ok := newFragment(box.Word, box.Confidence/100.0, box.Box, w, h)
		if !ok {
			continue
		}
		fragments = append(fragments, f)
	}
	return fragments
}

// Version returns the linked Tesseract version.
func (e *Tesseract) Version() string {
	client := e.clientFactory()
	defer client.Close()
	return client.Version()
}

// Info reports the availability of the Tesseract backend.
func (e *Tesseract) Info() Info {
	version := e.Version()
	if version == "" {
		return Info{Available: false, Engine: e.Name(), Error: "tesseract did not report a version"}
	}
	return Info{Available: true, Engine: e.Name(), Version: version}
}
