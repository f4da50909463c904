//go:build !cgo

package ocr

import (
	"context"

	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// Tesseract is unavailable without cgo; Recognize always fails.
type Tesseract struct{}

// TesseractOption configures a Tesseract engine.
type TesseractOption func(*Tesseract)

// WithTessdataPrefix is accepted for API compatibility and ignored.
func WithTessdataPrefix(string) TesseractOption { return func(*Tesseract) {} }

// WithPreprocess is accepted for API compatibility and ignored.
func WithPreprocess(bool) TesseractOption { return func(*Tesseract) {} }

// NewTesseract returns the stub engine.
func NewTesseract(opts ...TesseractOption) *Tesseract {
	e := &Tesseract{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Engine.
func (e *Tesseract) Name() string { return "tesseract" }

// Recognize implements Engine and always returns ErrUnavailable.
func (e *Tesseract) Recognize(context.Context, Request) ([]textgroup.Fragment, error) {
	return nil, ErrUnavailable
}

// Version returns an empty string.
func (e *Tesseract) Version() string { return "" }

// Info reports that the backend is unavailable.
func (e *Tesseract) Info() Info {
	return Info{Available: false, Engine: e.Name(), Error: "built without cgo"}
}
