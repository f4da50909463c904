package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// ErrUnavailable is returned by engines that cannot run in this build or on
// this host.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Level selects the granularity of the fragments an engine reports.
type Level string

const (
	LevelWord Level = "word"
	LevelLine Level = "line"
)

// ParseLevel returns LevelLine for "line" and LevelWord for anything else.
func ParseLevel(s string) Level {
	if Level(strings.ToLower(strings.TrimSpace(s))) == LevelLine {
		return LevelLine
	}
	return LevelWord
}

// Request describes one recognition.
type Request struct {
	// Image holds the pixels as stored, before any orientation is applied.
	Image image.Image

	// Orientation says how Image must be transformed to appear upright.
	Orientation orientation.Orientation

	// Languages are engine language codes, e.g. "eng". Empty uses the
	// engine's default.
	Languages []string

	// Level selects word or line fragments. Empty means LevelWord.
	Level Level
}

// UprightSize returns the pixel size of the request image once made upright.
func (r Request) UprightSize() geometry.Size {
	if r.Image == nil {
		return geometry.Size{}
	}
	b := r.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if r.Orientation.SwapsAxes() {
		w, h = h, w
	}
	return geometry.Size{Width: w, Height: h}
}

// Engine recognizes text in an image.
type Engine interface {
	// Name identifies the engine in logs and tool output.
	Name() string

	// Recognize returns the fragments found in the request image. Boxes are
	// normalized to the upright image with a bottom-left origin.
	Recognize(ctx context.Context, req Request) ([]textgroup.Fragment, error)
}

// ScanResult is the outcome of one recognition. Exactly one is delivered per
// Start call.
type ScanResult struct {
	ImageSize   geometry.Size
	Orientation orientation.Orientation
	Fragments   []textgroup.Fragment
	Err         error
}

// Start runs engine.Recognize on a new goroutine. The returned channel yields
// exactly one ScanResult and is then closed. Failures, including a panicking
// engine, are delivered with Err set and no fragments.
func Start(ctx context.Context, engine Engine, req Request) <-chan ScanResult {
	ch := make(chan ScanResult, 1)
	go func() {
		defer close(ch)
		ch <- run(ctx, engine, req)
	}()
	return ch
}

func run(ctx context.Context, engine Engine, req Request) (res ScanResult) {
	res = ScanResult{
		ImageSize:   req.UprightSize(),
		Orientation: req.Orientation,
		Fragments:   []textgroup.Fragment{},
	}
	defer func() {
		if r := recover(); r != nil {
			res.Fragments = []textgroup.Fragment{}
			res.Err = fmt.Errorf("ocr engine panicked: %v", r)
		}
	}()

	if engine == nil {
		res.Err = ErrUnavailable
		return res
	}
	if req.Image == nil {
		res.Err = errors.New("no image to scan")
		return res
	}
	fragments, err := engine.Recognize(ctx, req)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", engine.Name(), err)
		return res
	}
	if fragments != nil {
		res.Fragments = fragments
	}
	return res
}

// newFragment converts one engine word or line, given as a top-left pixel box
// of the upright image, into a normalized fragment. Text is trimmed and
// NFC-normalized; empty text and empty boxes are rejected.
func newFragment(text string, confidence float64, box image.Rectangle, imageW, imageH int) (textgroup.Fragment, bool) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" || box.Empty() || imageW <= 0 || imageH <= 0 {
		return textgroup.Fragment{}, false
	}
	f := textgroup.NewFragment(text, geometry.FromPixels(box, imageW, imageH))
	f.Confidence = confidence
	return f, true
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Engine    string `json:"engine"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}
