//go:build cgo

package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"testing"

	disimaging "github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// renderLines draws each line with basicfont on a white canvas and scales the
// result up so Tesseract has enough pixels to work with.
func renderLines(lines []string, scale int) image.Image {
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}
	width := maxLen*7 + 40
	height := len(lines)*16 + 30

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for i, line := range lines {
		drawText(img, 20, 20+i*16, line, color.Black)
	}
	if scale <= 1 {
		return img
	}
	return disimaging.Resize(img, width*scale, height*scale, disimaging.NearestNeighbor)
}

func recognize(t *testing.T, req Request) []textgroup.Fragment {
	t.Helper()
	fragments, err := NewTesseract().Recognize(context.Background(), req)
	if err != nil {
		if strings.Contains(err.Error(), "tesseract") ||
			strings.Contains(err.Error(), "library") ||
			strings.Contains(err.Error(), "tessdata") {
			t.Skipf("Tesseract not available: %v", err)
		}
		t.Fatalf("Recognize failed: %v", err)
	}
	return fragments
}

func TestTesseract_BoxesAreNormalized(t *testing.T) {
	fragments := recognize(t, Request{Image: renderLines([]string{"HELLO WORLD"}, 4), Languages: []string{"eng"}})
	t.Logf("fragments: %d", len(fragments))

	for _, f := range fragments {
		if f.Text == "" {
			t.Error("empty fragments should be dropped")
		}
		b := f.Box
		if b.X < 0 || b.Y < 0 || b.MaxX() > 1.0000001 || b.MaxY() > 1.0000001 {
			t.Errorf("fragment %q has box outside [0,1]: %+v", f.Text, b)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			t.Errorf("fragment %q has confidence %v", f.Text, f.Confidence)
		}
	}
}

func TestTesseract_WordsGroupIntoLines(t *testing.T) {
	lines := []string{"LINE ONE", "LINE TWO", "LINE THREE"}
	fragments := recognize(t, Request{Image: renderLines(lines, 3), Languages: []string{"eng"}})

	groups := textgroup.GroupFragments(fragments)
	for i, g := range groups {
		t.Logf("  group %d: %q", i, g.CombinedText())
	}
	if len(fragments) > 0 && len(groups) > len(fragments) {
		t.Errorf("more groups (%d) than fragments (%d)", len(groups), len(fragments))
	}
}

func TestTesseract_LineLevel(t *testing.T) {
	fragments := recognize(t, Request{
		Image:     renderLines([]string{"FIRST LINE", "SECOND LINE"}, 3),
		Languages: []string{"eng"},
		Level:     LevelLine,
	})
	t.Logf("line fragments: %d", len(fragments))
	for _, f := range fragments {
		t.Logf("  %q %+v", f.Text, f.Box)
	}
}

func TestTesseract_RotatedInput(t *testing.T) {
	upright := renderLines([]string{"ROTATED"}, 4)
	// Stored rotated a quarter turn counter-clockwise; orientation "right"
	// turns it back.
	stored := disimaging.Rotate90(upright)

	req := Request{Image: stored, Orientation: orientation.OrientationRight, Languages: []string{"eng"}}
	size := req.UprightSize()
	if int(size.Width) != upright.Bounds().Dx() || int(size.Height) != upright.Bounds().Dy() {
		t.Errorf("UprightSize = %+v, want %dx%d", size, upright.Bounds().Dx(), upright.Bounds().Dy())
	}
	fragments := recognize(t, req)
	t.Logf("rotated fragments: %d", len(fragments))
}

func TestTesseract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTesseract().Recognize(ctx, Request{Image: renderLines([]string{"X"}, 1)})
	if err == nil {
		t.Error("Recognize should fail on a cancelled context")
	}
}

func TestTesseract_Info(t *testing.T) {
	info := NewTesseract().Info()
	if info.Engine != "tesseract" {
		t.Errorf("Engine: got %q, want tesseract", info.Engine)
	}
	t.Logf("info: %+v", info)
}

func TestFragmentsFromBoxes(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 60, 45), Word: "Hello", Confidence: 90},
		{Box: image.Rect(70, 20, 90, 45), Word: "  ", Confidence: 50},
	}
	fragments := fragmentsFromBoxes(boxes, 200, 100)
	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, want 1 (blank words dropped)", len(fragments))
	}
	f := fragments[0]
	want := textgroup.Fragment{Text: "Hello", Confidence: 0.9}
	if f.Text != want.Text || math.Abs(f.Confidence-want.Confidence) > 1e-9 {
		t.Errorf("fragment: got %q/%v", f.Text, f.Confidence)
	}
	if math.Abs(f.Box.X-0.05) > 1e-9 || math.Abs(f.Box.Y-0.55) > 1e-9 {
		t.Errorf("box origin: got %+v, want x=0.05 y=0.55", f.Box)
	}
}

func TestTesseract_OffsetOriginImage(t *testing.T) {
	full := renderLines([]string{"PADDING", "OFFSET TEXT"}, 4).(*image.NRGBA)
	b := full.Bounds()
	// A sub-image keeps its parent's coordinates, so its origin is not (0,0).
	sub := full.SubImage(image.Rect(0, b.Dy()/2, b.Dx(), b.Dy()))

	fragments, err := NewTesseract(WithPreprocess(false)).Recognize(context.Background(), Request{Image: sub, Languages: []string{"eng"}})
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	for _, f := range fragments {
		if f.Box.X < 0 || f.Box.Y < 0 || f.Box.MaxX() > 1.0000001 || f.Box.MaxY() > 1.0000001 {
			t.Errorf("fragment %q has box outside [0,1]: %+v", f.Text, f.Box)
		}
	}
}
