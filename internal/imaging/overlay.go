package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// ErrDegenerate is returned when the image or container has no usable area.
var ErrDegenerate = errors.New("nothing to render: degenerate image or container size")

// ErrCanvasTooLarge is returned when the requested container would need more
// than MaxOverlayPixels pixels.
var ErrCanvasTooLarge = errors.New("container too large to render")

// MaxOverlayPixels bounds the rendered canvas, about 64 MB of RGBA. It fits an
// 8K display.
const MaxOverlayPixels = 16 << 20

// goldenAngle spreads consecutive palette hues as far apart as possible.
const goldenAngle = 137.50776405

// OverlayOptions controls how RenderOverlay draws.
type OverlayOptions struct {
	// Dim is the fraction of brightness removed outside the highlights.
	Dim float64

	// CornerRadius rounds the highlight corners, in display pixels.
	CornerRadius float64

	// StrokeWidth is the highlight outline width in display pixels. 0
	// disables the outline.
	StrokeWidth float64

	// Background fills the letterbox area around the fitted image.
	Background color.Color
}

// DefaultOverlayOptions returns a 50% dim, 6px corners and a 2px outline on
// black.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		Dim:          0.5,
		CornerRadius: 6,
		StrokeWidth:  2,
		Background:   color.Black,
	}
}

// OverlayHighlight describes one highlight drawn on the overlay.
type OverlayHighlight struct {
	GroupID string               `json:"group_id"`
	Text    string               `json:"text"`
	Rect    geometry.DisplayRect `json:"rect"`
	Color   string               `json:"color"`
}

// OverlayResult is the rendered overlay and the geometry used to draw it.
type OverlayResult struct {
	CropResult
	Layout     geometry.Layout    `json:"layout"`
	Highlights []OverlayHighlight `json:"highlights"`
}

// RenderOverlay draws img aspect-fit and centred in a container, dims it, and
// cuts an undimmed rounded hole around every group with a coloured outline.
// It is the picture a user sees after a scan: the text that can be tapped
// stands out from the rest of the image.
//
// RenderOverlay returns ErrDegenerate when the image or the container has no
// area, and ErrCanvasTooLarge when the container exceeds MaxOverlayPixels.
func RenderOverlay(img image.Image, groups []textgroup.Group, container geometry.Size, opts OverlayOptions) (*OverlayResult, error) {
	if img == nil {
		return nil, ErrDegenerate
	}
	bounds := img.Bounds()
	imageSize := geometry.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}
	layout, ok := geometry.NewLayout(imageSize, container)
	if !ok {
		return nil, ErrDegenerate
	}

	if container.Width*container.Height > MaxOverlayPixels {
		return nil, fmt.Errorf("%w: %.0fx%.0f exceeds %d pixels", ErrCanvasTooLarge, container.Width, container.Height, MaxOverlayPixels)
	}
	cw, ch := int(math.Round(container.Width)), int(math.Round(container.Height))
	fw, fh := int(math.Round(layout.Fit.Width)), int(math.Round(layout.Fit.Height))
	if cw < 1 || ch < 1 || fw < 1 || fh < 1 {
		return nil, ErrDegenerate
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}

	fitted := imaging.Resize(img, fw, fh, imaging.Lanczos)
	dimmed := adjust.Brightness(fitted, -opts.Dim)

	canvas := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	origin := image.Pt(int(math.Round(layout.Offset.X)), int(math.Round(layout.Offset.Y)))
	picture := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(fw, fh))}
	draw.Draw(canvas, picture, dimmed, image.Point{}, draw.Src)

	highlights := make([]OverlayHighlight, len(groups))
	for i, g := range groups {
		rect := geometry.Highlight(layout.ToDisplay(g.Box))
		highlights[i] = OverlayHighlight{
			GroupID: g.ID,
			Text:    g.CombinedText(),
			Rect:    rect,
			Color:   paletteColor(i).Hex(),
		}
		fillRounded(canvas, rect, opts.CornerRadius, func(x, y int) (color.Color, bool) {
			p := image.Pt(x, y)
			if !p.In(picture) {
				return nil, false
			}
			return fitted.At(x-origin.X, y-origin.Y), true
		})
	}

	// Outlines go on after every hole so a later hole never erases an
	// earlier outline.
	if opts.StrokeWidth > 0 {
		for i, h := range highlights {
			strokeRounded(canvas, h.Rect, opts.CornerRadius, opts.StrokeWidth, paletteColor(i))
		}
	}

	encoded, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		CropResult: *encoded,
		Layout:     layout,
		Highlights: highlights,
	}, nil
}

// paletteColor returns the i-th highlight colour. Neighbouring indices get
// clearly different hues.
func paletteColor(i int) colorful.Color {
	hue := math.Mod(float64(i)*goldenAngle, 360)
	return colorful.Hsv(hue, 0.75, 1.0).Clamped()
}

// insideRounded reports whether the point (px, py) lies in r with corners
// rounded by radius.
func insideRounded(px, py float64, r geometry.DisplayRect, radius float64) bool {
	if px < r.X || px > r.X+r.Width || py < r.Y || py > r.Y+r.Height {
		return false
	}
	radius = math.Max(0, math.Min(radius, math.Min(r.Width, r.Height)/2))
	cx := math.Max(r.X+radius, math.Min(px, r.X+r.Width-radius))
	cy := math.Max(r.Y+radius, math.Min(py, r.Y+r.Height-radius))
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= radius*radius
}

// pixelSpan returns the canvas pixels whose centres may fall inside r.
func pixelSpan(canvas *image.RGBA, r geometry.DisplayRect) image.Rectangle {
	span := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
	return span.Intersect(canvas.Bounds())
}

func fillRounded(canvas *image.RGBA, r geometry.DisplayRect, radius float64, src func(x, y int) (color.Color, bool)) {
	span := pixelSpan(canvas, r)
	for y := span.Min.Y; y < span.Max.Y; y++ {
		for x := span.Min.X; x < span.Max.X; x++ {
			if !insideRounded(float64(x)+0.5, float64(y)+0.5, r, radius) {
				continue
			}
			if c, ok := src(x, y); ok {
				canvas.Set(x, y, c)
			}
		}
	}
}

func strokeRounded(canvas *image.RGBA, r geometry.DisplayRect, radius, width float64, c color.Color) {
	inner := r.Inset(-width, -width)
	innerRadius := math.Max(0, radius-width)
	span := pixelSpan(canvas, r)
	for y := span.Min.Y; y < span.Max.Y; y++ {
		for x := span.Min.X; x < span.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			if !insideRounded(px, py, r, radius) {
				continue
			}
			if inner.Width > 0 && inner.Height > 0 && insideRounded(px, py, inner, innerRadius) {
				continue
			}
			canvas.Set(x, y, c)
		}
	}
}
