package geometry

import "math"

// Tap targets and highlights extend past the text box by these margins, and a
// tap target is never smaller than the minimum size.
const (
	HighlightPadX = 4.0
	HighlightPadY = 2.0
	MinTapWidth   = 30.0
	MinTapHeight  = 18.0
)

// DisplayRect is a rectangle in display pixels with a top-left origin.
type DisplayRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r DisplayRect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Inset grows the rectangle by dx on the left and right and by dy on the top
// and bottom. Negative values shrink it.
func (r DisplayRect) Inset(dx, dy float64) DisplayRect {
	return DisplayRect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// Contains reports whether p lies inside r. The left and top edges are
// inclusive, the right and bottom edges exclusive.
func (r DisplayRect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Highlight returns the padded rectangle drawn around a text box.
func Highlight(r DisplayRect) DisplayRect {
	return r.Inset(HighlightPadX, HighlightPadY)
}

// TapTarget returns the hit area for a text box: the highlight rectangle,
// widened around its centre to at least MinTapWidth x MinTapHeight.
func TapTarget(r DisplayRect) DisplayRect {
	h := Highlight(r)
	c := r.Center()
	w := math.Max(h.Width, MinTapWidth)
	ht := math.Max(h.Height, MinTapHeight)
	return DisplayRect{X: c.X - w/2, Y: c.Y - ht/2, Width: w, Height: ht}
}

// AspectFit returns the largest size with content's aspect ratio that fits in
// container. ok is false when either size is degenerate.
func AspectFit(content, container Size) (Size, bool) {
	if content.IsDegenerate() || container.IsDegenerate() {
		return Size{}, false
	}
	scale := math.Min(container.Width/content.Width, container.Height/content.Height)
	return Size{Width: content.Width * scale, Height: content.Height * scale}, true
}

// CenteringOffset returns the offset that centres fit inside container.
func CenteringOffset(container, fit Size) Point {
	return Point{
		X: (container.Width - fit.Width) / 2,
		Y: (container.Height - fit.Height) / 2,
	}
}

// ToDisplayRect maps a normalized box onto an image drawn at size fit with its
// top-left corner at offset. The vertical axis is flipped because the box has
// a bottom-left origin and the display a top-left one.
func ToDisplayRect(box Rect, fit Size, offset Point) DisplayRect {
	return DisplayRect{
		X:      box.X*fit.Width + offset.X,
		Y:      (1-box.Y-box.Height)*fit.Height + offset.Y,
		Width:  box.Width * fit.Width,
		Height: box.Height * fit.Height,
	}
}

// FromDisplayRect is the inverse of ToDisplayRect. A degenerate fit yields the
// zero Rect.
func FromDisplayRect(r DisplayRect, fit Size, offset Point) Rect {
	if fit.IsDegenerate() {
		return Rect{}
	}
	h := r.Height / fit.Height
	return Rect{
		X:      (r.X - offset.X) / fit.Width,
		Y:      1 - (r.Y-offset.Y)/fit.Height - h,
		Width:  r.Width / fit.Width,
		Height: h,
	}
}

// Layout places an image of a given pixel size aspect-fit and centred inside a
// container.
type Layout struct {
	Image     Size  `json:"image"`
	Container Size  `json:"container"`
	Fit       Size  `json:"fit"`
	Offset    Point `json:"offset"`
}

// NewLayout computes the layout of image inside container. ok is false when
// either size is degenerate, in which case nothing should be drawn.
func NewLayout(image, container Size) (Layout, bool) {
	fit, ok := AspectFit(image, container)
	if !ok {
		return Layout{}, false
	}
	return Layout{
		Image:     image,
		Container: container,
		Fit:       fit,
		Offset:    CenteringOffset(container, fit),
	}, true
}

// ToDisplay maps a normalized box into the container.
func (l Layout) ToDisplay(box Rect) DisplayRect {
	return ToDisplayRect(box, l.Fit, l.Offset)
}

// FromDisplay maps a display rectangle back to a normalized box.
func (l Layout) FromDisplay(r DisplayRect) Rect {
	return FromDisplayRect(r, l.Fit, l.Offset)
}

// Scale returns the factor from image pixels to display pixels.
func (l Layout) Scale() float64 {
	if l.Image.Width <= 0 {
		return 0
	}
	return l.Fit.Width / l.Image.Width
}
