package geometry

import (
	"image"
	"math"
)

// Size is a width/height pair in whatever unit the caller works in (image
// pixels or display points).
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsDegenerate reports whether the size cannot be scaled to or from.
func (s Size) IsDegenerate() bool {
	return !(s.Width > 0) || !(s.Height > 0) ||
		math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0)
}

// Point is a location in display space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a normalized rectangle with a bottom-left origin.
//
// X and Y locate the bottom-left corner as fractions of the image width and
// height; Width and Height are fractions as well.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MinX returns the left edge.
func (r Rect) MinX() float64 { return r.X }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MinY returns the bottom edge.
func (r Rect) MinY() float64 { return r.Y }

// MaxY returns the top edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Union returns the smallest rectangle containing both a and b.
//
// Union is associative and commutative, so folding it over a set of boxes
// gives the same result in any order.
func Union(a, b Rect) Rect {
	minX := math.Min(a.MinX(), b.MinX())
	minY := math.Min(a.MinY(), b.MinY())
	maxX := math.Max(a.MaxX(), b.MaxX())
	maxY := math.Max(a.MaxY(), b.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// UnionAll folds Union over rects. It returns the zero Rect for no input.
func UnionAll(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u = Union(u, r)
	}
	return u
}

// VerticalOverlap returns how much the vertical extents of a and b overlap,
// or 0 when they are disjoint.
func VerticalOverlap(a, b Rect) float64 {
	return math.Max(0, math.Min(a.MaxY(), b.MaxY())-math.Max(a.MinY(), b.MinY()))
}

// HorizontalGap returns the distance between the horizontal extents of a and
// b, or 0 when they overlap or touch.
func HorizontalGap(a, b Rect) float64 {
	switch {
	case a.MaxX() < b.MinX():
		return b.MinX() - a.MaxX()
	case b.MaxX() < a.MinX():
		return a.MinX() - b.MaxX()
	default:
		return 0
	}
}

// Pixels converts a normalized box into a top-left origin pixel rectangle of
// an image with the given dimensions. The result is clamped to the image.
func (r Rect) Pixels(imageW, imageH int) image.Rectangle {
	w := float64(imageW)
	h := float64(imageH)
	x1 := floorPx(r.MinX() * w)
	x2 := ceilPx(r.MaxX() * w)
	y1 := floorPx((1 - r.MaxY()) * h)
	y2 := ceilPx((1 - r.MinY()) * h)
	return image.Rect(x1, y1, x2, y2).Intersect(image.Rect(0, 0, imageW, imageH))
}

// FromPixels converts a top-left origin pixel rectangle of an image with the
// given dimensions into a normalized box. A non-positive image dimension
// yields the zero Rect.
func FromPixels(p image.Rectangle, imageW, imageH int) Rect {
	if imageW <= 0 || imageH <= 0 {
		return Rect{}
	}
	w := float64(imageW)
	h := float64(imageH)
	p = p.Canon()
	return Rect{
		X:      float64(p.Min.X) / w,
		Y:      1 - float64(p.Max.Y)/h,
		Width:  float64(p.Dx()) / w,
		Height: float64(p.Dy()) / h,
	}
}

// pixelSnap absorbs float error so that a box built by FromPixels converts
// back to the same integer edges.
const pixelSnap = 1e-6

func floorPx(v float64) int { return int(math.Floor(v + pixelSnap)) }

func ceilPx(v float64) int { return int(math.Ceil(v - pixelSnap)) }
