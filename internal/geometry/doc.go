// Package geometry converts OCR bounding boxes between the engine's normalized
// space and the pixel space of an aspect-fit image on screen.
//
// # Coordinate Systems
//
// Two coordinate systems meet in this package:
//
//   - Normalized (Rect): every component is a fraction of the image size in
//     [0,1]. The origin is the BOTTOM-left corner of the image, so increasing
//     Y moves toward the top. This is the space OCR results are expressed in
//     and the space clustering decisions are made in.
//   - Display (DisplayRect): on-screen pixels with the origin at the TOP-left
//     corner of the container, Y increasing downward. The image is scaled to
//     the largest aspect-preserving size that fits the container and centred
//     in it.
//
// ToDisplayRect and FromDisplayRect convert between the two and are exact
// inverses of each other for a non-degenerate layout.
//
// # Degenerate Geometry
//
// A zero-sized image or container has no meaningful layout. AspectFit and
// NewLayout report this with ok=false instead of dividing by zero; callers
// skip rendering and hit-testing in that case.
//
// # Thread Safety
//
// All functions are pure and operate on values; they are safe to call from any
// goroutine.
package geometry
