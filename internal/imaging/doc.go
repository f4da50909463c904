// Package imaging loads images and renders the pictures the server returns.
//
// It covers loading (ImageCache, with PNG, JPEG, GIF, BMP, TIFF and WebP
// decoders registered), preprocessing for OCR (Preprocess), the highlight
// overlay that shows which text groups were found (RenderOverlay), and crops
// of a single group (CropGroup).
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Text boxes
// arrive as normalized geometry.Rect values with a bottom-left origin and are
// converted with geometry.Rect.Pixels or geometry.Layout before drawing.
//
// # Output
//
// Rendered images are PNG-encoded and returned as base64 strings together
// with their size and MIME type, ready to be embedded in a tool result.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The rendering functions are
// stateless and never modify their input image.
package imaging
