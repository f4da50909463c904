// Package ocr turns an image into text fragments with normalized bounding boxes.
//
// The package defines the Engine contract the rest of the server depends on and
// ships one implementation, Tesseract, backed by gosseract/v2. Other engines
// (cloud services, platform APIs) can be plugged in behind the same interface.
//
// # Prerequisites
//
// The Tesseract engine needs cgo and the Tesseract library with language data:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds without cgo compile a stub whose Recognize returns ErrUnavailable, so
// the server still starts and reports "no text detected" for every scan.
//
// # Coordinates
//
// Engines report fragments in normalized space: fractions of the upright image
// size with the origin at the bottom-left corner (see package geometry).
// Tesseract reports top-left pixel boxes, which are converted before they
// leave this package.
//
// # Orientation
//
// A Request carries the canonical orientation of the stored pixels. Tesseract
// has no orientation parameter, so the image is rotated upright before
// recognition and every box refers to the upright image.
//
// # Asynchronous Delivery
//
// Start runs a recognition on its own goroutine and delivers exactly one
// ScanResult on the returned channel. A failure arrives as a result with Err
// set and no fragments; callers treat it as "no text detected".
package ocr
