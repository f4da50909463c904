// Package server implements the MCP (Model Context Protocol) server for
// reading text out of images.
//
// The server recognizes text with OCR, groups words that sit on the same
// line into user-facing units, and lets a client show those units over the
// image, resolve taps on them, and keep a history of copied text.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Scanning:
//   - image_info: Image dimensions and format
//   - text_scan: Recognize and group text; becomes the current scan
//   - text_scan_batch: Scan several images concurrently
//   - text_group: Group caller-supplied fragments without OCR
//   - text_reset: Discard the current scan
//
// Display and interaction (all use the current scan):
//   - text_layout: Display rectangles and tap targets in a container
//   - text_tap: Resolve a tap and copy the group's text
//   - text_copy_all: Copy every group's text
//   - text_overlay: Render the dimmed image with highlighted groups
//   - text_crop_group: Crop one group
//
// History:
//   - history_list, history_add, history_delete, history_clear
//
// Diagnostics:
//   - ocr_info: OCR backend availability
//
// # Coordinates
//
// Text boxes are normalized to the upright image, in [0,1] with the origin
// at the bottom-left. Display coordinates (container sizes, taps, layout
// rectangles) have their origin at the top-left of the container.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with code -32602 for
// bad arguments and -32000 for failures during execution. The data field
// carries the Go error string.
//
// # Usage
//
//	sess, _ := session.New(engine, store)
//	srv := server.New(sess, store, engine)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatalf("server: %v", err)
//	}
package server
