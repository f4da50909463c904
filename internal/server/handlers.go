package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/history"
	"github.com/ironsheep/image-text-mcp/internal/imaging"
	"github.com/ironsheep/image-text-mcp/internal/log"
	"github.com/ironsheep/image-text-mcp/internal/ocr"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/session"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// MessageNoText is reported when a scan finds nothing to group.
const MessageNoText = "no text detected"

// errInvalidArgs marks argument errors so that they are reported as invalid
// params rather than tool failures.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "text_scan", "history_list").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602, other tool errors code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	return s.toolResponse(req.ID, params.Name, result, err)
}

// toolResponse wraps a tool's outcome in a JSON-RPC response.
func (s *Server) toolResponse(id interface{}, name string, result interface{}, err error) *MCPResponse {
	if err != nil {
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(id, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(id, codeToolFailed, "Tool execution failed", err.Error())
	}

	text, err := marshalResult(result)
	if err != nil {
		log.Errorf("tool %s: %v", name, err)
		return s.errorResponse(id, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Scanning
	case "image_info":
		return s.handleImageInfo(args)
	case "text_scan":
		return s.handleTextScan(ctx, args)
	case "text_scan_batch":
		return s.handleTextScanBatch(ctx, args)
	case "text_group":
		return s.handleTextGroup(args)
	case "text_reset":
		return s.handleTextReset()

	// Display and interaction
	case "text_layout":
		return s.handleTextLayout(args)
	case "text_tap":
		return s.handleTextTap(args)
	case "text_copy_all":
		return s.handleTextCopyAll()
	case "text_overlay":
		return s.handleTextOverlay(args)
	case "text_crop_group":
		return s.handleTextCropGroup(args)

	// History
	case "history_list":
		return s.handleHistoryList()
	case "history_add":
		return s.handleHistoryAdd(args)
	case "history_delete":
		return s.handleHistoryDelete(args)
	case "history_clear":
		return s.handleHistoryClear()

	case "ocr_info":
		return s.handleOCRInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as the zero
// value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

func invalidArgs(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errInvalidArgs, fmt.Sprintf(format, args...))
}

// === Result shapes ===

type groupResult struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	Box           geometry.Rect `json:"box"`
	FragmentCount int           `json:"fragment_count"`
}

func groupResults(groups []textgroup.Group) []groupResult {
	out := make([]groupResult, len(groups))
	for i, g := range groups {
		out[i] = groupResult{
			ID:            g.ID,
			Text:          g.CombinedText(),
			Box:           g.Box,
			FragmentCount: len(g.FragmentIDs),
		}
	}
	return out
}

type scanResult struct {
	Path          string        `json:"path"`
	Format        string        `json:"format,omitempty"`
	Orientation   string        `json:"orientation"`
	ImageSize     geometry.Size `json:"image_size"`
	Generation    uint64        `json:"generation"`
	FragmentCount int           `json:"fragment_count"`
	GroupCount    int           `json:"group_count"`
	Groups        []groupResult `json:"groups"`
	Message       string        `json:"message,omitempty"`
	Error         string        `json:"error,omitempty"`
}

func newScanResult(path string, tag orientation.ImageOrientation, snap *session.Snapshot) *scanResult {
	r := &scanResult{
		Path:          path,
		Orientation:   tag.String(),
		ImageSize:     snap.ImageSize,
		Generation:    snap.Generation,
		FragmentCount: len(snap.Fragments),
		GroupCount:    len(snap.Groups),
		Groups:        groupResults(snap.Groups),
		Error:         snap.Error,
	}
	if snap.NoText {
		r.Message = MessageNoText
	}
	return r
}

// === Scanning Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidArgs("path is required")
	}
	defer s.releaseImages(a.Path)
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type textScanArgs struct {
	Path        string   `json:"path"`
	Orientation string   `json:"orientation"`
	Languages   []string `json:"languages"`
}

func (s *Server) handleTextScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textScanArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidArgs("path is required")
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	tag := orientation.Parse(a.Orientation)
	snap, err := s.session.Scan(ctx, img, tag, a.Languages)
	if err != nil && !errors.Is(err, session.ErrSuperseded) {
		s.releaseImages(a.Path)
		return nil, err
	}
	result := newScanResult(a.Path, tag, snap)
	result.Format = info.Format
	if errors.Is(err, session.ErrSuperseded) {
		s.releaseImages(a.Path)
		result.Message = "superseded by a newer scan; result not kept"
		return result, nil
	}
	s.retainScanImage(a.Path)
	return result, nil
}

type textScanBatchArgs struct {
	Paths       []string `json:"paths"`
	Orientation string   `json:"orientation"`
	Languages   []string `json:"languages"`
}

type batchEntry struct {
	Path       string   `json:"path"`
	GroupCount int      `json:"group_count"`
	Texts      []string `json:"texts"`
	Message    string   `json:"message,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (s *Server) handleTextScanBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textScanBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, invalidArgs("paths must not be empty")
	}
	tag := orientation.Parse(a.Orientation)

	entries := make([]batchEntry, len(a.Paths))
	var reqs []session.BatchRequest
	var slots []int
	for i, path := range a.Paths {
		entries[i] = batchEntry{Path: path, Texts: []string{}}
		img, err := s.cache.Load(path)
		if err != nil {
			entries[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, session.BatchRequest{Name: path, Image: img, Orientation: tag, Languages: a.Languages})
		slots = append(slots, i)
	}

	items := s.session.ScanBatch(ctx, reqs)
	s.releaseImages(a.Paths...)

	for j, item := range items {
		e := &entries[slots[j]]
		if item.Error != "" {
			e.Error = item.Error
			continue
		}
		snap := item.Snapshot
		e.GroupCount = len(snap.Groups)
		for _, g := range snap.Groups {
			e.Texts = append(e.Texts, g.CombinedText())
		}
		e.Error = snap.Error
		if snap.NoText {
			e.Message = MessageNoText
		}
	}

	return map[string]interface{}{
		"count":   len(entries),
		"results": entries,
	}, nil
}

type textGroupArgs struct {
	Fragments []struct {
		Text string        `json:"text"`
		Box  geometry.Rect `json:"box"`
	} `json:"fragments"`
	LineOverlap *float64 `json:"line_overlap"`
	GapFactor   *float64 `json:"gap_factor"`
}

func (s *Server) handleTextGroup(args json.RawMessage) (interface{}, error) {
	var a textGroupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	params := s.params
	if a.LineOverlap != nil {
		params.LineOverlap = *a.LineOverlap
	}
	if a.GapFactor != nil {
		params.GapFactor = *a.GapFactor
	}

	fragments := make([]textgroup.Fragment, 0, len(a.Fragments))
	for i, f := range a.Fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return nil, invalidArgs("fragment %d has no text", i)
		}
		fragments = append(fragments, textgroup.NewFragment(text, f.Box))
	}

	groups := textgroup.GroupFragmentsWith(params, fragments)
	result := map[string]interface{}{
		"group_count":   len(groups),
		"groups":        groupResults(groups),
		"combined_text": textgroup.CombinedAll(groups),
	}
	if len(groups) == 0 {
		result["message"] = MessageNoText
	}
	return result, nil
}

func (s *Server) handleTextReset() (interface{}, error) {
	s.session.Reset()
	s.forgetScanImage()
	return map[string]interface{}{"reset": true}, nil
}

// === Display Handlers ===

type containerArgs struct {
	ContainerWidth  float64 `json:"container_width"`
	ContainerHeight float64 `json:"container_height"`
}

func (a containerArgs) size() geometry.Size {
	return geometry.Size{Width: a.ContainerWidth, Height: a.ContainerHeight}
}

// currentScan returns the session's snapshot or a tool error when nothing has
// been scanned.
func (s *Server) currentScan() (*session.Snapshot, error) {
	snap := s.session.Current()
	if snap == nil {
		return nil, fmt.Errorf("%w: run text_scan first", session.ErrNoScan)
	}
	return snap, nil
}

func (s *Server) handleTextLayout(args json.RawMessage) (interface{}, error) {
	var a containerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.currentScan()
	if err != nil {
		return nil, err
	}
	layout, placements, ok := snap.Layout(a.size())
	if !ok {
		return map[string]interface{}{
			"placements": []session.Placement{},
			"message":    "nothing to draw: degenerate image or container size",
		}, nil
	}
	return map[string]interface{}{
		"layout":     layout,
		"scale":      layout.Scale(),
		"placements": placements,
	}, nil
}

type textTapArgs struct {
	containerArgs
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleTextTap(args json.RawMessage) (interface{}, error) {
	var a textTapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.currentScan(); err != nil {
		return nil, err
	}
	g, ok := s.session.Tap(a.size(), geometry.Point{X: a.X, Y: a.Y})
	if !ok {
		return map[string]interface{}{"found": false}, nil
	}
	return map[string]interface{}{
		"found":    true,
		"group_id": g.ID,
		"text":     g.CombinedText(),
	}, nil
}

func (s *Server) handleTextCopyAll() (interface{}, error) {
	if _, err := s.currentScan(); err != nil {
		return nil, err
	}
	text, err := s.session.CopyAll()
	if errors.Is(err, session.ErrNoScan) {
		return map[string]interface{}{"text": "", "message": MessageNoText}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"text": text}, nil
}

func (s *Server) handleTextOverlay(args json.RawMessage) (interface{}, error) {
	var a containerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.currentScan()
	if err != nil {
		return nil, err
	}
	result, err := imaging.RenderOverlay(snap.Image(), snap.Groups, a.size(), s.overlay)
	if errors.Is(err, imaging.ErrCanvasTooLarge) {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

type textCropGroupArgs struct {
	GroupID string  `json:"group_id"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleTextCropGroup(args json.RawMessage) (interface{}, error) {
	var a textCropGroupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.GroupID == "" {
		return nil, invalidArgs("group_id is required")
	}
	snap, err := s.currentScan()
	if err != nil {
		return nil, err
	}
	g, ok := snap.Group(a.GroupID)
	if !ok {
		return nil, fmt.Errorf("unknown group: %s", a.GroupID)
	}
	return imaging.CropGroup(snap.Image(), g.Box, a.Scale)
}

// === History Handlers ===

func (s *Server) historyStore() (*history.Store, error) {
	if s.history == nil {
		return nil, errors.New("history is disabled")
	}
	return s.history, nil
}

func (s *Server) handleHistoryList() (interface{}, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	items := store.List()
	return map[string]interface{}{
		"count": len(items),
		"items": items,
	}, nil
}

type historyAddArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleHistoryAdd(args json.RawMessage) (interface{}, error) {
	var a historyAddArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Text) == "" {
		return nil, invalidArgs("text is required")
	}
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	return store.Add(a.Text)
}

type historyDeleteArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleHistoryDelete(args json.RawMessage) (interface{}, error) {
	var a historyDeleteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, invalidArgs("id is required")
	}
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	if err := store.Delete(a.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": a.ID}, nil
}

func (s *Server) handleHistoryClear() (interface{}, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	n := store.Len()
	if err := store.Clear(); err != nil {
		return nil, err
	}
	return map[string]interface{}{"cleared": n}, nil
}

// === OCR Info Handler ===

// infoProvider is implemented by engines that can describe their backend.
type infoProvider interface {
	Info() ocr.Info
}

func (s *Server) handleOCRInfo() (interface{}, error) {
	if p, ok := s.engine.(infoProvider); ok {
		return p.Info(), nil
	}
	if s.engine == nil {
		return ocr.Info{Available: false, Error: ocr.ErrUnavailable.Error()}, nil
	}
	return ocr.Info{Available: true, Engine: s.engine.Name()}, nil
}
