package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/image-text-mcp/internal/history"
	"github.com/ironsheep/image-text-mcp/internal/imaging"
	"github.com/ironsheep/image-text-mcp/internal/log"
	"github.com/ironsheep/image-text-mcp/internal/ocr"
	"github.com/ironsheep/image-text-mcp/internal/session"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// Name and Version identify the server in the initialize handshake.
var (
	Name    = "image-text-mcp"
	Version = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	session *session.Session
	history *history.Store
	engine  ocr.Engine
	params  textgroup.Params
	overlay imaging.OverlayOptions

	in  io.Reader
	out io.Writer

	// scanPath is the file behind the current scan, the only image kept in
	// cache between calls.
	mu       sync.Mutex
	scanPath string
}

// Option configures a Server.
type Option func(*Server)

// WithParams sets the grouping thresholds used by text_group.
func WithParams(p textgroup.Params) Option {
	return func(s *Server) { s.params = p }
}

// WithOverlayOptions sets how text_overlay draws.
func WithOverlayOptions(o imaging.OverlayOptions) Option {
	return func(s *Server) { s.overlay = o }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// New creates a server that scans through sess, which uses engine, and
// exposes store as the copy history. store may be nil.
func New(sess *session.Session, store *history.Store, engine ocr.Engine, opts ...Option) *Server {
	s := &Server{
		cache:   imaging.NewImageCache(),
		session: sess,
		history: store,
		engine:  engine,
		params:  textgroup.DefaultParams(),
		overlay: imaging.DefaultOverlayOptions(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// retainScanImage records path as the image of the current scan and evicts
// the previous one.
func (s *Server) retainScanImage(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanPath != "" && s.scanPath != path {
		s.cache.Evict(s.scanPath)
	}
	s.scanPath = path
}

// releaseImages evicts paths that were only needed for one call. The image of
// the current scan stays cached.
func (s *Server) releaseImages(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		if p != s.scanPath {
			s.cache.Evict(p)
		}
	}
	log.Debugf("image cache holds %d images", s.cache.Len())
}

// forgetScanImage empties the cache after the current scan is discarded.
func (s *Server) forgetScanImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
	s.scanPath = ""
}

// Run serves requests until the input is exhausted or ctx is cancelled.
// Each line of input holds one JSON-RPC message.
//
// Input is read on its own goroutine so that cancellation is noticed while
// the client is idle. That goroutine stays blocked in Read until the input
// yields or closes; for stdin this ends with the process.
func (s *Server) Run(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 16*1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(s.out)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warnf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Errorf("Failed to encode response: %v", err)
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	log.Debugf("request %v: %s", req.ID, req.Method)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}
