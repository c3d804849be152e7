package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/session"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// protocolVersion is the MCP revision the server speaks.
const protocolVersion = "2024-11-05"

// maxLineSize bounds a single request line.
const maxLineSize = 1024 * 1024

// maxSessions bounds the conversion sessions kept alive at once. The least
// recently used session is closed to make room for a new one.
const maxSessions = 16

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	defaults config.Settings
	logger   *log.Logger
	version  string

	// mu makes lookup-or-create on sessions atomic.
	mu       sync.Mutex
	sessions *lru.Cache[sessionKey, *session.Session]
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

// New creates a server whose conversions start from defaults. Defaults are
// normalized once here; per-call overrides are normalized again by the session.
func New(defaults config.Settings, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if version == "" {
		version = "dev"
	}
	if _, err := defaults.Normalize(); err != nil {
		logger.Warn("invalid default settings, using built-in defaults", logging.FieldError, err)
		defaults = config.Default()
	}

	sessions, err := lru.NewWithEvict(maxSessions, func(key sessionKey, sess *session.Session) {
		logger.Debug("closing session", logging.FieldPath, key.path)
		sess.Close()
	})
	if err != nil {
		// Only a non-positive size is rejected.
		panic(err)
	}

	return &Server{
		cache:    imaging.NewImageCache(),
		defaults: defaults,
		logger:   logger,
		version:  version,
		sessions: sessions,
	}
}

// Run reads newline-delimited requests from r and writes responses to w until
// r is exhausted or ctx is cancelled. Malformed lines get a parse error
// response with a null id.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	defer s.Close()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", logging.FieldError, err)
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(ctx, &req)
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("encode response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// Close releases every open session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Purge()
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", logging.FieldMethod, req.Method, logging.FieldID, req.ID)

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
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    codeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-ascii-mcp",
				"version": s.version,
			},
		},
	}
}
