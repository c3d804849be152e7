package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/config"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
	"github.com/ironsheep/image-ascii-mcp/internal/logging"
	"github.com/ironsheep/image-ascii-mcp/internal/session"
)

// Output formats for ascii_convert.
const (
	formatMarkup = "markup"
	formatPlain  = "plain"
	formatCells  = "cells"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "ascii_convert").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks a failure caused by the caller's arguments rather than by
// the tool itself.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return code -32602; tool execution errors return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	logger := s.logger.With(logging.FieldTool, params.Name)
	start := time.Now()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		logger.Warn("tool failed", logging.FieldError, err)
		var pe *paramsError
		if errors.As(err, &pe) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	logger.Debug("tool finished", logging.FieldElapsed, time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_evict":
		return s.handleImageEvict(args)
	case "ascii_convert":
		return s.handleASCIIConvert(ctx, args)
	case "ascii_charsets":
		return s.handleASCIICharsets()
	default:
		return nil, invalidParams("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return &paramsError{err: fmt.Errorf("decode arguments: %w", err)}
	}
	return nil
}

// === Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (a imagePathArgs) validate() error {
	if a.Path == "" {
		return invalidParams("path is required")
	}
	return nil
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageEvictResult struct {
	Path     string `json:"path"`
	Sessions int    `json:"sessions_closed"`
}

func (s *Server) handleImageEvict(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	s.cache.Evict(a.Path)
	return &imageEvictResult{
		Path:     a.Path,
		Sessions: s.closeSessions(a.Path),
	}, nil
}

// === Conversion Handlers ===

type asciiConvertArgs struct {
	Path string `json:"path"`

	// Settings overrides; nil keeps the server default.
	Charset          *string  `json:"charset"`
	CustomCharacters *string  `json:"custom_characters"`
	Density          *int     `json:"density"`
	AspectScale      *float64 `json:"aspect_scale"`
	Color            *bool    `json:"color"`
	Brightness       *int     `json:"brightness"`
	Contrast         *int     `json:"contrast"`
	MaxWidth         *int     `json:"max_width"`

	Region     *imaging.Region `json:"region"`
	Quadrant   string          `json:"quadrant"`
	Format     string          `json:"format"`
	OutputPath string          `json:"output_path"`
}

// settings overlays the non-nil overrides onto base.
func (a *asciiConvertArgs) settings(base config.Settings) config.Settings {
	s := base
	if a.Charset != nil {
		s.Charset = *a.Charset
	}
	if a.CustomCharacters != nil {
		s.CustomCharacters = *a.CustomCharacters
	}
	if a.Density != nil {
		s.Density = *a.Density
	}
	if a.AspectScale != nil {
		s.AspectScale = *a.AspectScale
	}
	if a.Color != nil {
		s.Color = *a.Color
	}
	if a.Brightness != nil {
		s.Brightness = *a.Brightness
	}
	if a.Contrast != nil {
		s.Contrast = *a.Contrast
	}
	if a.MaxWidth != nil {
		s.MaxWidth = max(*a.MaxWidth, 0)
	}
	return s
}

func (a *asciiConvertArgs) validate() error {
	if a.Path == "" {
		return invalidParams("path is required")
	}
	if a.Region != nil && a.Quadrant != "" {
		return invalidParams("region and quadrant are mutually exclusive")
	}
	switch a.Format {
	case "":
		a.Format = formatMarkup
	case formatMarkup, formatPlain, formatCells:
	default:
		return invalidParams("unknown format %q (want %s, %s or %s)", a.Format, formatMarkup, formatPlain, formatCells)
	}
	return nil
}

type cellResult struct {
	Char  string `json:"char"`
	Color string `json:"color,omitempty"`
}

type asciiConvertResult struct {
	Text         string         `json:"text,omitempty"`
	Cells        [][]cellResult `json:"cells,omitempty"`
	Format       string         `json:"format"`
	Rows         int            `json:"rows"`
	Columns      int            `json:"columns"`
	Interval     int            `json:"interval"`
	Charset      string         `json:"charset"`
	Characters   string         `json:"characters"`
	Color        bool           `json:"color"`
	SourceWidth  int            `json:"source_width"`
	SourceHeight int            `json:"source_height"`
	Generation   uint64         `json:"generation"`
	Stale        bool           `json:"stale"`
	Error        string         `json:"error,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	OutputPath   string         `json:"output_path,omitempty"`
}

func (s *Server) handleASCIIConvert(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a asciiConvertArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	settings := a.settings(s.defaults)

	sess, err := s.sessionFor(a.Path, a.Region, a.Quadrant, settings.MaxWidth)
	if err != nil {
		return nil, err
	}

	res, convErr := sess.Convert(ctx, settings)
	if res == nil {
		return nil, convErr
	}

	art := res.Artifact
	rows, cols := art.Dimensions()
	srcW, srcH := sess.Source()

	out := &asciiConvertResult{
		Format:       a.Format,
		Rows:         rows,
		Columns:      cols,
		Interval:     art.Interval,
		Charset:      res.Settings.Charset,
		Characters:   res.Settings.Characters(),
		Color:        res.Settings.Color,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Generation:   res.Generation,
		Stale:        res.Stale,
		Warnings:     res.Warnings,
	}
	if convErr != nil {
		out.Error = convErr.Error()
	}

	switch a.Format {
	case formatPlain:
		out.Text = art.Plain()
	case formatCells:
		out.Cells = cellsOf(art)
	default:
		out.Text = art.Markup()
	}

	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, []byte(art.Plain()+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.OutputPath, err)
		}
		out.OutputPath = a.OutputPath
	}

	return out, nil
}

func cellsOf(art *ascii.Artifact) [][]cellResult {
	cells := make([][]cellResult, len(art.Rows))
	for i, row := range art.Rows {
		cells[i] = make([]cellResult, len(row))
		for j, c := range row {
			cells[i][j].Char = string(c.Char)
			if c.HasColor {
				cells[i][j].Color = c.Color.Hex()
			}
		}
	}
	return cells
}

type asciiCharsetsResult struct {
	Charsets []ascii.Charset `json:"charsets"`
	Default  string          `json:"default"`
}

func (s *Server) handleASCIICharsets() (interface{}, error) {
	return &asciiCharsetsResult{
		Charsets: ascii.Presets(),
		Default:  s.defaults.Charset,
	}, nil
}

// === Sessions ===

// sessionKey identifies the pixels a session converts. maxWidth is the
// effective limit, so requests that yield the same pixels share a session.
type sessionKey struct {
	path     string
	region   imaging.Region
	maxWidth int
}

// sessionFor returns the session for the given source, creating it on first
// use so that the last-known-good artifact survives across calls.
func (s *Server) sessionFor(path string, region *imaging.Region, quadrant string, maxWidth int) (*session.Session, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	key := sessionKey{
		path:   path,
		region: imaging.Region{X2: b.Dx(), Y2: b.Dy()},
	}
	switch {
	case region != nil:
		key.region = *region
	case quadrant != "":
		r, err := imaging.QuadrantRegion(quadrant, b.Dx(), b.Dy())
		if err != nil {
			return nil, &paramsError{err: err}
		}
		key.region = r
	}
	key.maxWidth = imaging.EffectiveMaxWidth(key.region.X2-key.region.X1, maxWidth)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions.Get(key); ok {
		return sess, nil
	}

	src := img
	if region != nil || quadrant != "" {
		src, err = imaging.Crop(img, key.region)
		if err != nil {
			return nil, &paramsError{err: err}
		}
	}

	sess, err := session.NewFromImage(src, key.maxWidth, session.WithLogger(s.logger.With(logging.FieldPath, path)))
	if err != nil {
		return nil, err
	}
	s.sessions.Add(key, sess)
	return sess, nil
}

// closeSessions closes every session for path and returns how many there were.
func (s *Server) closeSessions(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, key := range s.sessions.Keys() {
		if key.path == path && s.sessions.Remove(key) {
			n++
		}
	}
	return n
}
