package server

import (
	"github.com/ironsheep/image-ascii-mcp/internal/ascii"
	"github.com/ironsheep/image-ascii-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func charsetNames() []string {
	presets := ascii.Presets()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later conversions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_evict",
			Description: "Forget a cached image and its conversion sessions so the next call reads the file again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Conversion
		{
			Name: "ascii_convert",
			Description: "Render an image (or a region of it) as character art. Omitted settings use the server defaults. " +
				"If a conversion fails after an earlier success for the same image and region, the previous art is returned with stale=true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"charset": map[string]interface{}{
						"type":        "string",
						"description": "Character set preset",
						"enum":        charsetNames(),
					},
					"custom_characters": map[string]interface{}{
						"type":        "string",
						"description": "Ramp used with the custom preset, densest character first",
					},
					"density": map[string]interface{}{
						"type":        "integer",
						"description": "Detail level; higher means smaller cells",
						"minimum":     ascii.MinDensity,
						"maximum":     ascii.MaxDensity,
					},
					"aspect_scale": map[string]interface{}{
						"type":        "number",
						"description": "Vertical stretch; rows are scaled by 1+aspect_scale",
						"minimum":     -1,
						"maximum":     1,
					},
					"color": map[string]interface{}{
						"type":        "boolean",
						"description": "Annotate every character with its average colour",
					},
					"brightness": map[string]interface{}{
						"type":    "integer",
						"minimum": imaging.MinBrightness,
						"maximum": imaging.MaxBrightness,
					},
					"contrast": map[string]interface{}{
						"type":    "integer",
						"minimum": imaging.MinContrast,
						"maximum": imaging.MaxContrast,
					},
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale wider images to this width first (0 disables)",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Convert only this rectangle (x2, y2 exclusive)",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"quadrant": map[string]interface{}{
						"type":        "string",
						"description": "Convert only a named part of the image",
						"enum":        imaging.Quadrants,
					},
					"format": map[string]interface{}{
						"type":        "string",
						"description": "markup wraps coloured characters in spans, plain has no annotations, cells returns per-character data",
						"enum":        []string{formatMarkup, formatPlain, formatCells},
						"default":     formatMarkup,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Also write the plain text to this file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ascii_charsets",
			Description: "List the character set presets and their ramps.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
