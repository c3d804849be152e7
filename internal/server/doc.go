// Package server implements the MCP (Model Context Protocol) server that turns
// images into character art.
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
// Image information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_evict: Drop a cached image and its sessions
//
// Conversion:
//   - ascii_convert: Render an image or region as character art
//   - ascii_charsets: List character set presets
//
// # Sessions
//
// Every distinct (path, region, max width) gets its own session holding the
// downscaled pixels and the last artifact that converted successfully. Repeated
// ascii_convert calls with different settings reuse it, and a call whose
// settings fail to convert returns that artifact with "stale": true and the
// failure in "error".
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses with:
//   - code: -32700 for unparsable lines, -32601 for unknown methods, -32602
//     for bad arguments or unknown tools, -32000 for tool failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(settings, logger, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    return err
//	}
package server
