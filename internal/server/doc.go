// Package server implements the MCP (Model Context Protocol) server for
// academic-paper PDF parsing.
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
// Notifications (notifications/*) are accepted and never answered.
//
// # Available Tools
//
//   - parse_paper: text, metadata, outline and images in one call
//   - extract_text_only: Markdown text with page selection, truncation or save-to-file
//   - extract_images_only: normalized images written to an output directory
//   - get_paper_metadata: page count, file size and document Info fields
//
// Every tool requires pdf_path. Defaults for quality, image_format and
// output_dir come from the server's configuration.
//
// # Results
//
// A successful call returns a Markdown summary block followed, except for
// extract_text_only, by a block with the structured payload in a fenced
// JSON section.
//
// A failed call is still a normal tools/call result: a single text block
// "Error executing <tool>: <message>" with isError set and the error class
// (configuration, not_found, decode, io, internal) in _meta.errorKind.
// Only malformed tools/call params produce a JSON-RPC error (-32602).
//
// # Usage
//
//	cfg, _ := config.Load("")
//	srv := server.New(cfg, cfg.NewLogger(os.Stderr), "1.0.0")
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
