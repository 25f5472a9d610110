package server

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
)

// ErrorKind classifies why a tool call failed.
type ErrorKind string

// Error kinds, from most to least specific.
const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindDecode        ErrorKind = "decode"
	KindIO            ErrorKind = "io"
	KindInternal      ErrorKind = "internal"
)

// Classify maps an error from a tool call onto an ErrorKind.
func Classify(err error) ErrorKind {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, imaging.ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, imaging.ErrNotFound):
		return KindNotFound
	case errors.Is(err, imaging.ErrDecode):
		return KindDecode
	case errors.As(err, &pathErr):
		return KindIO
	default:
		return KindInternal
	}
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the outcome of a tools/call. A failed call is still a
// result: IsError is set, Kind says why and Content carries the message.
type ToolResult struct {
	Content []Content              `json:"content"`
	IsError bool                   `json:"isError,omitempty"`
	Kind    ErrorKind              `json:"-"`
	Meta    map[string]interface{} `json:"_meta,omitempty"`
}

func textResult(blocks ...string) *ToolResult {
	content := make([]Content, len(blocks))
	for i, b := range blocks {
		content[i] = Content{Type: "text", Text: b}
	}
	return &ToolResult{Content: content}
}

func errorResult(tool string, err error) *ToolResult {
	kind := Classify(err)
	return &ToolResult{
		Content: []Content{{Type: "text", Text: fmt.Sprintf("Error executing %s: %v", tool, err)}},
		IsError: true,
		Kind:    kind,
		Meta:    map[string]interface{}{"errorKind": string(kind)},
	}
}
