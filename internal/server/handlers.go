package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
	"github.com/bgyooPtr/parse-paper-mcp/internal/ocr"
	"github.com/bgyooPtr/parse-paper-mcp/internal/paper"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "parse_paper").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// Tool failures are reported inside the result with isError set, never as a
// JSON-RPC error. Only undecodable params produce a protocol error (-32602).
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  s.CallTool(params.Name, params.Arguments),
	}
}

// CallTool runs one tool and returns its result. It never returns nil.
func (s *Server) CallTool(name string, args json.RawMessage) *ToolResult {
	log := s.logger.WithField("tool", name)
	log.Debug("Tool call started")

	result, err := s.executeTool(name, args)
	if err != nil {
		res := errorResult(name, err)
		log.WithError(err).WithField("kind", res.Kind).Warn("Tool call failed")
		return res
	}

	log.Debug("Tool call completed")
	return result
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Builds a parser bound to pdf_path
//  4. Formats a Markdown summary and a JSON block
func (s *Server) executeTool(name string, args json.RawMessage) (*ToolResult, error) {
	switch name {
	case ToolParsePaper:
		return s.handleParsePaper(args)
	case ToolExtractTextOnly:
		return s.handleExtractText(args)
	case ToolExtractImagesOnly:
		return s.handleExtractImages(args)
	case ToolGetPaperMetadata:
		return s.handleGetMetadata(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", imaging.ErrConfiguration, name)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// jsonBlock wraps v in a fenced JSON section under the given label.
func jsonBlock(label string, v interface{}) string {
	return fmt.Sprintf("\n\n**%s:**\n```json\n%s\n```", label, mustMarshalJSON(v))
}

// decodeArgs unmarshals tool arguments and checks that pdf_path is present.
func decodeArgs(raw json.RawMessage, v interface{ pdfPath() string }) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", imaging.ErrConfiguration, err)
	}
	if strings.TrimSpace(v.pdfPath()) == "" {
		return fmt.Errorf("%w: pdf_path is required", imaging.ErrConfiguration)
	}
	return nil
}

// newParser builds a call-scoped parser carrying the server's logger,
// normalizer, temp root and OCR settings.
func (s *Server) newParser(path string) (*paper.Parser, error) {
	opts := []paper.Option{
		paper.WithLogger(s.logger.WithField("pdf_path", path)),
		paper.WithNormalizer(s.cfg.Normalizer()),
		paper.WithTempDir(s.cfg.TempDir),
		paper.WithOCR(s.recognize),
	}
	return paper.New(path, append(opts, s.parserOpts...)...)
}

// recognize runs OCR with the configured tessdata location.
func (s *Server) recognize(imagePath string, opts ocr.Options) (string, error) {
	base := s.cfg.OCR()
	if opts.Language != "" {
		base.Language = opts.Language
	}
	return ocr.Recognize(imagePath, base)
}

// === Shared argument handling ===

type textArgs struct {
	Pages    []int `json:"pages"`
	MaxChars *int  `json:"max_chars"`
}

func (a textArgs) options(saveTo string) (paper.TextOptions, error) {
	opts := paper.TextOptions{Pages: a.Pages, SaveToFile: saveTo}
	if a.MaxChars != nil {
		if *a.MaxChars < 0 {
			return opts, fmt.Errorf("%w: max_chars must not be negative, got %d", imaging.ErrConfiguration, *a.MaxChars)
		}
		opts.MaxChars = *a.MaxChars
	}
	return opts, nil
}

type imageArgs struct {
	OutputDir    string `json:"output_dir"`
	Quality      string `json:"quality"`
	ImageFormat  string `json:"image_format"`
	ReturnBase64 bool   `json:"return_base64"`
	OCRImages    bool   `json:"ocr_images"`
}

// imageOptions resolves image arguments against the configured defaults.
func (s *Server) imageOptions(a imageArgs) (paper.ImageOptions, error) {
	opts := paper.ImageOptions{
		OutputDir:    a.OutputDir,
		Quality:      s.cfg.Quality(),
		Format:       s.cfg.Format(),
		ReturnBase64: a.ReturnBase64,
		OCR:          a.OCRImages,
		OCRLanguage:  s.cfg.Images.OCRLanguage,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = s.cfg.Defaults.OutputDir
	}
	if a.Quality != "" {
		q, err := imaging.ParseQuality(a.Quality)
		if err != nil {
			return opts, err
		}
		opts.Quality = q
	}
	if a.ImageFormat != "" {
		f, err := imaging.ParseFormat(a.ImageFormat)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	return opts, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// writeImageDetails appends the per-image bullet lines shared by the
// parse_paper and extract_images_only summaries.
func writeImageDetails(b *strings.Builder, img paper.ImageRecord, indent string) {
	fmt.Fprintf(b, "%s- **Path**: `%s`\n", indent, img.Path)
	fmt.Fprintf(b, "%s- **Dimensions**: %dx%d pixels\n", indent, img.Width, img.Height)
	fmt.Fprintf(b, "%s- **File size**: %s bytes\n", indent, humanize.Comma(img.FileSize))
	if img.Base64 != "" {
		fmt.Fprintf(b, "%s- **Base64**: Available (length: %s chars)\n", indent, humanize.Comma(int64(len(img.Base64))))
	}
	if img.OCRText != "" {
		fmt.Fprintf(b, "%s- **OCR text**: %s\n", indent, strings.Join(strings.Fields(img.OCRText), " "))
	}
}

// === parse_paper ===

type parsePaperArgs struct {
	PDFPath        string `json:"pdf_path"`
	ExtractImages  *bool  `json:"extract_images"`
	SaveTextToFile string `json:"save_text_to_file"`
	textArgs
	imageArgs
}

func (a *parsePaperArgs) pdfPath() string { return a.PDFPath }

func (s *Server) handleParsePaper(args json.RawMessage) (*ToolResult, error) {
	var a parsePaperArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	textOpts, err := a.textArgs.options(a.SaveTextToFile)
	if err != nil {
		return nil, err
	}
	opts := paper.FullOptions{
		Text:          textOpts,
		ExtractImages: a.ExtractImages == nil || *a.ExtractImages,
	}
	if opts.ExtractImages {
		if opts.Images, err = s.imageOptions(a.imageArgs); err != nil {
			return nil, err
		}
	}

	p, err := s.newParser(a.PDFPath)
	if err != nil {
		return nil, err
	}
	result, err := p.ParseFull(opts)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tool":     ToolParsePaper,
		"pdf_path": a.PDFPath,
		"pages":    result.Metadata.PageCount,
		"images":   len(result.Images),
	}).Info("Paper parsed")

	meta := result.Metadata
	var b strings.Builder
	b.WriteString("# Paper Parsing Complete\n\n")
	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "- **Title**: %s\n", orNA(meta.Title))
	fmt.Fprintf(&b, "- **Author**: %s\n", orNA(meta.Author))
	fmt.Fprintf(&b, "- **Pages**: %d\n", meta.PageCount)
	fmt.Fprintf(&b, "- **File Size**: %s bytes\n\n", humanize.Comma(meta.FileSize))

	if len(result.Outline) > 0 {
		b.WriteString("## Outline\n")
		for _, h := range result.Outline {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", h.Level-1), h.Text)
		}
		b.WriteString("\n")
	}

	if len(result.Images) > 0 {
		b.WriteString("## Extracted Images\n")
		fmt.Fprintf(&b, "Total images: %d\n\n", len(result.Images))
		for _, img := range result.Images {
			fmt.Fprintf(&b, "- **%s** (Page %d)\n", img.Filename, img.Page)
			writeImageDetails(&b, img, "  ")
			b.WriteString("\n")
		}
	} else {
		b.WriteString("## Images\nNo images extracted.\n\n")
	}

	b.WriteString("## Text Content\n\n")
	b.WriteString(result.Text)

	structured := map[string]interface{}{
		"metadata":    result.Metadata,
		"images":      result.Images,
		"text_length": utf8.RuneCountInString(result.Text),
		"outline":     result.Outline,
	}
	return textResult(b.String(), "\n\n---"+jsonBlock("Structured Data (JSON)", structured)), nil
}

// === extract_text_only ===

type extractTextArgs struct {
	PDFPath    string `json:"pdf_path"`
	SaveToFile string `json:"save_to_file"`
	textArgs
}

func (a *extractTextArgs) pdfPath() string { return a.PDFPath }

func (s *Server) handleExtractText(args json.RawMessage) (*ToolResult, error) {
	var a extractTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.textArgs.options(a.SaveToFile)
	if err != nil {
		return nil, err
	}

	p, err := s.newParser(a.PDFPath)
	if err != nil {
		return nil, err
	}
	text, err := p.ExtractText(opts)
	if err != nil {
		return nil, err
	}
	return textResult(text), nil
}

// === extract_images_only ===

type extractImagesArgs struct {
	PDFPath string `json:"pdf_path"`
	imageArgs
}

func (a *extractImagesArgs) pdfPath() string { return a.PDFPath }

func (s *Server) handleExtractImages(args json.RawMessage) (*ToolResult, error) {
	var a extractImagesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.imageOptions(a.imageArgs)
	if err != nil {
		return nil, err
	}

	p, err := s.newParser(a.PDFPath)
	if err != nil {
		return nil, err
	}
	images, err := p.ExtractImages(opts)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Image Extraction Complete\n\n")
	fmt.Fprintf(&b, "Total images extracted: %d\n\n", len(images))
	for _, img := range images {
		fmt.Fprintf(&b, "## %s\n", img.Filename)
		fmt.Fprintf(&b, "- **Page**: %d\n", img.Page)
		writeImageDetails(&b, img, "")
		b.WriteString("\n")
	}

	return textResult(b.String(), jsonBlock("JSON Data", images)), nil
}

// === get_paper_metadata ===

type metadataArgs struct {
	PDFPath string `json:"pdf_path"`
}

func (a *metadataArgs) pdfPath() string { return a.PDFPath }

func (s *Server) handleGetMetadata(args json.RawMessage) (*ToolResult, error) {
	var a metadataArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	p, err := s.newParser(a.PDFPath)
	if err != nil {
		return nil, err
	}
	meta, err := p.Metadata()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# PDF Metadata\n\n")
	fmt.Fprintf(&b, "- **Filename**: %s\n", meta.Filename)
	fmt.Fprintf(&b, "- **File Size**: %s bytes (%.2f MB)\n", humanize.Comma(meta.FileSize), float64(meta.FileSize)/1024/1024)
	fmt.Fprintf(&b, "- **Pages**: %d\n", meta.PageCount)
	fmt.Fprintf(&b, "- **Title**: %s\n", orNA(meta.Title))
	fmt.Fprintf(&b, "- **Author**: %s\n", orNA(meta.Author))
	fmt.Fprintf(&b, "- **Subject**: %s\n", orNA(meta.Subject))
	fmt.Fprintf(&b, "- **Creator**: %s\n", orNA(meta.Creator))
	fmt.Fprintf(&b, "- **Producer**: %s\n", orNA(meta.Producer))
	fmt.Fprintf(&b, "- **Creation Date**: %s\n", orNA(meta.CreationDate))
	fmt.Fprintf(&b, "- **Modification Date**: %s\n", orNA(meta.ModificationDate))

	return textResult(b.String(), jsonBlock("JSON Data", meta)), nil
}
