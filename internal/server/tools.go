package server

import (
	"github.com/bgyooPtr/parse-paper-mcp/internal/config"
	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	ToolParsePaper        = "parse_paper"
	ToolExtractTextOnly   = "extract_text_only"
	ToolExtractImagesOnly = "extract_images_only"
	ToolGetPaperMetadata  = "get_paper_metadata"
)

func pdfPathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Path to the PDF file",
	}
}

func pagesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "integer", "minimum": 0},
		"description": "List of page numbers (0-based) to extract. Omit for all pages. Example: [0, 1, 2] for first 3 pages.",
	}
}

func maxCharsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"description": "Maximum characters to return in text. Truncates with a warning if exceeded. Recommended: 10000-50000 for large papers.",
	}
}

func qualityProperty(def imaging.Quality) map[string]interface{} {
	values := make([]string, 0, 3)
	for _, q := range imaging.Qualities() {
		values = append(values, string(q))
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        values,
		"description": "Image quality level: high (1500px), medium (1024px) or low (768px) longest side (default: " + string(def) + ")",
		"default":     string(def),
	}
}

func formatProperty(def imaging.Format) map[string]interface{} {
	values := make([]string, 0, 2)
	for _, f := range imaging.Formats() {
		values = append(values, string(f))
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        values,
		"description": "Image output format (default: " + string(def) + ")",
		"default":     string(def),
	}
}

func outputDirProperty(def string) map[string]interface{} {
	p := map[string]interface{}{
		"type":        "string",
		"description": "Directory to save extracted images (optional, uses a temp directory if not specified)",
	}
	if def != "" {
		p["description"] = "Directory to save extracted images (default: " + def + ")"
		p["default"] = def
	}
	return p
}

func boolProperty(description string, def bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
		"default":     def,
	}
}

// GetToolDefinitions returns all available tools. Schema defaults for
// quality, image_format and output_dir come from cfg.
func GetToolDefinitions(cfg *config.Config) []Tool {
	return []Tool{
		{
			Name: ToolParsePaper,
			Description: "**[RECOMMENDED]** Parse an academic paper (PDF) and extract text and images. " +
				"Text is returned in Markdown format. Images are extracted, compressed, and saved to the output directory." +
				"\n\n**Usage Guidelines:**\n" +
				"- **With page ranges** (e.g., pages=[0,1,2]): Keep extract_images=true (default) for better understanding.\n" +
				"- **Full document at once**: Set extract_images=false to reduce response size.\n" +
				"- **For large papers**: Use pages parameter to process 2-5 pages at a time.\n" +
				"\n**Tip**: Use max_chars or save_text_to_file to manage large text responses.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pdf_path":       pdfPathProperty(),
					"output_dir":     outputDirProperty(cfg.Defaults.OutputDir),
					"quality":        qualityProperty(cfg.Quality()),
					"image_format":   formatProperty(cfg.Format()),
					"extract_images": boolProperty("Whether to extract images (default: true)", true),
					"return_base64":  boolProperty("Include base64 encoded JPEG images in response (default: false)", false),
					"ocr_images":     boolProperty("Run OCR over each extracted image and include the recognized text (default: false)", false),
					"pages":          pagesProperty(),
					"max_chars":      maxCharsProperty(),
					"save_text_to_file": map[string]interface{}{
						"type":        "string",
						"description": "Path to save full text. If provided, only metadata and a preview are returned instead of full text.",
					},
				},
				"required": []string{"pdf_path"},
			},
		},
		{
			Name: ToolExtractTextOnly,
			Description: "Extract only text from a PDF paper in Markdown format (no images, no metadata)." +
				"\n**⚠️ Note**: Generally prefer `parse_paper` for better analysis. Only use this tool when:\n" +
				"- You need extremely fast text-only extraction\n" +
				"- Metadata and image information are completely unnecessary\n" +
				"- You're doing a quick text-only preview\n" +
				"\nSupports page ranges, character limits, and saving to file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pdf_path":  pdfPathProperty(),
					"pages":     pagesProperty(),
					"max_chars": maxCharsProperty(),
					"save_to_file": map[string]interface{}{
						"type":        "string",
						"description": "Path to save full text. If provided, only a summary and preview are returned, avoiding large responses.",
					},
				},
				"required": []string{"pdf_path"},
			},
		},
		{
			Name: ToolExtractImagesOnly,
			Description: "Extract and compress only images from a PDF paper. " +
				"Images are saved to the specified directory with compression applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pdf_path":      pdfPathProperty(),
					"output_dir":    outputDirProperty(cfg.Defaults.OutputDir),
					"quality":       qualityProperty(cfg.Quality()),
					"image_format":  formatProperty(cfg.Format()),
					"return_base64": boolProperty("Include base64 encoded JPEG images (default: false)", false),
					"ocr_images":    boolProperty("Run OCR over each extracted image (default: false)", false),
				},
				"required": []string{"pdf_path"},
			},
		},
		{
			Name: ToolGetPaperMetadata,
			Description: "Get metadata from a PDF paper including page count, title, author, " +
				"file size, and other document properties.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pdf_path": pdfPathProperty(),
				},
				"required": []string{"pdf_path"},
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
			"tools": GetToolDefinitions(s.cfg),
		},
	}
}
