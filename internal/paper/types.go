package paper

import "github.com/bgyooPtr/parse-paper-mcp/internal/imaging"

// ImageRecord describes one extracted and normalized image.
type ImageRecord struct {
	// Page is the 1-based page number the image appears on.
	Page int `json:"page"`

	// Index is the 1-based position of the image among the page's images.
	Index int `json:"index"`

	// Filename is the output file name, page<Page>_img<Index>.<format>.
	Filename string `json:"filename"`

	// Path is the full path of the written file.
	Path string `json:"path"`

	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
	Format   string `json:"format"`

	// Base64 holds the JPEG-encoded image when inline delivery was requested.
	Base64 string `json:"base64,omitempty"`

	// OCRText is text recognized inside the image when OCR was requested.
	OCRText string `json:"ocr_text,omitempty"`
}

// Metadata is a snapshot of document-level properties. Descriptive fields
// are empty when the document does not set them.
type Metadata struct {
	Filename         string `json:"filename"`
	FileSize         int64  `json:"file_size"`
	PageCount        int    `json:"page_count"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	Subject          string `json:"subject"`
	Creator          string `json:"creator"`
	Producer         string `json:"producer"`
	CreationDate     string `json:"creation_date"`
	ModificationDate string `json:"modification_date"`
}

// Heading is one Markdown heading found in the extracted text.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Result aggregates everything ParseFull produces.
type Result struct {
	// Text is the Markdown text, a truncated version of it, or a save summary.
	Text string `json:"text"`

	Metadata *Metadata `json:"metadata"`

	// Images is empty, never nil, when image extraction was disabled.
	Images []ImageRecord `json:"images"`

	// Outline lists the headings of the full text, before any truncation.
	Outline []Heading `json:"outline"`
}

// TextOptions controls ExtractText. Zero values mean "not set".
type TextOptions struct {
	// Pages restricts conversion to these 0-based page indices. Empty means all pages.
	Pages []int

	// MaxChars truncates the returned text to this many characters.
	MaxChars int

	// SaveToFile writes the full text to this path and returns a summary instead.
	SaveToFile string
}

// ImageOptions controls ExtractImages.
type ImageOptions struct {
	// OutputDir receives the normalized images. Empty means a new temp directory.
	OutputDir string

	Quality imaging.Quality
	Format  imaging.Format

	// ReturnBase64 adds an inline JPEG encoding of each output file.
	ReturnBase64 bool

	// OCR runs text recognition over each output file.
	OCR bool

	// OCRLanguage is the Tesseract language code; empty means English.
	OCRLanguage string
}

// FullOptions controls ParseFull.
type FullOptions struct {
	Text   TextOptions
	Images ImageOptions

	// ExtractImages enables image extraction. When false, Result.Images is empty.
	ExtractImages bool
}
