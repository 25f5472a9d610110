package paper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
	"github.com/bgyooPtr/parse-paper-mcp/internal/ocr"
)

// previewChars is the length of the preview included in a save summary.
const previewChars = 500

// OCRFunc recognizes text in an image file.
type OCRFunc func(imagePath string, opts ocr.Options) (string, error)

// ImageNormalizer writes a normalized copy of an image file and produces its
// inline encoding. *imaging.Normalizer implements it.
type ImageNormalizer interface {
	ToFile(src, dst string, q imaging.Quality, f imaging.Format) (*imaging.ImageInfo, error)
	ToInline(src string, q imaging.Quality) (string, error)
}

// Parser extracts text, images and metadata from one PDF file.
//
// A Parser keeps no open document: every operation reopens the file through
// its collaborators, and nothing is cached between calls.
type Parser struct {
	path       string
	logger     logrus.FieldLogger
	normalizer ImageNormalizer
	converter  TextConverter
	images     ImageSource
	info       InfoReader
	recognize  OCRFunc
	tempRoot   string
}

// Option customizes a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for per-image warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithNormalizer replaces the default white-background normalizer.
func WithNormalizer(n ImageNormalizer) Option {
	return func(p *Parser) { p.normalizer = n }
}

// WithConverter replaces the Markdown converter.
func WithConverter(c TextConverter) Option {
	return func(p *Parser) { p.converter = c }
}

// WithImageSource replaces the image enumerator.
func WithImageSource(s ImageSource) Option {
	return func(p *Parser) { p.images = s }
}

// WithInfoReader replaces the metadata reader.
func WithInfoReader(r InfoReader) Option {
	return func(p *Parser) { p.info = r }
}

// WithOCR replaces the OCR function.
func WithOCR(fn OCRFunc) Option {
	return func(p *Parser) { p.recognize = fn }
}

// WithTempDir sets the directory under which temporary directories are
// created. Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(p *Parser) { p.tempRoot = dir }
}

// New returns a Parser for the file at path. It fails with ErrNotFound when
// the path does not exist; the file's contents are not validated until the
// first operation.
func New(path string, opts ...Option) (*Parser, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: PDF file not found: %s", ErrNotFound, path)
	}

	p := &Parser{
		path:       path,
		logger:     logrus.StandardLogger(),
		normalizer: imaging.NewNormalizer(),
		converter:  MarkdownConverter{},
		info:       PDFInfoReader{},
		recognize:  ocr.Recognize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.images == nil {
		p.images = NewPDFCPUImageSource()
	}
	return p, nil
}

// Path returns the PDF path the parser is bound to.
func (p *Parser) Path() string {
	return p.path
}

// ExtractText converts the document to Markdown and applies the save or
// truncation policy in opts.
//
// With SaveToFile set, the full text is written there (creating parent
// directories) and a short summary with a preview is returned. Otherwise,
// with MaxChars set and exceeded, the text is cut to exactly MaxChars
// characters and a truncation notice is appended.
func (p *Parser) ExtractText(opts TextOptions) (string, error) {
	text, _, err := p.extractText(opts)
	return text, err
}

// extractText returns the policy-shaped text and the full Markdown.
func (p *Parser) extractText(opts TextOptions) (string, string, error) {
	md, err := p.converter.Convert(p.path, opts.Pages)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert PDF to markdown: %w", err)
	}

	if opts.SaveToFile != "" {
		summary, err := saveText(md, opts.SaveToFile, opts.Pages)
		if err != nil {
			return "", "", err
		}
		return summary, md, nil
	}

	if opts.MaxChars > 0 {
		return truncateText(md, opts.MaxChars), md, nil
	}
	return md, md, nil
}

func saveText(md, path string, pages []int) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for text file: %w", err)
	}
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("failed to save text: %w", err)
	}

	runes := []rune(md)
	preview := runes
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}

	var b strings.Builder
	b.WriteString("# Text Saved to File\n\n")
	fmt.Fprintf(&b, "- **File**: `%s`\n", path)
	fmt.Fprintf(&b, "- **Size**: %s characters (%s bytes)\n",
		humanize.Comma(int64(len(runes))), humanize.Comma(int64(len(md))))
	fmt.Fprintf(&b, "- **Pages**: %s\n\n", formatPages(pages))
	fmt.Fprintf(&b, "**Preview (first %d characters):**\n\n%s", previewChars, string(preview))
	return b.String(), nil
}

// truncateText keeps the first limit characters of md and appends a notice
// stating how much was kept.
func truncateText(md string, limit int) string {
	runes := []rune(md)
	total := len(runes)
	if total <= limit {
		return md
	}

	pct := 100 * float64(limit) / float64(total)
	return string(runes[:limit]) + fmt.Sprintf(
		"\n\n---\n\n**⚠️ TEXT TRUNCATED**: Showing %d of %d characters (%.1f%%). "+
			"Use `pages` parameter to extract specific pages, or `save_to_file` to save the full text.",
		limit, total, pct)
}

func formatPages(pages []int) string {
	if len(pages) == 0 {
		return "All"
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ExtractImages extracts every image in the document, normalizes it into the
// output directory and returns one record per image in page order, then
// per-page encounter order.
//
// Raw image bytes are staged in a temporary directory that is removed before
// ExtractImages returns, on every path. A failure on a single image is logged
// as a warning and that image is skipped; it never fails the call.
func (p *Parser) ExtractImages(opts ImageOptions) ([]ImageRecord, error) {
	if _, err := imaging.Preset(opts.Quality); err != nil {
		return nil, err
	}
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown image format %q", ErrConfiguration, string(opts.Format))
	}

	outDir, err := p.outputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	rawDir, err := os.MkdirTemp(p.tempRoot, "parse_paper_raw_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(rawDir); err != nil {
			p.logger.WithError(err).WithField("dir", rawDir).Warn("Failed to clean up temp directory")
		}
	}()

	pages, err := p.images.PageImages(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF images: %w", err)
	}

	ocrEnabled := opts.OCR
	records := []ImageRecord{}
	for i, page := range pages {
		pageNum := i + 1
		if page.Err != nil {
			p.logger.WithError(page.Err).WithField("page", pageNum).Warn("Could not list images on page")
			continue
		}

		for j, ref := range page.Refs {
			index := j + 1
			log := p.logger.WithFields(logrus.Fields{"page": pageNum, "index": index})

			rec, err := p.extractImage(ref, pageNum, index, rawDir, outDir, opts)
			if err != nil {
				log.WithError(err).Warnf("Could not extract image %d from page %d", index, pageNum)
				continue
			}

			if ocrEnabled {
				text, err := p.ocrImage(rec.Path, opts.OCRLanguage)
				switch {
				case errors.Is(err, errOCRDisabled):
					log.WithError(err).Warn("OCR unavailable, skipping text recognition")
					ocrEnabled = false
				case err != nil:
					log.WithError(err).Warn("OCR failed")
				default:
					rec.OCRText = text
				}
			}

			records = append(records, *rec)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"pdf_path":   p.path,
		"output_dir": outDir,
		"images":     len(records),
	}).Debug("Image extraction completed")

	return records, nil
}

// outputDir creates dir, or a fresh temp directory when dir is empty.
func (p *Parser) outputDir(dir string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp(p.tempRoot, "parse_paper_")
		if err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return tmp, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

func (p *Parser) extractImage(ref ImageRef, pageNum, index int, rawDir, outDir string, opts ImageOptions) (*ImageRecord, error) {
	data, ext, err := ref.Extract()
	if err != nil {
		return nil, err
	}
	if ext == "" {
		ext = "bin"
	}

	rawPath := filepath.Join(rawDir, fmt.Sprintf("temp_%d_%d.%s", pageNum-1, index, ext))
	if err := os.WriteFile(rawPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to stage raw image: %w", err)
	}

	filename := fmt.Sprintf("page%d_img%d.%s", pageNum, index, opts.Format)
	outPath := filepath.Join(outDir, filename)

	info, err := p.normalizer.ToFile(rawPath, outPath, opts.Quality, opts.Format)
	if err != nil {
		return nil, err
	}

	rec := &ImageRecord{
		Page:     pageNum,
		Index:    index,
		Filename: filename,
		Path:     outPath,
		Width:    info.Width,
		Height:   info.Height,
		FileSize: info.FileSize,
		Format:   info.Format,
	}

	if opts.ReturnBase64 {
		// Encode from the normalized output so file and inline copies agree.
		encoded, err := p.normalizer.ToInline(outPath, opts.Quality)
		if err != nil {
			os.Remove(outPath)
			return nil, err
		}
		rec.Base64 = encoded
	}
	return rec, nil
}

func (p *Parser) ocrImage(path, language string) (string, error) {
	text, err := p.recognize(path, ocr.Options{Language: language})
	if errors.Is(err, ocr.ErrUnavailable) {
		return "", fmt.Errorf("%w: %v", errOCRDisabled, err)
	}
	return text, err
}

// Metadata reads the document's page count and Info dictionary.
func (p *Parser) Metadata() (*Metadata, error) {
	st, err := os.Stat(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: PDF file not found: %s", ErrNotFound, p.path)
	}

	info, err := p.info.Info(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF metadata: %w", err)
	}

	return &Metadata{
		Filename:         filepath.Base(p.path),
		FileSize:         st.Size(),
		PageCount:        info.PageCount,
		Title:            info.Title,
		Author:           info.Author,
		Subject:          info.Subject,
		Creator:          info.Creator,
		Producer:         info.Producer,
		CreationDate:     info.CreationDate,
		ModificationDate: info.ModDate,
	}, nil
}

// ParseFull extracts text, metadata and, when enabled, images. The outline is
// computed from the full text regardless of truncation or saving.
func (p *Parser) ParseFull(opts FullOptions) (*Result, error) {
	text, full, err := p.extractText(opts.Text)
	if err != nil {
		return nil, err
	}

	meta, err := p.Metadata()
	if err != nil {
		return nil, err
	}

	images := []ImageRecord{}
	if opts.ExtractImages {
		images, err = p.ExtractImages(opts.Images)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Text:     text,
		Metadata: meta,
		Images:   images,
		Outline:  Outline(full),
	}, nil
}
