package paper

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"rsc.io/pdf"
)

// TextConverter turns a PDF into Markdown.
type TextConverter interface {
	// Convert returns Markdown for the given 0-based page indices, or for all
	// pages when pages is empty.
	Convert(path string, pages []int) (string, error)
}

// PageSeparator is placed between consecutive pages in converted text.
const PageSeparator = "\n\n-----\n\n"

// MarkdownConverter converts text-layer PDFs to Markdown using rsc.io/pdf.
//
// Glyph runs are grouped into lines by baseline and read top to bottom, left
// to right. The most common font size across the selected pages is taken as
// body text; noticeably larger lines become headings:
//
//	size >= 1.6 x body  ->  #
//	size >= 1.3 x body  ->  ##
//	size >= 1.15 x body ->  ###
//
// Large vertical gaps start a new paragraph.
type MarkdownConverter struct{}

// Convert implements TextConverter.
func (MarkdownConverter) Convert(path string, pages []int) (md string, err error) {
	f, r, err := openPDF(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// rsc.io/pdf panics on malformed objects and content streams.
	defer func() {
		if rec := recover(); rec != nil {
			md, err = "", fmt.Errorf("%w: %s: %v", ErrDecode, path, rec)
		}
	}()

	selected, err := selectPages(pages, r.NumPage())
	if err != nil {
		return "", err
	}

	pageLines := make([][]textLine, len(selected))
	for i, idx := range selected {
		pageLines[i] = groupLines(r.Page(idx + 1).Content().Text)
	}

	body := bodyFontSize(pageLines)
	blocks := make([]string, len(pageLines))
	for i, lines := range pageLines {
		blocks[i] = renderPage(lines, body)
	}
	return strings.Join(blocks, PageSeparator) + "\n", nil
}

// openPDF opens path and returns the file together with a reader over it.
// The caller closes the file.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	f, err = os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: PDF file %s: %v", ErrNotFound, path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			f.Close()
			f, r, err = nil, nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, rec)
		}
	}()

	r, err = pdf.NewReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return f, r, nil
}

// selectPages validates 0-based indices against count. An empty selection
// means every page.
func selectPages(pages []int, count int) ([]int, error) {
	if len(pages) == 0 {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, p := range pages {
		if p < 0 || p >= count {
			return nil, fmt.Errorf("%w: page %d (document has %d pages)", ErrPageRange, p, count)
		}
	}
	return pages, nil
}

// textLine is a run of glyphs sharing one baseline.
type textLine struct {
	y     float64
	size  float64
	glyph []pdf.Text
}

func (l textLine) String() string {
	var b strings.Builder
	for i, g := range l.glyph {
		if i > 0 {
			prev := l.glyph[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > 0.15*math.Max(prev.FontSize, g.FontSize) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// groupLines clusters glyphs into lines ordered top to bottom (PDF y grows
// upward) and left to right within a line.
func groupLines(glyphs []pdf.Text) []textLine {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []textLine
	for _, g := range sorted {
		n := len(lines)
		if n > 0 {
			cur := &lines[n-1]
			tol := math.Max(2, 0.5*math.Min(cur.size, g.FontSize))
			if math.Abs(cur.y-g.Y) <= tol {
				cur.glyph = append(cur.glyph, g)
				cur.size = math.Max(cur.size, g.FontSize)
				continue
			}
		}
		lines = append(lines, textLine{y: g.Y, size: g.FontSize, glyph: []pdf.Text{g}})
	}

	for i := range lines {
		glyph := lines[i].glyph
		sort.SliceStable(glyph, func(a, b int) bool {
			return glyph[a].X < glyph[b].X
		})
	}
	return lines
}

// bodyFontSize returns the font size carrying the most glyphs, rounded to a
// half point.
func bodyFontSize(pages [][]textLine) float64 {
	counts := make(map[float64]int)
	for _, lines := range pages {
		for _, l := range lines {
			for _, g := range l.glyph {
				counts[math.Round(g.FontSize*2)/2]++
			}
		}
	}

	var body float64
	best := -1
	for size, n := range counts {
		if n > best || (n == best && size < body) {
			body, best = size, n
		}
	}
	return body
}

// headingPrefix maps a line's font size to a Markdown heading marker.
func headingPrefix(size, body float64, text string) string {
	if body <= 0 || len([]rune(text)) > 200 {
		return ""
	}
	switch ratio := size / body; {
	case ratio >= 1.6:
		return "# "
	case ratio >= 1.3:
		return "## "
	case ratio >= 1.15:
		return "### "
	}
	return ""
}

func renderPage(lines []textLine, body float64) string {
	var b strings.Builder
	var prev *textLine
	inHeading := false

	for i := range lines {
		l := &lines[i]
		text := l.String()
		if text == "" {
			continue
		}
		prefix := headingPrefix(l.size, body, text)

		if prev != nil {
			gap := prev.y - l.y
			switch {
			case prefix != "" || inHeading:
				b.WriteString("\n\n")
			case gap > 1.5*math.Max(prev.size, l.size):
				b.WriteString("\n\n")
			default:
				b.WriteByte('\n')
			}
		}

		b.WriteString(prefix)
		b.WriteString(text)
		inHeading = prefix != ""
		prev = l
	}
	return b.String()
}
