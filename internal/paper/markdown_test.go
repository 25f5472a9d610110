package paper

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pdfLine is one line of text placed on a test page.
type pdfLine struct {
	size float64
	y    float64
	text string
}

// pdfWriter accumulates numbered objects and finishes the file with an
// xref table. Objects are numbered from 1 in the order they are added.
type pdfWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFWriter() *pdfWriter {
	w := &pdfWriter{}
	w.buf.WriteString("%PDF-1.4\n")
	return w
}

func (w *pdfWriter) add(body string) int {
	w.offsets = append(w.offsets, w.buf.Len())
	num := len(w.offsets)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return num
}

// addStream adds a stream object; entries are extra dictionary keys.
func (w *pdfWriter) addStream(entries string, data []byte) int {
	return w.add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", entries, len(data), data))
}

// save writes the xref table and trailer and stores the file as test.pdf in dir.
func (w *pdfWriter) save(t *testing.T, dir, trailerExtra string) string {
	t.Helper()

	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(w.offsets)+1, trailerExtra, xref)

	path := filepath.Join(dir, "test.pdf")
	if err := os.WriteFile(path, w.buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write PDF: %v", err)
	}
	return path
}

// buildPDF writes a minimal uncompressed PDF with one Helvetica font, one
// content stream per page and an optional Info dictionary.
func buildPDF(t *testing.T, dir string, info map[string]string, pages ...[]pdfLine) string {
	t.Helper()
	w := newPDFWriter()

	// Object numbers are fixed up front: 1 catalog, 2 page tree, 3 font,
	// then a page and its content stream per page.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	w.add("<< /Type /Catalog /Pages 2 0 R >>")
	w.add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages)))

	widths := strings.TrimSpace(strings.Repeat("500.0 ", 95))
	w.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>")

	for i, lines := range pages {
		var content strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&content, "BT /F1 %.1f Tf 72.0 %.1f Td (%s) Tj ET\n", l.size, l.y, l.text)
		}
		w.add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		w.addStream("", []byte(content.String()))
	}

	trailerInfo := ""
	if len(info) > 0 {
		var entries []string
		for _, key := range []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate"} {
			if v, ok := info[key]; ok {
				entries = append(entries, fmt.Sprintf("/%s (%s)", key, v))
			}
		}
		num := w.add("<< " + strings.Join(entries, " ") + " >>")
		trailerInfo = fmt.Sprintf(" /Info %d 0 R", num)
	}

	return w.save(t, dir, trailerInfo)
}

func samplePaper(t *testing.T) string {
	t.Helper()
	return buildPDF(t, t.TempDir(),
		map[string]string{
			"Title":        "Attention Is Enough",
			"Author":       "A. Researcher",
			"Producer":     "pdfTeX-1.40.21",
			"CreationDate": "D:20240102150405Z",
		},
		[]pdfLine{
			{20, 700, "Attention Is Enough"},
			{14, 660, "Introduction"},
			{10, 640, "First body line of the paper"},
			{10, 628, "second body line continues here"},
			{10, 590, "A new paragraph starts after a gap"},
		},
		[]pdfLine{
			{10, 700, "Second page text is plain body"},
		},
	)
}

func TestMarkdownConverter_Convert(t *testing.T) {
	path := samplePaper(t)

	md, err := MarkdownConverter{}.Convert(path, nil)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := "# Attention Is Enough\n\n" +
		"## Introduction\n\n" +
		"First body line of the paper\nsecond body line continues here\n\n" +
		"A new paragraph starts after a gap" +
		PageSeparator +
		"Second page text is plain body\n"
	if md != want {
		t.Errorf("unexpected markdown:\ngot:  %q\nwant: %q", md, want)
	}
}

func TestMarkdownConverter_PageSelection(t *testing.T) {
	path := samplePaper(t)

	tests := []struct {
		name    string
		pages   []int
		want    string
		wantErr error
	}{
		{"second page only", []int{1}, "Second page text is plain body\n", nil},
		{"both pages reversed", []int{1, 0}, "", nil},
		{"out of range", []int{2}, "", ErrPageRange},
		{"negative", []int{-1}, "", ErrPageRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := MarkdownConverter{}.Convert(path, tt.pages)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("page errors should be configuration errors, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if tt.want != "" && md != tt.want {
				t.Errorf("got %q, want %q", md, tt.want)
			}
			if len(tt.pages) > 1 && !strings.HasPrefix(md, "Second page text") {
				t.Errorf("pages should follow the requested order, got %q", md)
			}
		})
	}
}

func TestMarkdownConverter_Errors(t *testing.T) {
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("plain text, not a document"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := (MarkdownConverter{}).Convert(filepath.Join(dir, "missing.pdf"), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: expected ErrNotFound, got %v", err)
	}
	if _, err := (MarkdownConverter{}).Convert(notPDF, nil); !errors.Is(err, ErrDecode) {
		t.Errorf("non-PDF: expected ErrDecode, got %v", err)
	}
}

func TestHeadingPrefix(t *testing.T) {
	tests := []struct {
		size, body float64
		text       string
		want       string
	}{
		{20, 10, "Title", "# "},
		{16, 10, "Title", "# "},
		{14, 10, "Section", "## "},
		{12, 10, "Subsection", "### "},
		{11, 10, "Body", ""},
		{10, 10, "Body", ""},
		{20, 0, "No body size", ""},
		{20, 10, strings.Repeat("x", 201), ""},
	}

	for _, tt := range tests {
		if got := headingPrefix(tt.size, tt.body, tt.text); got != tt.want {
			t.Errorf("headingPrefix(%v, %v, %.10q): got %q, want %q", tt.size, tt.body, tt.text, got, tt.want)
		}
	}
}

func TestPDFInfoReader(t *testing.T) {
	info, err := PDFInfoReader{}.Info(samplePaper(t))
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if info.PageCount != 2 {
		t.Errorf("PageCount: got %d, want 2", info.PageCount)
	}
	if info.Title != "Attention Is Enough" || info.Author != "A. Researcher" {
		t.Errorf("unexpected title/author: %+v", info)
	}
	if info.CreationDate != "D:20240102150405Z" {
		t.Errorf("CreationDate: got %q", info.CreationDate)
	}
	if info.Subject != "" || info.ModDate != "" {
		t.Errorf("absent fields should be empty: %+v", info)
	}
}

func TestPDFInfoReader_NoInfo(t *testing.T) {
	path := buildPDF(t, t.TempDir(), nil, []pdfLine{{10, 700, "Only text"}})

	info, err := PDFInfoReader{}.Info(path)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.PageCount != 1 || info.Title != "" || info.Producer != "" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestPDFCPUImageSource_NoImages(t *testing.T) {
	path := samplePaper(t)

	pages, err := NewPDFCPUImageSource().PageImages(path)
	if err != nil {
		t.Fatalf("PageImages failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Err != nil || len(p.Refs) != 0 {
			t.Errorf("page %d: expected no images, got %d refs (err %v)", i+1, len(p.Refs), p.Err)
		}
	}
}

func TestPDFCPUImageSource_Errors(t *testing.T) {
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewPDFCPUImageSource()
	if _, err := src.PageImages(filepath.Join(dir, "missing.pdf")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: expected ErrNotFound, got %v", err)
	}
	if _, err := src.PageImages(notPDF); !errors.Is(err, ErrDecode) {
		t.Errorf("non-PDF: expected ErrDecode, got %v", err)
	}
}

func TestParser_EndToEnd(t *testing.T) {
	path := samplePaper(t)
	p, err := New(path, WithLogger(quietLogger()), WithTempDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := p.ParseFull(FullOptions{})
	if err != nil {
		t.Fatalf("ParseFull failed: %v", err)
	}
	if res.Metadata.PageCount != 2 || res.Metadata.Filename != "test.pdf" {
		t.Errorf("unexpected metadata: %+v", res.Metadata)
	}

	want := []Heading{{1, "Attention Is Enough"}, {2, "Introduction"}}
	if len(res.Outline) != len(want) {
		t.Fatalf("outline: got %+v, want %+v", res.Outline, want)
	}
	for i := range want {
		if res.Outline[i] != want[i] {
			t.Errorf("outline[%d]: got %+v, want %+v", i, res.Outline[i], want[i])
		}
	}
}
