package paper

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ImageRef is one image reference encountered on a page.
type ImageRef interface {
	// Extract returns the raw image bytes and their native file extension
	// ("jpg", "png", "tif", ...).
	Extract() (data []byte, ext string, err error)
}

// PageImages lists the image references of one page in encounter order.
// Err is set when the page's images could not be enumerated at all.
type PageImages struct {
	Refs []ImageRef
	Err  error
}

// ImageSource enumerates the images embedded in a PDF.
type ImageSource interface {
	// PageImages returns one entry per page, in page order.
	PageImages(path string) ([]PageImages, error)
}

var disableConfigDir sync.Once

// PDFCPUImageSource enumerates images with pdfcpu. Within a page, images are
// ordered by object number.
type PDFCPUImageSource struct {
	// Conf is the pdfcpu configuration; nil means pdfcpu defaults.
	Conf *model.Configuration
}

// NewPDFCPUImageSource returns an image source using pdfcpu's default
// configuration without touching the user's config directory.
func NewPDFCPUImageSource() *PDFCPUImageSource {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPUImageSource{}
}

// PageImages implements ImageSource.
func (s *PDFCPUImageSource) PageImages(path string) (pages []PageImages, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: PDF file %s: %v", ErrNotFound, path, err)
	}
	defer f.Close()

	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, rec)
		}
	}()

	conf := s.Conf
	if conf == nil {
		disableConfigDir.Do(api.DisableConfigDir)
		conf = model.NewDefaultConfiguration()
	}

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	pages = make([]PageImages, ctx.PageCount)
	for i := range pages {
		pages[i] = extractPageRefs(ctx, i+1)
	}
	return pages, nil
}

func extractPageRefs(ctx *model.Context, pageNr int) (page PageImages) {
	defer func() {
		if rec := recover(); rec != nil {
			page = PageImages{Err: fmt.Errorf("%w: page %d: %v", ErrDecode, pageNr, rec)}
		}
	}()

	images, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
	if err != nil {
		return PageImages{Err: err}
	}

	objNrs := make([]int, 0, len(images))
	for objNr := range images {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	refs := make([]ImageRef, 0, len(objNrs))
	for _, objNr := range objNrs {
		refs = append(refs, pdfcpuImage{img: images[objNr]})
	}
	return PageImages{Refs: refs}
}

type pdfcpuImage struct {
	img model.Image
}

func (p pdfcpuImage) Extract() ([]byte, string, error) {
	if p.img.Reader == nil {
		return nil, "", fmt.Errorf("%w: image object %d has no data", ErrDecode, p.img.ObjNr)
	}
	data, err := io.ReadAll(p.img)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image object %d: %w", p.img.ObjNr, err)
	}
	return data, strings.ToLower(p.img.FileType), nil
}
