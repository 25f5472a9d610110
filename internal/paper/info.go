package paper

import "fmt"

// DocInfo holds the page count and Info dictionary of a document.
type DocInfo struct {
	PageCount    int
	Title        string
	Author       string
	Subject      string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// InfoReader reads document-level properties.
type InfoReader interface {
	Info(path string) (*DocInfo, error)
}

// PDFInfoReader reads the trailer Info dictionary with rsc.io/pdf. Dates are
// returned in raw PDF form ("D:20240102150405Z").
type PDFInfoReader struct{}

// Info implements InfoReader.
func (PDFInfoReader) Info(path string) (info *DocInfo, err error) {
	f, r, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defer func() {
		if rec := recover(); rec != nil {
			info, err = nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, rec)
		}
	}()

	dict := r.Trailer().Key("Info")
	field := func(key string) string {
		return dict.Key(key).Text()
	}

	return &DocInfo{
		PageCount:    r.NumPage(),
		Title:        field("Title"),
		Author:       field("Author"),
		Subject:      field("Subject"),
		Creator:      field("Creator"),
		Producer:     field("Producer"),
		CreationDate: field("CreationDate"),
		ModDate:      field("ModDate"),
	}, nil
}
