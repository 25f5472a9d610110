package ocr

import "errors"

// DefaultLanguage is used when Options.Language is empty.
const DefaultLanguage = "eng"

// ErrUnavailable is returned when the binary was built without OCR support.
var ErrUnavailable = errors.New("ocr support not compiled in (build with -tags ocr)")

// Options configures a recognition call.
type Options struct {
	// Language is a Tesseract language code such as "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
}

func (o Options) language() string {
	if o.Language == "" {
		return DefaultLanguage
	}
	return o.Language
}
