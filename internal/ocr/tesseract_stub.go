//go:build !ocr

package ocr

// Available reports whether OCR support is compiled in.
func Available() bool { return false }

// Recognize always fails with ErrUnavailable in builds without the ocr tag.
func Recognize(imagePath string, opts Options) (string, error) {
	return "", ErrUnavailable
}
