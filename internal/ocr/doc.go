// Package ocr recognizes text inside extracted figures using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Because
// gosseract needs cgo and the Tesseract development libraries, the real
// implementation is only compiled with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Without the tag, Recognize returns ErrUnavailable and Available reports
// false, so the rest of the server builds and runs on machines without
// Tesseract.
//
// # Prerequisites
//
// With the tag, Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Languages
//
// The default language is English ("eng"). Other Tesseract language codes
// ("deu", "fra", "chi_sim", ...) work when their data files are installed.
package ocr
