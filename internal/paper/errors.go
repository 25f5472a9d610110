package paper

import (
	"errors"
	"fmt"

	"github.com/bgyooPtr/parse-paper-mcp/internal/imaging"
)

// Errors shared with the imaging package so one errors.Is check covers both
// document-level and image-level failures.
var (
	ErrNotFound      = imaging.ErrNotFound
	ErrConfiguration = imaging.ErrConfiguration
	ErrDecode        = imaging.ErrDecode
)

// ErrPageRange is returned when a requested page index is outside the
// document. It wraps ErrConfiguration.
var ErrPageRange = fmt.Errorf("%w: page out of range", ErrConfiguration)

// errOCRDisabled stops further OCR attempts within one extraction call.
var errOCRDisabled = errors.New("ocr disabled for this call")
