package imaging

import "errors"

// Sentinel errors returned (wrapped) by this package. Callers test for them
// with errors.Is.
var (
	// ErrNotFound indicates that a source path does not resolve to a readable file.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates an unknown quality level or output format.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDecode indicates that no registered codec could interpret the bytes.
	ErrDecode = errors.New("cannot decode image")
)
