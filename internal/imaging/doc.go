// Package imaging normalizes images extracted from PDF documents so they are
// small enough to hand to a language model.
//
// # Quality Presets
//
// Three fixed presets control how aggressively an image is reduced:
//
//	quality  max side  JPEG quality  DPI
//	high     1500 px   90            200
//	medium   1024 px   85            150
//	low       768 px   75            100
//
// The DPI value is informational only; no resize decision uses it.
// Presets are returned by value and cannot be modified by callers.
//
// # Normalization
//
// A Normalizer decodes a source file (PNG, JPEG, GIF, TIFF, BMP or WebP),
// then:
//
//  1. For JPEG output, composites transparent or palette images onto an opaque
//     background (white by default) and converts other non-truecolor images
//     to RGB. PNG output keeps the original channels.
//  2. Downscales with a Lanczos filter when the longer side exceeds the
//     preset's limit, preserving aspect ratio. Images are never upscaled.
//  3. Encodes to a file (ToFile) or to base64 JPEG text (ToInline).
//
// # Error Handling
//
// Errors wrap one of three sentinels so callers can tell them apart with
// errors.Is:
//   - ErrNotFound: the source path is missing or unreadable
//   - ErrConfiguration: unknown quality level or output format
//   - ErrDecode: the bytes are not an image any registered codec understands
package imaging
