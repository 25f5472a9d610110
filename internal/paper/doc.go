// Package paper extracts the contents of academic-paper PDFs.
//
// A Parser is bound to one file and offers four operations:
//
//   - ExtractText: Markdown text, optionally restricted to pages, truncated
//     or saved to a file
//   - ExtractImages: every embedded image, normalized with the imaging
//     package and written to an output directory
//   - Metadata: page count and the document Info dictionary
//   - ParseFull: all of the above plus a heading outline
//
// Text comes from rsc.io/pdf, images from pdfcpu. Both sit behind small
// interfaces (TextConverter, ImageSource, InfoReader) so callers can swap
// them out.
//
// Errors wrap the imaging sentinels ErrNotFound, ErrConfiguration and
// ErrDecode. A single unreadable image never fails ExtractImages; it is
// logged and skipped.
package paper
