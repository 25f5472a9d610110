package imaging

import (
	"fmt"
	"strings"
)

// Quality names one of the fixed normalization presets.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Format is an output encoding for normalized images.
type Format string

const (
	// FormatJPG is the lossy output format.
	FormatJPG Format = "jpg"
	// FormatPNG is the lossless output format.
	FormatPNG Format = "png"
)

// QualityPreset bundles the parameters that control how aggressively an image
// is reduced.
type QualityPreset struct {
	// MaxDimension bounds the longer side of the output, in pixels.
	MaxDimension int `json:"max_dimension"`

	// JPEGQuality is the encoder quality factor (1-100) for lossy output.
	JPEGQuality int `json:"jpeg_quality"`

	// DPI is the nominal resolution of the preset. It is reported but not
	// used by any resize or encode decision.
	DPI int `json:"dpi"`
}

var presets = map[Quality]QualityPreset{
	QualityHigh:   {MaxDimension: 1500, JPEGQuality: 90, DPI: 200},
	QualityMedium: {MaxDimension: 1024, JPEGQuality: 85, DPI: 150},
	QualityLow:    {MaxDimension: 768, JPEGQuality: 75, DPI: 100},
}

// Qualities lists the known quality levels, best first.
func Qualities() []Quality {
	return []Quality{QualityHigh, QualityMedium, QualityLow}
}

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatJPG, FormatPNG}
}

// Preset returns a copy of the preset for q.
func Preset(q Quality) (QualityPreset, error) {
	p, ok := presets[q]
	if !ok {
		return QualityPreset{}, fmt.Errorf("%w: unknown quality %q (want high, medium or low)", ErrConfiguration, string(q))
	}
	return p, nil
}

// ParseQuality converts a user-supplied tag into a Quality.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Preset(q); err != nil {
		return "", err
	}
	return q, nil
}

// ParseFormat converts a user-supplied tag into a Format. "jpeg" is accepted
// as an alias of "jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: unknown image format %q (want jpg or png)", ErrConfiguration, s)
	}
}

// Valid reports whether f is a supported output format.
func (f Format) Valid() bool {
	return f == FormatJPG || f == FormatPNG
}

// Lossy reports whether f discards information when encoding.
func (f Format) Lossy() bool {
	return f == FormatJPG
}

// Tag is the upper-case label used in image records ("JPG", "PNG").
func (f Format) Tag() string {
	return strings.ToUpper(string(f))
}
