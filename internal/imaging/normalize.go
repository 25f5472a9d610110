package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// Normalizer converts arbitrary source images into size-bounded JPEG or PNG
// output according to a quality preset.
//
// When the target is lossy, sources that can carry transparency are
// alpha-composited onto Background before encoding, so transparent regions do
// not come out black in viewers that ignore alpha. Other non-truecolor
// sources (grayscale, CMYK, 16-bit) are converted to 8-bit RGB. Lossless
// output keeps the source's channel layout.
//
// A Normalizer holds no per-call state and is safe for concurrent use.
type Normalizer struct {
	// Background is the color transparent pixels are composited onto for
	// lossy output. Nil means opaque white.
	Background color.Color
}

// NewNormalizer returns a Normalizer that flattens onto opaque white.
func NewNormalizer() *Normalizer {
	return &Normalizer{Background: color.White}
}

// ToFile normalizes the image at src and writes it to dst in format f.
//
// The parent directory of dst must exist; dst is created or overwritten.
// Images whose longer side exceeds the preset's MaxDimension are downscaled
// with a Lanczos filter so that the longer side equals MaxDimension; smaller
// images keep their resolution.
//
// Returns the final dimensions, the byte size of the written file and the
// format tag.
func (n *Normalizer) ToFile(src, dst string, q Quality, f Format) (*ImageInfo, error) {
	preset, err := Preset(q)
	if err != nil {
		return nil, err
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: unknown image format %q", ErrConfiguration, string(f))
	}

	img, err := n.prepare(src, preset, f.Lossy())
	if err != nil {
		return nil, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	if err := encode(out, img, f, preset); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		FileSize: st.Size(),
		Format:   f.Tag(),
		HasAlpha: !f.Lossy() && modelHasAlpha(img.ColorModel()),
	}, nil
}

// ToInline applies the same flatten and resize policy as ToFile but always
// encodes JPEG, returning the bytes as standard base64 text. No file is
// written.
func (n *Normalizer) ToInline(src string, q Quality) (string, error) {
	preset, err := Preset(q)
	if err != nil {
		return "", err
	}

	img, err := n.prepare(src, preset, true)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, FormatJPG, preset); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// prepare decodes src, flattens it for lossy output and bounds its size.
func (n *Normalizer) prepare(src string, preset QualityPreset, lossy bool) (image.Image, error) {
	img, err := Load(src)
	if err != nil {
		return nil, err
	}
	if lossy {
		img = n.flatten(img)
	}
	return fit(img, preset.MaxDimension), nil
}

func (n *Normalizer) background() color.Color {
	if n == nil || n.Background == nil {
		return color.White
	}
	return n.Background
}

// flatten returns an opaque truecolor version of img.
func (n *Normalizer) flatten(img image.Image) image.Image {
	if modelHasAlpha(img.ColorModel()) || img.ColorModel() == color.NYCbCrAModel {
		b := img.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), n.background())
		return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}

	if _, ok := img.(*image.YCbCr); ok {
		return img
	}
	return clone.AsRGBA(img)
}

// fit downscales img so neither side exceeds max. Grayscale sources keep
// their bit depth. Paletted sources come back as NRGBA, since the filtered
// pixels no longer fit the original palette.
func fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	if b.Dx() <= max && b.Dy() <= max {
		return img
	}

	resized := imaging.Fit(img, max, max, imaging.Lanczos)

	switch img.(type) {
	case *image.Gray:
		gray := image.NewGray(resized.Bounds())
		draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
		return gray
	case *image.Gray16:
		gray := image.NewGray16(resized.Bounds())
		draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
		return gray
	}
	return resized
}

// encode writes img to w. JPEG uses the preset's quality factor; PNG uses the
// best compression level and no quality parameter.
func encode(w io.Writer, img image.Image, f Format, preset QualityPreset) error {
	var err error
	switch f {
	case FormatJPG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(preset.JPEGQuality))
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		return fmt.Errorf("%w: unknown image format %q", ErrConfiguration, string(f))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s image: %w", f, err)
	}
	return nil
}
