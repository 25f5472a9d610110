package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageInfo describes an image file on disk.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// FileSize is the size of the file on disk in bytes.
	FileSize int64 `json:"file_size"`

	// Format is the format tag. For normalized output this is "JPG" or "PNG";
	// for Inspect it is the decoder name ("jpeg", "png", "gif", ...).
	Format string `json:"format"`

	// HasAlpha reports whether the color model can carry transparency.
	HasAlpha bool `json:"has_alpha"`
}

// openSource opens path for reading, mapping missing or unreadable files to
// ErrNotFound.
func openSource(path string) (*os.File, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: image %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: image %s is a directory", ErrNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", ErrNotFound, path, err)
	}
	return f, nil
}

// Load decodes the image at path.
//
// Supported formats are PNG, JPEG, GIF, TIFF, BMP and WebP. A missing or
// unreadable path yields ErrNotFound; bytes no codec understands yield
// ErrDecode.
func Load(path string) (image.Image, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// Inspect reads the header of the image at path and reports its dimensions,
// decoder name, alpha capability and on-disk size without decoding pixels.
func Inspect(path string) (*ImageInfo, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		FileSize: st.Size(),
		Format:   format,
		HasAlpha: modelHasAlpha(cfg.ColorModel),
	}, nil
}

// modelHasAlpha reports whether images in color model m may be non-opaque.
func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
