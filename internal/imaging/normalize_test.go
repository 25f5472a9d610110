package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// createPatternImage builds an opaque RGBA image with four colored quadrants.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func isNear(c color.Color, want color.RGBA, tol uint32) bool {
	r, g, b, _ := c.RGBA()
	diff := func(a uint32, w uint8) uint32 {
		a >>= 8
		if a > uint32(w) {
			return a - uint32(w)
		}
		return uint32(w) - a
	}
	return diff(r, want.R) <= tol && diff(g, want.G) <= tol && diff(b, want.B) <= tol
}

func TestNormalizer_ToFile_WithinBoundKeepsResolution(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := writePNG(t, dir, "src.png", createPatternImage(300, 200))

	for _, q := range Qualities() {
		for _, f := range Formats() {
			t.Run(string(q)+"_"+string(f), func(t *testing.T) {
				dst := filepath.Join(dir, "out_"+string(q)+"."+string(f))
				info, err := n.ToFile(src, dst, q, f)
				if err != nil {
					t.Fatalf("ToFile failed: %v", err)
				}
				if info.Width != 300 || info.Height != 200 {
					t.Errorf("dimensions: got %dx%d, want 300x200", info.Width, info.Height)
				}
				if info.Format != f.Tag() {
					t.Errorf("Format: got %s, want %s", info.Format, f.Tag())
				}
			})
		}
	}
}

func TestNormalizer_ToFile_Downscales(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	landscape := writePNG(t, dir, "landscape.png", createPatternImage(3000, 1500))
	portrait := writePNG(t, dir, "portrait.png", createPatternImage(1200, 2400))

	tests := []struct {
		name          string
		src           string
		quality       Quality
		format        Format
		width, height int
	}{
		{"landscape high", landscape, QualityHigh, FormatJPG, 1500, 750},
		{"landscape medium", landscape, QualityMedium, FormatJPG, 1024, 512},
		{"landscape low png", landscape, QualityLow, FormatPNG, 768, 384},
		{"portrait medium", portrait, QualityMedium, FormatJPG, 512, 1024},
		{"portrait low png", portrait, QualityLow, FormatPNG, 384, 768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(dir, "out."+string(tt.format))
			info, err := n.ToFile(tt.src, dst, tt.quality, tt.format)
			if err != nil {
				t.Fatalf("ToFile failed: %v", err)
			}
			if info.Width != tt.width || info.Height != tt.height {
				t.Errorf("dimensions: got %dx%d, want %dx%d", info.Width, info.Height, tt.width, tt.height)
			}

			// Reported values match the file actually written.
			disk, err := Inspect(dst)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if disk.Width != info.Width || disk.Height != info.Height {
				t.Errorf("file dimensions %dx%d differ from reported %dx%d", disk.Width, disk.Height, info.Width, info.Height)
			}
			if disk.FileSize != info.FileSize {
				t.Errorf("file size %d differs from reported %d", disk.FileSize, info.FileSize)
			}
		})
	}
}

func TestNormalizer_ToFile_FlattensTransparencyForJPG(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := writePNG(t, dir, "clear.png", image.NewNRGBA(image.Rect(0, 0, 40, 40)))
	dst := filepath.Join(dir, "clear.jpg")

	info, err := n.ToFile(src, dst, QualityMedium, FormatJPG)
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	if info.HasAlpha {
		t.Error("JPG output should not report alpha")
	}

	out, err := Load(dst)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if modelHasAlpha(out.ColorModel()) {
		t.Error("decoded JPG has an alpha-capable color model")
	}
	if c := out.At(20, 20); !isNear(c, color.RGBA{255, 255, 255, 255}, 4) {
		t.Errorf("transparent pixel should become white, got %v", c)
	}
}

func TestNormalizer_ToFile_FlattensTransparentPalette(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()

	pal := image.NewPaletted(image.Rect(0, 0, 20, 20), color.Palette{color.Transparent, color.Black})
	for x := 0; x < 10; x++ {
		for y := 0; y < 20; y++ {
			pal.SetColorIndex(x, y, 1)
		}
	}
	src := writePNG(t, dir, "palette.png", pal)
	dst := filepath.Join(dir, "palette.jpg")

	if _, err := n.ToFile(src, dst, QualityHigh, FormatJPG); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}

	out, err := Load(dst)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c := out.At(2, 10); !isNear(c, color.RGBA{0, 0, 0, 255}, 8) {
		t.Errorf("opaque palette pixel should stay black, got %v", c)
	}
	if c := out.At(17, 10); !isNear(c, color.RGBA{255, 255, 255, 255}, 8) {
		t.Errorf("transparent palette pixel should become white, got %v", c)
	}
}

func TestNormalizer_ToFile_CustomBackground(t *testing.T) {
	n := &Normalizer{Background: color.RGBA{255, 0, 0, 255}}
	dir := t.TempDir()
	src := writePNG(t, dir, "clear.png", image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	dst := filepath.Join(dir, "clear.jpg")

	if _, err := n.ToFile(src, dst, QualityHigh, FormatJPG); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	out, _ := Load(dst)
	if c := out.At(8, 8); !isNear(c, color.RGBA{255, 0, 0, 255}, 12) {
		t.Errorf("transparent pixel should take the background color, got %v", c)
	}
}

func TestNormalizer_ToFile_PNGKeepsAlpha(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := writePNG(t, dir, "clear.png", image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	dst := filepath.Join(dir, "clear_out.png")

	info, err := n.ToFile(src, dst, QualityMedium, FormatPNG)
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	if !info.HasAlpha {
		t.Error("PNG output should keep the alpha channel")
	}

	out, _ := Load(dst)
	if _, _, _, a := out.At(4, 4).RGBA(); a != 0 {
		t.Errorf("pixel should stay transparent, alpha = %d", a)
	}
}

func TestNormalizer_ToFile_GrayStaysGrayForPNG(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	gray := image.NewGray(image.Rect(0, 0, 2000, 1000))
	src := writePNG(t, dir, "gray.png", gray)
	dst := filepath.Join(dir, "gray_out.png")

	info, err := n.ToFile(src, dst, QualityMedium, FormatPNG)
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}
	if info.Width != 1024 || info.Height != 512 {
		t.Errorf("dimensions: got %dx%d, want 1024x512", info.Width, info.Height)
	}

	out, _ := Load(dst)
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("decoded output: got %T, want *image.Gray", out)
	}
}

func TestFit_Layout(t *testing.T) {
	tests := []struct {
		name string
		src  image.Image
		want string
	}{
		{"gray16", image.NewGray16(image.Rect(0, 0, 2000, 1000)), "*image.Gray16"},
		{"paletted", image.NewPaletted(image.Rect(0, 0, 2000, 1000), color.Palette{color.Black, color.White}), "*image.NRGBA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := fit(tt.src, 1024)
			if got := fmt.Sprintf("%T", out); got != tt.want {
				t.Errorf("fit output: got %s, want %s", got, tt.want)
			}
			if b := out.Bounds(); b.Dx() != 1024 || b.Dy() != 512 {
				t.Errorf("dimensions: got %dx%d, want 1024x512", b.Dx(), b.Dy())
			}
		})
	}
}

func TestNormalizer_ToFile_Gray16StaysGray16ForPNG(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := writePNG(t, dir, "gray16.png", image.NewGray16(image.Rect(0, 0, 2000, 1000)))
	dst := filepath.Join(dir, "gray16_out.png")

	if _, err := n.ToFile(src, dst, QualityMedium, FormatPNG); err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}

	out, err := Load(dst)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(*image.Gray16); !ok {
		t.Errorf("decoded output: got %T, want *image.Gray16", out)
	}
}

func TestNormalizer_ToFile_Errors(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := createTestImage(t, dir, 10, 10, color.Black)
	corrupt := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte{0xff, 0xd8, 0x00, 0x01}, 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out.jpg")

	tests := []struct {
		name    string
		src     string
		quality Quality
		format  Format
		want    error
	}{
		{"unknown quality", src, Quality("max"), FormatJPG, ErrConfiguration},
		{"unknown format", src, QualityMedium, Format("bmp"), ErrConfiguration},
		{"missing source", filepath.Join(dir, "nope.png"), QualityMedium, FormatJPG, ErrNotFound},
		{"corrupt source", corrupt, QualityMedium, FormatJPG, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.ToFile(tt.src, dst, tt.quality, tt.format)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("no output file should be written on failure")
	}
}

func TestNormalizer_ToInline(t *testing.T) {
	n := NewNormalizer()
	dir := t.TempDir()
	src := writePNG(t, dir, "big.png", createPatternImage(2000, 1000))

	encoded, err := n.ToInline(src, QualityLow)
	if err != nil {
		t.Fatalf("ToInline failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("inline payload is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 768 || img.Bounds().Dy() != 384 {
		t.Errorf("dimensions: got %dx%d, want 768x384", img.Bounds().Dx(), img.Bounds().Dy())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("ToInline should not write files, dir has %d entries", len(entries))
	}
}

func TestNormalizer_ToInline_Errors(t *testing.T) {
	n := NewNormalizer()
	if _, err := n.ToInline("/nonexistent/image.png", QualityMedium); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	src := createTestImage(t, t.TempDir(), 4, 4, color.White)
	if _, err := n.ToInline(src, Quality("")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestNormalizer_NilBackgroundIsWhite(t *testing.T) {
	var n Normalizer
	if n.background() != color.White {
		t.Errorf("zero Normalizer background: got %v, want white", n.background())
	}
}
