// Package qr turns payment strings into scannable QR code images.
package qr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Format is the raster output format.
type Format string

// FormatPNG is the only output format currently produced.
const FormatPNG Format = "png"

// DataURIPrefix heads every PNG data URI.
const DataURIPrefix = "data:image/png;base64,"

var (
	// ErrUnsupportedFormat is returned for any format other than PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidSize is returned when the requested pixel size cannot hold the
	// symbol and its margin, or when size or margin are negative.
	ErrInvalidSize = errors.New("invalid image size")

	// ErrInvalidLevel is returned for an unknown error-correction level name.
	ErrInvalidLevel = errors.New("invalid error correction level")
)

// Options configures rasterization.
type Options struct {
	Format Format
	Size   int // edge length in pixels
	Margin int // quiet zone in modules
	Level  qrcode.RecoveryLevel
}

// DefaultOptions returns PNG output, 300px, a 2 module margin and error
// correction level H (go-qrcode calls it Highest, about 30% recovery).
func DefaultOptions() Options {
	return Options{
		Format: FormatPNG,
		Size:   300,
		Margin: 2,
		Level:  qrcode.Highest,
	}
}

// Rasterizer renders a payload string into raw image bytes.
type Rasterizer interface {
	Rasterize(payload string, opts Options) ([]byte, error)
}

// Encoder is a Rasterizer backed by go-qrcode.
type Encoder struct{}

// NewEncoder returns a ready Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Rasterize implements Rasterizer.
//
// The symbol is drawn with whole-pixel modules, centred, so the quiet zone is
// at least Margin modules wide and the image is exactly Size pixels square.
func (e *Encoder) Rasterize(payload string, opts Options) ([]byte, error) {
	if opts.Format != FormatPNG {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	if opts.Size <= 0 || opts.Margin < 0 {
		return nil, fmt.Errorf("%w: size %d, margin %d", ErrInvalidSize, opts.Size, opts.Margin)
	}

	code, err := qrcode.New(payload, opts.Level)
	if err != nil {
		return nil, fmt.Errorf("qr: encode payload: %w", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap) + 2*opts.Margin
	scale := opts.Size / modules
	if scale < 1 {
		return nil, fmt.Errorf("%w: %d modules do not fit in %dpx", ErrInvalidSize, modules, opts.Size)
	}
	offset := (opts.Size - len(bitmap)*scale) / 2

	img := image.NewPaletted(image.Rect(0, 0, opts.Size, opts.Size), color.Palette{color.White, color.Black})
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0, y0 := offset+x*scale, offset+y*scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qr: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps PNG bytes in a base64 data URI.
func DataURI(pngData []byte) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// ParseLevel maps a QR error-correction level (L, M, Q or H, or the words
// low, medium, quartile, high) to a go-qrcode recovery level.
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "l", "low":
		return qrcode.Low, nil
	case "m", "medium":
		return qrcode.Medium, nil
	case "q", "quartile":
		return qrcode.High, nil
	case "h", "high":
		return qrcode.Highest, nil
	}
	return qrcode.Low, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
}
