package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
)

// ErrUnknownFormat is returned for an unsupported output encoding.
var ErrUnknownFormat = errors.New("unknown image format")

// Format names an output encoding.
type Format string

// Supported output encodings.
const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
// An empty name selects PNG.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "", "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Encode writes img to w. Quality applies to lossy WebP only.
func Encode(w io.Writer, img image.Image, format Format, quality float32) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		if err := webp.Encode(w, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
