// Package background fetches and decodes the image drawn under a scene.
package background

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// maxBodySize caps a downloaded background at 64 MiB.
const maxBodySize = 64 << 20

// ErrNoSource is returned for an empty image source.
var ErrNoSource = errors.New("empty image source")

// Loader reads background images from HTTP(S) URLs, file:// URLs or local
// paths. Concurrent loads of the same source share one fetch.
type Loader struct {
	client *http.Client
	group  singleflight.Group
}

// NewLoader returns a Loader using client for remote sources.
// A nil client falls back to http.DefaultClient.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client}
}

// Load fetches source and decodes it. Raster formats keep their own size;
// SVG documents are rasterised at width x height.
func (l *Loader) Load(ctx context.Context, source string, width, height int) (image.Image, error) {
	key := fmt.Sprintf("%s@%dx%d", source, width, height)

	// shared fetch outlives a single caller; the client timeout bounds it
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		return l.load(shared, source, width, height)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func (l *Loader) load(ctx context.Context, source string, width, height int) (image.Image, error) {
	if source == "" {
		return nil, ErrNoSource
	}

	data, contentType, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	if isSVG(data, contentType, source) {
		img, err := rasterSVG(data, width, height)
		if err != nil {
			return nil, fmt.Errorf("decode svg: %w", err)
		}
		log.Debug().Str("source", source).Str("format", "svg").Msg("Background decoded")
		return img, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	log.Debug().
		Str("source", source).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Background decoded")

	return img, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", err
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("download failed: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, "", err
		}

		return data, resp.Header.Get("Content-Type"), nil
	}

	data, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return nil, "", err
	}

	return data, "", nil
}

func isSVG(data []byte, contentType, source string) bool {
	if strings.HasPrefix(contentType, "image/svg+xml") {
		return true
	}

	path := source
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(strings.ToLower(path), ".svg") {
		return true
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimSpace(head)

	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")))
}

func rasterSVG(data []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}

	if width <= 0 || height <= 0 {
		width, height = int(icon.ViewBox.W), int(icon.ViewBox.H)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg has no size and none was requested")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.SetTarget(0, 0, float64(width), float64(height))

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)

	return img, nil
}
