package background

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const greenSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
  <rect x="0" y="0" width="10" height="10" fill="#00ff00"/>
</svg>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoaderHTTP(t *testing.T) {
	plan := pngBytes(t, 7, 5)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/plan.png":
			_, _ = w.Write(plan)
		case "/plan":
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = w.Write([]byte(greenSVG))
		case "/garbage.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(srv.Client())
	ctx := context.Background()

	img, err := l.Load(ctx, srv.URL+"/plan.png", 100, 100)
	if err != nil {
		t.Fatalf("Load(png): %v", err)
	}
	if img.Bounds().Dx() != 7 || img.Bounds().Dy() != 5 {
		t.Fatalf("png bounds = %v; want 7x5", img.Bounds())
	}

	img, err = l.Load(ctx, srv.URL+"/plan", 20, 20)
	if err != nil {
		t.Fatalf("Load(svg): %v", err)
	}
	if img.Bounds().Dx() != 20 {
		t.Fatalf("svg rasterised to %v; want 20x20", img.Bounds())
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r > 0x0800 || g < 0xf000 || b > 0x0800 {
		t.Fatalf("svg centre = %v; want green", img.At(10, 10))
	}

	failures := []string{"/missing.png", "/garbage.png"}
	for _, path := range failures {
		if _, err := l.Load(ctx, srv.URL+path, 10, 10); err == nil {
			t.Fatalf("Load(%s) succeeded; want error", path)
		}
	}

	if hits.Load() != 4 {
		t.Fatalf("server hits = %d; want 4", hits.Load())
	}
}

func TestLoaderFile(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "plan.png")
	svgPath := filepath.Join(dir, "plan.svg")

	if err := os.WriteFile(pngPath, pngBytes(t, 3, 2), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(svgPath, []byte(greenSVG), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		source string
		w, h   int
	}{
		{"plain path", pngPath, 3, 2},
		{"file url", "file://" + pngPath, 3, 2},
		{"svg at requested size", svgPath, 30, 15},
		{"svg at own size", svgPath, 10, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reqW, reqH := tc.w, tc.h
			if tc.name == "svg at own size" {
				reqW, reqH = 0, 0
			}

			img, err := l.Load(ctx, tc.source, reqW, reqH)
			if err != nil {
				t.Fatalf("Load(%s): %v", tc.source, err)
			}
			if img.Bounds().Dx() != tc.w || img.Bounds().Dy() != tc.h {
				t.Fatalf("bounds = %v; want %dx%d", img.Bounds(), tc.w, tc.h)
			}
		})
	}

	if _, err := l.Load(ctx, filepath.Join(dir, "none.png"), 1, 1); err == nil {
		t.Fatalf("Load of a missing file succeeded")
	}
	if _, err := l.Load(ctx, "", 1, 1); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Load of an empty source err = %v; want ErrNoSource", err)
	}
}

func TestLoaderCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLoader(srv.Client()).Load(ctx, srv.URL+"/slow.png", 1, 1); err == nil {
		t.Fatalf("Load with a cancelled context succeeded")
	}
}

// blockingServer serves a 4x4 PNG once unblock is called and counts hits.
func blockingServer(t *testing.T) (srv *httptest.Server, hits *atomic.Int32, unblock func()) {
	t.Helper()

	plan := pngBytes(t, 4, 4)
	release := make(chan struct{})
	var once sync.Once
	hits = new(atomic.Int32)

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write(plan)
	}))

	unblock = func() { once.Do(func() { close(release) }) }
	t.Cleanup(func() {
		unblock()
		srv.Close()
	})

	return srv, hits, unblock
}

func waitHits(t *testing.T, hits *atomic.Int32, want int32) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("server hits = %d; want %d", hits.Load(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoaderSharesConcurrentFetch(t *testing.T) {
	srv, hits, unblock := blockingServer(t)
	l := NewLoader(srv.Client())
	url := srv.URL + "/shared.png"

	const callers = 8
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			img, err := l.Load(context.Background(), url, 4, 4)
			if err == nil && img.Bounds().Dx() != 4 {
				err = errors.New("unexpected image size")
			}
			results <- err
		}()
	}

	waitHits(t, hits, 1)
	// let the other callers join the fetch in flight
	time.Sleep(100 * time.Millisecond)
	unblock()

	for i := 0; i < callers; i++ {
		if err := <-results; err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits = %d; want 1", hits.Load())
	}
}

func TestLoaderCancelledCallerKeepsSharedFetch(t *testing.T) {
	srv, hits, unblock := blockingServer(t)
	l := NewLoader(srv.Client())
	url := srv.URL + "/shared.png"

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, url, 4, 4)
		first <- err
	}()
	waitHits(t, hits, 1)

	second := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), url, 4, 4)
		second <- err
	}()
	time.Sleep(100 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v; want context.Canceled", err)
	}

	unblock()
	if err := <-second; err != nil {
		t.Fatalf("remaining caller failed after another cancelled: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits = %d; want 1", hits.Load())
	}
}

func TestIsSVG(t *testing.T) {
	cases := []struct {
		name        string
		data        string
		contentType string
		source      string
		expected    bool
	}{
		{"content type", "", "image/svg+xml; charset=utf-8", "x", true},
		{"extension", "", "", "https://h/floor.SVG?v=1", true},
		{"sniffed", "  <svg></svg>", "", "x", true},
		{"xml prolog", `<?xml version="1.0"?><svg/>`, "", "x", true},
		{"png", "\x89PNG", "image/png", "x.png", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSVG([]byte(tc.data), tc.contentType, tc.source); got != tc.expected {
				t.Fatalf("isSVG = %v; want %v", got, tc.expected)
			}
		})
	}
}
