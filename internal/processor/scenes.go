// Package processor renders configured panels to files in batch.
package processor

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/woozymasta/trackmap/internal/config"
	"github.com/woozymasta/trackmap/internal/panel"
	"github.com/woozymasta/trackmap/internal/render"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/rs/zerolog/log"
)

// Renderer writes one scene file per panel.
type Renderer struct {
	Loader  panel.Loader
	Client  *http.Client
	OutDir  string
	Format  render.Format
	Quality float32
	Force   bool // overwrite existing files
}

// Outcome reports the result of rendering a single panel.
type Outcome struct {
	Err     error
	Name    string
	Path    string
	Scene   render.Scene
	Skipped bool // output existed and Force was not set
}

type job struct {
	Panel config.Panel
	Index int
}

// RenderAll renders panels with a pool of concurrency workers. Outcomes
// are returned in the order of panels.
func (r *Renderer) RenderAll(ctx context.Context, panels []config.Panel, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan job, len(panels))
	outcomes := make([]Outcome, len(panels))

	go func() {
		for i, p := range panels {
			jobs <- job{Panel: p, Index: i}
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				// each worker owns distinct indexes
				outcomes[j.Index] = r.RenderPanel(ctx, j.Panel)
			}
		}()
	}
	wg.Wait()

	return outcomes
}

// RenderPanel loads the panel's series and background and writes the scene
// to OutDir/<name>.<format>.
func (r *Renderer) RenderPanel(ctx context.Context, pc config.Panel) Outcome {
	out := Outcome{
		Name: pc.Name,
		Path: filepath.Join(r.OutDir, pc.Name+"."+string(r.Format)),
	}

	// Check existence if not forcing overwrite
	if !r.Force {
		if info, err := os.Stat(out.Path); err == nil && info.Size() > 0 {
			log.Debug().Str("panel", pc.Name).Str("path", out.Path).Msg("Scene file exists, skipping")
			out.Skipped = true
			return out
		}
	}

	frames, err := panelSeries(ctx, r.Client, pc)
	if err != nil {
		out.Err = err
		return out
	}

	points := series.Extract(frames)
	out.Scene = render.Plan(pc.Options, points, pc.Width, pc.Height)
	if out.Scene.Skipped > 0 {
		log.Warn().
			Str("panel", pc.Name).
			Int("skipped", out.Scene.Skipped).
			Msg("Track points with non-finite coordinates skipped")
	}

	bg, err := r.Loader.Load(ctx, pc.Options.ImageURL, pc.Width, pc.Height)
	if err != nil {
		out.Err = fmt.Errorf("load background %q: %w", pc.Options.ImageURL, err)
		return out
	}

	canvas := render.NewCanvas(pc.Width, pc.Height)
	render.Render(canvas, bg, out.Scene)

	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		out.Err = err
		return out
	}

	if err := writeScene(out.Path, canvas.Image(), r.Format, r.Quality); err != nil {
		out.Err = err
		return out
	}

	log.Info().
		Str("panel", pc.Name).
		Str("path", out.Path).
		Stringer("variant", out.Scene.Variant).
		Int("points", len(out.Scene.Track)).
		Msg("Scene rendered")

	return out
}

// panelSeries returns the inline series of the panel or loads its data
// source. A panel with neither has an empty track.
func panelSeries(ctx context.Context, client *http.Client, pc config.Panel) ([]series.Series, error) {
	// Inline Data Priority
	if pc.SeriesInline != nil {
		return pc.SeriesInline, nil
	}
	if pc.Data == "" {
		return nil, nil
	}

	frames, err := series.Load(ctx, client, pc.Data)
	if err != nil {
		return nil, fmt.Errorf("load series %q: %w", pc.Data, err)
	}
	return frames, nil
}

// writeScene encodes img next to path and renames it into place, so a
// failed encode never leaves a partial file that a later run would skip.
func writeScene(path string, img image.Image, format render.Format, quality float32) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := render.Encode(f, img, format, quality); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
