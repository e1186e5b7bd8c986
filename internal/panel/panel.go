// Package panel hosts one widget instance: its inputs, its drawing surface
// and the render passes that redraw the surface when the inputs change.
package panel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/woozymasta/trackmap/internal/geo"
	"github.com/woozymasta/trackmap/internal/metrics"
	"github.com/woozymasta/trackmap/internal/render"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/rs/zerolog/log"
)

var (
	// ErrStale marks a pass whose background arrived after a newer pass started.
	ErrStale = errors.New("render pass superseded")
	// ErrNotRendered is returned by Frame before any pass has been drawn.
	ErrNotRendered = errors.New("panel not rendered yet")
	// ErrInvalidSize rejects inputs without a positive width and height.
	ErrInvalidSize = errors.New("invalid panel size")
)

// Loader fetches the background image of a pass.
type Loader interface {
	Load(ctx context.Context, source string, width, height int) (image.Image, error)
}

// Input is everything the host supplies for one render pass.
type Input struct {
	Series  []series.Series
	Options render.Options
	Width   int
	Height  int
}

// Result reports the outcome of one pass.
type Result struct {
	Err        error
	Scene      render.Scene
	Generation uint64
}

// Pass is a started render pass. Generation is zero when the inputs were
// rejected before a pass could start.
type Pass struct {
	Done       <-chan Result
	Generation uint64
}

// Frame is a completed drawing of the surface.
type Frame struct {
	Image      *image.RGBA
	Scene      render.Scene
	Generation uint64
	DrawnAt    time.Time
}

// Status summarises the pass bookkeeping of a panel.
type Status struct {
	LastErr    error
	Generation uint64
	Drawn      uint64
}

// Panel is a single hosted widget. All methods are safe for concurrent use.
type Panel struct {
	loader    Loader
	extractor series.Extractor
	name      string

	mu         sync.Mutex
	input      Input
	points     []geo.GeoPoint
	canvas     *render.Canvas
	frame      *Frame
	lastErr    error
	generation uint64
}

// New creates an idle panel. No pass runs until Update is called.
func New(name string, loader Loader) *Panel {
	return &Panel{name: name, loader: loader}
}

// Name returns the panel name.
func (p *Panel) Name() string { return p.name }

// Update replaces every input and starts a render pass.
//
// The surface is cleared synchronously; the background is then loaded in
// the background and the scene is drawn once it arrives, unless a newer
// pass started in the meantime. ctx bounds the background load. The
// Done channel of the returned pass receives exactly one Result.
func (p *Panel) Update(ctx context.Context, in Input) Pass {
	return p.start(ctx, func(cur *Input) { *cur = in })
}

// SetSeries replaces the data series and starts a pass.
func (p *Panel) SetSeries(ctx context.Context, frames []series.Series) Pass {
	return p.start(ctx, func(cur *Input) { cur.Series = frames })
}

// SetOptions replaces the options and starts a pass.
func (p *Panel) SetOptions(ctx context.Context, opts render.Options) Pass {
	return p.start(ctx, func(cur *Input) { cur.Options = opts })
}

// Resize changes the surface size and starts a pass.
func (p *Panel) Resize(ctx context.Context, width, height int) Pass {
	return p.start(ctx, func(cur *Input) { cur.Width, cur.Height = width, height })
}

func (p *Panel) start(ctx context.Context, mutate func(*Input)) Pass {
	done := make(chan Result, 1)

	p.mu.Lock()
	in := p.input
	mutate(&in)

	if in.Width <= 0 || in.Height <= 0 {
		p.mu.Unlock()
		done <- Result{Err: fmt.Errorf("%w: %dx%d", ErrInvalidSize, in.Width, in.Height)}
		close(done)
		return Pass{Done: done}
	}

	points := p.extractor.Points(in.Series)
	scene := render.Plan(in.Options, points, in.Width, in.Height)

	p.generation++
	gen := p.generation
	p.input = in
	p.points = points
	if p.canvas == nil || p.canvas.Width() != in.Width || p.canvas.Height() != in.Height {
		p.canvas = render.NewCanvas(in.Width, in.Height)
	}
	p.canvas.Clear()
	p.mu.Unlock()

	metrics.RenderPasses.WithLabelValues(p.name).Inc()
	p.logPlan(gen, scene, len(points))

	go func() {
		start := time.Now()
		bg, err := p.loader.Load(ctx, in.Options.ImageURL, in.Width, in.Height)
		metrics.BackgroundLoadDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

		done <- p.complete(gen, scene, bg, err)
		close(done)
	}()

	return Pass{Done: done, Generation: gen}
}

func (p *Panel) complete(gen uint64, scene render.Scene, bg image.Image, err error) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := Result{Generation: gen, Scene: scene}

	if gen != p.generation {
		res.Err = ErrStale
		metrics.RenderResults.WithLabelValues(p.name, "stale").Inc()
		log.Debug().
			Str("panel", p.name).
			Uint64("generation", gen).
			Uint64("current", p.generation).
			Msg("Stale render pass discarded")
		return res
	}

	if err != nil {
		res.Err = fmt.Errorf("load background: %w", err)
		p.lastErr = res.Err
		metrics.RenderResults.WithLabelValues(p.name, "failed").Inc()
		log.Error().
			Err(err).
			Str("panel", p.name).
			Str("image", p.input.Options.ImageURL).
			Uint64("generation", gen).
			Msg("Background load failed, pass aborted")
		return res
	}

	render.Draw(p.canvas, bg, scene)

	p.lastErr = nil
	p.frame = &Frame{
		Image:      p.canvas.Snapshot(),
		Scene:      scene,
		Generation: gen,
		DrawnAt:    time.Now(),
	}

	metrics.RenderResults.WithLabelValues(p.name, "drawn").Inc()
	log.Debug().
		Str("panel", p.name).
		Uint64("generation", gen).
		Stringer("variant", scene.Variant).
		Int("points", len(scene.Track)).
		Msg("Render pass completed")

	return res
}

func (p *Panel) logPlan(gen uint64, scene render.Scene, points int) {
	if scene.Degenerate {
		log.Warn().
			Str("panel", p.name).
			Uint64("generation", gen).
			Msg("Bounds have zero extent, coordinates are not finite")
	}

	if scene.Skipped > 0 {
		metrics.SkippedPoints.WithLabelValues(p.name).Add(float64(scene.Skipped))
		log.Warn().
			Str("panel", p.name).
			Uint64("generation", gen).
			Int("skipped", scene.Skipped).
			Int("points", points).
			Msg("Track points with non-finite coordinates skipped")
	}

	if scene.DashSkipped {
		log.Warn().
			Str("panel", p.name).
			Uint64("generation", gen).
			Msg("Destination has non-finite coordinates, segment skipped")
	}
}

// Input returns a copy of the current inputs.
func (p *Panel) Input() Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// Points returns the track points of the current inputs.
func (p *Panel) Points() []geo.GeoPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.points
}

// Frame returns the most recently drawn frame.
func (p *Panel) Frame() (Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frame == nil {
		return Frame{}, ErrNotRendered
	}
	return *p.frame, nil
}

// Status returns the generation counters and the error of the last
// current pass, if it failed.
func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{Generation: p.generation, LastErr: p.lastErr}
	if p.frame != nil {
		st.Drawn = p.frame.Generation
	}
	return st
}
