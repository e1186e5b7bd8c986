package server

import (
	"bytes"
	"context"
	"net/http"
	"sort"

	"github.com/woozymasta/trackmap/internal/config"
	"github.com/woozymasta/trackmap/internal/panel"
	"github.com/woozymasta/trackmap/internal/render"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	// base context of render passes, outlives single requests
	ctx context.Context

	Config        *config.Config
	Loader        panel.Loader
	Client        *http.Client
	Panels        map[string]*panel.Panel
	PanelResolver map[string]string
	IndexHTML     []byte
	Favicon       []byte
}

// NewServerContext initializes the context and the configured panels.
// Every panel gets its initial series (inline or from its data source) and
// a first render pass is started. Panels whose data cannot be read start
// with an empty track.
func NewServerContext(ctx context.Context, cfg *config.Config, loader panel.Loader, client *http.Client) (*ServerContext, error) {
	log.Info().Int("config_panels_count", len(cfg.Panels)).Msg("Initializing server context")

	sort.SliceStable(cfg.Panels, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if cfg.Panels[i].Index != nil {
			idxI = *cfg.Panels[i].Index
		}
		if cfg.Panels[j].Index != nil {
			idxJ = *cfg.Panels[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return cfg.Panels[i].Name < cfg.Panels[j].Name
	})

	resolver := make(map[string]string)
	panels := make(map[string]*panel.Panel, len(cfg.Panels))

	for _, pc := range cfg.Panels {
		resolver[pc.Name] = pc.Name
		for _, alias := range pc.Aliases {
			resolver[alias] = pc.Name
		}

		frames := pc.SeriesInline
		if frames == nil && pc.Data != "" {
			loaded, err := series.Load(ctx, client, pc.Data)
			if err != nil {
				log.Warn().
					Err(err).
					Str("panel", pc.Name).
					Str("data", pc.Data).
					Msg("Failed to load panel data, starting with empty track")
			} else {
				frames = loaded
			}
		}

		p := panel.New(pc.Name, loader)
		p.Update(ctx, panel.Input{
			Series:  frames,
			Options: pc.Options,
			Width:   pc.Width,
			Height:  pc.Height,
		})
		panels[pc.Name] = p

		log.Debug().
			Str("panel", pc.Name).
			Int("width", pc.Width).
			Int("height", pc.Height).
			Int("points", len(p.Points())).
			Msg("Panel added to context")
	}

	index, err := buildIndex(cfg.Panels)
	if err != nil {
		return nil, err
	}

	favicon, err := buildFavicon()
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("panels_count", len(panels)).
		Int("index_bytes", len(index)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		ctx:           ctx,
		Config:        cfg,
		Loader:        loader,
		Client:        client,
		Panels:        panels,
		PanelResolver: resolver,
		IndexHTML:     index,
		Favicon:       favicon,
	}, nil
}

// panel resolves a name or alias.
func (s *ServerContext) panel(name string) (*panel.Panel, bool) {
	target, ok := s.PanelResolver[name]
	if !ok {
		return nil, false
	}
	p, ok := s.Panels[target]
	return p, ok
}

// buildFavicon draws a destination marker on a transparent square.
func buildFavicon() ([]byte, error) {
	const size = 32

	canvas := render.NewCanvas(size, size)
	canvas.StrokePath([]r2.Point{{X: 4, Y: 28}, {X: 16, Y: 16}}, render.Stroke{Color: render.TrackColor, Width: 3})
	canvas.StrokePath([]r2.Point{{X: 16, Y: 16}, {X: 28, Y: 4}}, render.Stroke{Color: render.TrackColor, Width: 3, Dash: []float64{4, 3}})
	canvas.FillCircle(r2.Point{X: 16, Y: 16}, 7, render.TrackColor)

	var buf bytes.Buffer
	if err := render.Encode(&buf, canvas.Image(), render.FormatPNG, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
