// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/trackmap/internal/config"
	"github.com/woozymasta/trackmap/internal/geo"
	"github.com/woozymasta/trackmap/internal/panel"
	"github.com/woozymasta/trackmap/internal/render"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

const (
	// MaxRenderSize bounds both sides of a one-shot render.
	MaxRenderSize = 8192
	// maxBodySize bounds uploaded series and option documents.
	maxBodySize = 16 << 20
)

type panelInfo struct {
	Name       string         `json:"name"`
	Aliases    []string       `json:"aliases,omitempty"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Options    render.Options `json:"options"`
	Points     int            `json:"points"`
	Generation uint64         `json:"generation"`
	Drawn      uint64         `json:"drawn"`
	Error      string         `json:"error,omitempty"`
}

type renderRequest struct {
	Series  []series.Series `json:"series"`
	Options render.Options  `json:"options"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
}

type passInfo struct {
	Generation uint64 `json:"generation"`
	Variant    string `json:"variant,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HandlePanelsList serves the configured panels and their pass state.
func (s *ServerContext) HandlePanelsList(w http.ResponseWriter, r *http.Request) {
	list := make([]panelInfo, 0, len(s.Config.Panels))
	for _, pc := range s.Config.Panels {
		p, ok := s.Panels[pc.Name]
		if !ok {
			continue
		}

		in := p.Input()
		st := p.Status()
		info := panelInfo{
			Name:       pc.Name,
			Aliases:    pc.Aliases,
			Width:      in.Width,
			Height:     in.Height,
			Options:    in.Options,
			Points:     len(p.Points()),
			Generation: st.Generation,
			Drawn:      st.Drawn,
		}
		if st.LastErr != nil {
			info.Error = st.LastErr.Error()
		}
		list = append(list, info)
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleSchema serves the panel options schema.
func (s *ServerContext) HandleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.OptionsSchema())
}

// HandleRender renders a scene from a self-contained request without
// touching any hosted panel.
func (s *ServerContext) HandleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req renderRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "invalid render request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > MaxRenderSize || req.Height > MaxRenderSize {
		http.Error(w, "width and height must be within 1.."+strconv.Itoa(MaxRenderSize), http.StatusBadRequest)
		return
	}

	points := series.Extract(req.Series)
	scene := render.Plan(req.Options, points, req.Width, req.Height)

	bg, err := s.Loader.Load(r.Context(), req.Options.ImageURL, req.Width, req.Height)
	if err != nil {
		log.Error().Err(err).Str("image", req.Options.ImageURL).Msg("Background load failed for one-shot render")
		http.Error(w, "load background: "+err.Error(), http.StatusBadGateway)
		return
	}

	canvas := render.NewCanvas(req.Width, req.Height)
	render.Render(canvas, bg, scene)

	var buf bytes.Buffer
	if err := render.Encode(&buf, canvas.Image(), format, s.Config.WebPQuality); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Track-Variant", scene.Variant.String())
	_, _ = w.Write(buf.Bytes())
}

// HandlePanel serves and updates a single hosted panel.
func (s *ServerContext) HandlePanel(w http.ResponseWriter, r *http.Request) {
	// Path: /panels/{name}/{resource}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}

	p, ok := s.panel(parts[1])
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch resource := parts[2]; resource {
	case "data":
		s.handleData(w, r, p)
	case "options":
		s.handleOptions(w, r, p)
	case "track.geojson":
		s.handleTrack(w, r, p)
	case "scene.png", "scene.webp":
		format, _ := render.ParseFormat(strings.TrimPrefix(resource, "scene."))
		s.handleScene(w, r, p, format)
	default:
		http.NotFound(w, r)
	}
}

func (s *ServerContext) handleData(w http.ResponseWriter, r *http.Request, p *panel.Panel) {
	if !allowUpdate(w, r) {
		return
	}

	format := series.FormatJSON
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch ct {
		case "text/csv":
			format = series.FormatCSV
		case "application/geo+json":
			format = series.FormatGeoJSON
		}
	}

	frames, err := series.Decode(io.LimitReader(r.Body, maxBodySize), format)
	if err != nil {
		http.Error(w, "invalid series: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.respondPass(w, r, p.SetSeries(s.ctx, frames))
}

func (s *ServerContext) handleOptions(w http.ResponseWriter, r *http.Request, p *panel.Panel) {
	if !allowUpdate(w, r) {
		return
	}

	var opts render.Options
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&opts); err != nil {
		http.Error(w, "invalid options: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.respondPass(w, r, p.SetOptions(s.ctx, opts))
}

// respondPass answers an update. With ?wait=1 it blocks until the pass
// completes; otherwise it returns 202 with the generation of the pass.
func (s *ServerContext) respondPass(w http.ResponseWriter, r *http.Request, pass panel.Pass) {
	// rejected inputs complete immediately
	if pass.Generation != 0 && r.URL.Query().Get("wait") != "1" {
		writeJSON(w, http.StatusAccepted, passInfo{Generation: pass.Generation})
		return
	}

	select {
	case res := <-pass.Done:
		info := passInfo{
			Generation: res.Generation,
			Variant:    res.Scene.Variant.String(),
			Skipped:    res.Scene.Skipped,
		}

		status := http.StatusOK
		switch {
		case errors.Is(res.Err, panel.ErrStale):
			info.Error = res.Err.Error()
			status = http.StatusConflict
		case errors.Is(res.Err, panel.ErrInvalidSize):
			info.Error = res.Err.Error()
			status = http.StatusBadRequest
		case res.Err != nil:
			info.Error = res.Err.Error()
			status = http.StatusBadGateway
		}
		writeJSON(w, status, info)

	case <-r.Context().Done():
		// client went away, the pass keeps running
	}
}

func (s *ServerContext) handleScene(w http.ResponseWriter, r *http.Request, p *panel.Panel, format render.Format) {
	frame, err := p.Frame()
	if errors.Is(err, panel.ErrNotRendered) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	etag := `"` + strconv.FormatUint(frame.Generation, 16) + "-" + string(format) + `"`
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, frame.Image, format, s.Config.WebPQuality); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Last-Modified", frame.DrawnAt.UTC().Format(http.TimeFormat))
	w.Header().Set("X-Track-Variant", frame.Scene.Variant.String())
	_, _ = w.Write(buf.Bytes())
}

func (s *ServerContext) handleTrack(w http.ResponseWriter, r *http.Request, p *panel.Panel) {
	in := p.Input()
	fc := geo.TrackCollection(p.Points(), in.Options.Destination())

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(fc)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/favicon.ico" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the preview page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(s.IndexHTML), 16) + `"`

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

func allowUpdate(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPut || r.Method == http.MethodPost {
		return true
	}

	w.Header().Set("Allow", "PUT, POST")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
