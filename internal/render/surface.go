package render

import (
	"image"
	"image/color"

	"github.com/golang/geo/r2"
)

// Stroke describes how a path is outlined.
type Stroke struct {
	Color color.Color
	Dash  []float64
	Width float64
}

// Surface is a fixed-size drawing target.
type Surface interface {
	// Clear resets every pixel to transparent.
	Clear()
	// DrawBackground draws img stretched over the whole surface.
	DrawBackground(img image.Image)
	// StrokePath outlines the polyline through points.
	StrokePath(points []r2.Point, style Stroke)
	// FillCircle paints a filled disc.
	FillCircle(center r2.Point, radius float64, c color.Color)
}

var (
	trackStroke = Stroke{Color: TrackColor, Width: LineWidth}
	dashStroke  = Stroke{Color: TrackColor, Width: LineWidth, Dash: DashPattern}
)

// Draw issues the draw calls of scene on s in fixed order: background,
// track path, destination segment, markers. A nil background is skipped.
// Draw does not clear the surface.
func Draw(s Surface, background image.Image, scene Scene) {
	if background != nil {
		s.DrawBackground(background)
	}

	if scene.Variant == NoTrack {
		return
	}

	s.StrokePath(scene.Track, trackStroke)

	if scene.Dash != nil {
		s.StrokePath([]r2.Point{scene.Dash.From, scene.Dash.To}, dashStroke)
	}

	for _, m := range scene.Markers {
		s.FillCircle(m.Center, m.Radius, TrackColor)
	}
}

// Render clears s and draws scene on it.
func Render(s Surface, background image.Image, scene Scene) {
	s.Clear()
	Draw(s, background, scene)
}
