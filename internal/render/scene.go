package render

import (
	"image/color"

	"github.com/woozymasta/trackmap/internal/geo"

	"github.com/golang/geo/r2"
)

// Drawing constants of a scene.
const (
	LineWidth        = 2.0
	MarkerRadius     = 3.0
	LastMarkerRadius = 5.0
)

var (
	// TrackColor is used for the path, the dashed segment and markers.
	TrackColor = color.RGBA{R: 255, A: 255}

	// DashPattern is the on/off pattern of the destination segment.
	DashPattern = []float64{10, 5}
)

// Variant distinguishes scenes with and without a drawable track.
type Variant int

const (
	// NoTrack scenes draw the background only.
	NoTrack Variant = iota
	// HasTrack scenes draw path, destination segment and markers.
	HasTrack
)

func (v Variant) String() string {
	if v == HasTrack {
		return "has_track"
	}
	return "no_track"
}

// Segment is a straight line between two pixel positions.
type Segment struct {
	From r2.Point
	To   r2.Point
}

// Marker is a filled circle at a track point.
type Marker struct {
	Center r2.Point
	Radius float64
}

// Scene is the draw list of one render pass, in pixel space.
type Scene struct {
	Track   []r2.Point
	Markers []Marker
	Dash    *Segment

	Width   int
	Height  int
	Variant Variant

	// Skipped counts track points whose projection was not finite.
	Skipped int
	// DashSkipped is set when the destination projection was not finite.
	DashSkipped bool
	// Degenerate is set when the bounds have zero extent on an axis.
	Degenerate bool
}

// Plan projects points and the destination of opts onto a width x height
// canvas. It has no side effects.
//
// Points that do not project to finite coordinates are left out of the
// path and the markers. When no point survives the scene is NoTrack: no
// path, no destination segment and no markers.
func Plan(opts Options, points []geo.GeoPoint, width, height int) Scene {
	scene := Scene{
		Width:      width,
		Height:     height,
		Variant:    NoTrack,
		Degenerate: opts.Degenerate(),
	}

	w, h := float64(width), float64(height)

	track := make([]r2.Point, 0, len(points))
	for _, p := range points {
		px := opts.Project(p, w, h)
		if !geo.Finite(px) {
			scene.Skipped++
			continue
		}
		track = append(track, px)
	}

	if len(track) == 0 {
		return scene
	}

	scene.Variant = HasTrack
	scene.Track = track

	dest := opts.Project(opts.Destination(), w, h)
	if geo.Finite(dest) {
		scene.Dash = &Segment{From: track[len(track)-1], To: dest}
	} else {
		scene.DashSkipped = true
	}

	scene.Markers = make([]Marker, len(track))
	for i, px := range track {
		radius := MarkerRadius
		if i == len(track)-1 {
			radius = LastMarkerRadius
		}
		scene.Markers[i] = Marker{Center: px, Radius: radius}
	}

	return scene
}
