// Package render plans and draws a track scene: a background image, the
// track polyline, a dashed segment to the destination and point markers.
package render

import "github.com/woozymasta/trackmap/internal/geo"

// Options is the user configuration of a panel. It is read-only for the
// duration of a render pass.
type Options struct {
	ImageURL string `json:"imageUrl" yaml:"imageUrl"`

	geo.Bounds `yaml:",inline"`

	DestLat  float64 `json:"destLat" yaml:"destLat"`
	DestLong float64 `json:"destLong" yaml:"destLong"`
}

// Destination returns the destination as a track point.
func (o Options) Destination() geo.GeoPoint {
	return geo.GeoPoint{Longitude: o.DestLong, Latitude: o.DestLat}
}
