package geo

import (
	"math"

	"github.com/golang/geo/r2"
)

// GeoPoint is a single (longitude, latitude) sample of a track.
type GeoPoint struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
}

// Finite reports whether both coordinates are finite numbers.
func (p GeoPoint) Finite() bool {
	return Finite(r2.Point{X: p.Longitude, Y: p.Latitude})
}

// Bounds is the geographic rectangle mapped onto the canvas extent.
// Corners are not validated: swapped corners mirror the projection.
type Bounds struct {
	TopLeftLat      float64 `json:"topLeftLat" yaml:"topLeftLat"`
	TopLeftLong     float64 `json:"topLeftLong" yaml:"topLeftLong"`
	BottomRightLat  float64 `json:"bottomRightLat" yaml:"bottomRightLat"`
	BottomRightLong float64 `json:"bottomRightLong" yaml:"bottomRightLong"`
}

// Scale maps value from the interval [inMin, inMax] onto [outMin, outMax].
//
// The result is not clamped, so values outside the input interval land
// outside the output interval. When inMin == inMax the result is NaN or
// infinite.
func Scale(value, inMin, inMax, outMin, outMax float64) float64 {
	return (value-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Project converts p to canvas pixel coordinates for a width x height
// surface with the origin at the top-left corner.
func (b Bounds) Project(p GeoPoint, width, height float64) r2.Point {
	return r2.Point{
		X: Scale(p.Longitude, b.TopLeftLong, b.BottomRightLong, 0, width),
		Y: Scale(p.Latitude, b.TopLeftLat, b.BottomRightLat, 0, height),
	}
}

// Degenerate reports whether either axis of the bounds has zero extent.
func (b Bounds) Degenerate() bool {
	return b.TopLeftLong == b.BottomRightLong || b.TopLeftLat == b.BottomRightLat
}

// Finite reports whether both pixel coordinates are finite numbers.
func Finite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
