// Package geo handles geographic data structures and the linear mapping
// from geographic bounds to pixel space.
package geo

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature.
// Coordinates is []float64 for a Point and [][]float64 for a LineString,
// always in [Lon, Lat] order.
type GeoJSONGeometry struct {
	Type        string      `json:"type" yaml:"type"`
	Coordinates interface{} `json:"coordinates" yaml:"coordinates"`
}

// TrackCollection builds a feature collection holding the track as a
// LineString, one Point per sample and the destination as a final Point.
// Samples and a destination with non-finite coordinates are left out.
func TrackCollection(points []GeoPoint, dest GeoPoint) GeoJSONFeatureCollection {
	valid := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		if p.Finite() {
			valid = append(valid, p)
		}
	}
	points = valid

	fc := GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(points)+2),
	}

	if len(points) > 1 {
		line := make([][]float64, 0, len(points))
		for _, p := range points {
			line = append(line, []float64{p.Longitude, p.Latitude})
		}
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONGeometry{
				Type:        "LineString",
				Coordinates: line,
			},
			Properties: map[string]interface{}{
				"type": "track",
			},
		})
	}

	for i, p := range points {
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONGeometry{
				Type:        "Point",
				Coordinates: []float64{p.Longitude, p.Latitude},
			},
			Properties: map[string]interface{}{
				"type":  "sample",
				"index": i,
				"last":  i == len(points)-1,
			},
		})
	}

	if !dest.Finite() {
		return fc
	}

	fc.Features = append(fc.Features, GeoJSONFeature{
		Type: "Feature",
		Geometry: GeoJSONGeometry{
			Type:        "Point",
			Coordinates: []float64{dest.Longitude, dest.Latitude},
		},
		Properties: map[string]interface{}{
			"type": "destination",
		},
	})

	return fc
}
