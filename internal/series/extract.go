package series

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/woozymasta/trackmap/internal/geo"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

const (
	lonPrefix = "lon"
	latPrefix = "lat"
)

// Extract zips the longitude and latitude columns of every series into
// track points, in series order and then row order.
//
// A series contributes only when it has both a field starting with "lon"
// and one starting with "lat". Rows follow the longitude column; a missing
// latitude entry becomes NaN.
func Extract(frames []Series) []geo.GeoPoint {
	points := make([]geo.GeoPoint, 0)

	for i, s := range frames {
		lon, okLon := s.FindField(lonPrefix)
		lat, okLat := s.FindField(latPrefix)
		if !okLon || !okLat {
			log.Debug().
				Int("series", i).
				Str("name", s.Name).
				Bool("lon", okLon).
				Bool("lat", okLat).
				Msg("Series skipped: coordinate fields not found")
			continue
		}

		for row, x := range lon.Values {
			y := math.NaN()
			if row < len(lat.Values) {
				y = lat.Values[row]
			}
			points = append(points, geo.GeoPoint{Longitude: x, Latitude: y})
		}
	}

	return points
}

// Extractor memoizes Extract for the most recent input. The cache key is a
// digest of the series content, so an equal input returns the cached
// slice without walking the rows again. Returned slices must not be
// modified.
type Extractor struct {
	mu     sync.Mutex
	key    uint64
	valid  bool
	points []geo.GeoPoint
	hits   uint64
}

// Points returns the track points of frames, recomputing them only when
// the content differs from the previous call.
func (e *Extractor) Points(frames []Series) []geo.GeoPoint {
	key := Digest(frames)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && e.key == key {
		e.hits++
		return e.points
	}

	e.points = Extract(frames)
	e.key = key
	e.valid = true

	return e.points
}

// Hits reports how many calls were served from the cache.
func (e *Extractor) Hits() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits
}

// Digest hashes names and values of every series.
func Digest(frames []Series) uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeLen := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}

	writeLen(len(frames))
	for _, s := range frames {
		writeLen(len(s.Name))
		_, _ = h.WriteString(s.Name)
		writeLen(len(s.Fields))
		for _, f := range s.Fields {
			writeLen(len(f.Name))
			_, _ = h.WriteString(f.Name)
			writeLen(len(f.Values))
			for _, v := range f.Values {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				_, _ = h.Write(buf[:])
			}
		}
	}

	return h.Sum64()
}
