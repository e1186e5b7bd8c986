package series

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnknownFormat is returned when a data source cannot be matched to a decoder.
var ErrUnknownFormat = errors.New("unknown series format")

// Format names a series encoding.
type Format string

// Supported series encodings.
const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
)

// Decode parses r with the decoder for format.
func Decode(r io.Reader, format Format) ([]Series, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatCSV:
		return DecodeCSV(r)
	case FormatGeoJSON:
		return DecodeGeoJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DecodeJSON reads either an array of series or an object with a
// "series" array.
func DecodeJSON(r io.Reader) ([]Series, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var frames []Series
		if err := json.Unmarshal(trimmed, &frames); err != nil {
			return nil, fmt.Errorf("decode series: %w", err)
		}
		return frames, nil
	}

	var wrapper struct {
		Series []Series `json:"series"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}

	return wrapper.Series, nil
}

// DecodeCSV reads one series: the header row names the fields, every
// following row is one sample. Cells that are not numbers become NaN.
func DecodeCSV(r io.Reader) ([]Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("decode csv: empty input")
	}

	header := records[0]
	s := Series{Fields: make([]Field, len(header))}
	for i, name := range header {
		s.Fields[i] = Field{
			Name:   strings.TrimSpace(name),
			Values: make(Values, 0, len(records)-1),
		}
	}

	for _, row := range records[1:] {
		for i := range s.Fields {
			v := math.NaN()
			if i < len(row) {
				v = parseCell(row[i])
			}
			s.Fields[i].Values = append(s.Fields[i].Values, v)
		}
	}

	return []Series{s}, nil
}

type geoJSONInput struct {
	Type     string `json:"type"`
	Features []struct {
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

// DecodeGeoJSON turns Point and LineString features into a single series
// with "longitude" and "latitude" fields, in feature order. Features whose
// "type" property is "destination" are skipped. When a "track" LineString
// is present, the "sample" Points that repeat its vertices are skipped too.
func DecodeGeoJSON(r io.Reader) ([]Series, error) {
	var fc geoJSONInput
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	hasTrack := false
	for _, f := range fc.Features {
		if kind, _ := f.Properties["type"].(string); kind == "track" && f.Geometry.Type == "LineString" {
			hasTrack = true
			break
		}
	}

	lon := Field{Name: "longitude"}
	lat := Field{Name: "latitude"}

	add := func(c []float64) {
		if len(c) < 2 {
			return
		}
		lon.Values = append(lon.Values, c[0])
		lat.Values = append(lat.Values, c[1])
	}

	for _, f := range fc.Features {
		kind, _ := f.Properties["type"].(string)
		if kind == "destination" || (hasTrack && kind == "sample") {
			continue
		}

		switch f.Geometry.Type {
		case "Point":
			var c []float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &c); err != nil {
				return nil, fmt.Errorf("decode geojson point: %w", err)
			}
			add(c)
		case "LineString":
			var line [][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &line); err != nil {
				return nil, fmt.Errorf("decode geojson line: %w", err)
			}
			for _, c := range line {
				add(c)
			}
		default:
			log.Debug().Str("geometry", f.Geometry.Type).Msg("GeoJSON geometry skipped")
		}
	}

	return []Series{{Name: "geojson", Fields: []Field{lon, lat}}}, nil
}

// DetectFormat guesses the encoding from a file name or URL path.
func DetectFormat(name string) (Format, error) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".geojson":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// Load reads series from a URL or a local file. The format is detected
// from the extension of src.
func Load(ctx context.Context, client *http.Client, src string) ([]Series, error) {
	format, err := DetectFormat(src)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return fetch(ctx, client, src, format)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return Decode(f, format)
}

func fetch(ctx context.Context, client *http.Client, url string, format Format) ([]Series, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return Decode(resp.Body, format)
}
