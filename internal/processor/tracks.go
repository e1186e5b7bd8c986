package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/woozymasta/trackmap/internal/config"
	"github.com/woozymasta/trackmap/internal/geo"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/rs/zerolog/log"
)

// ExportTrack writes the panel track and destination as GeoJSON to
// outDir/<name>.geojson.
func ExportTrack(ctx context.Context, client *http.Client, pc config.Panel, outDir string, force bool) (string, error) {
	destFile := filepath.Join(outDir, pc.Name+".geojson")

	// Check if file exists
	if _, err := os.Stat(destFile); err == nil {
		if !force {
			log.Debug().Str("panel", pc.Name).Msg("Track file exists, skipping")
			return destFile, nil
		}
	}

	frames, err := panelSeries(ctx, client, pc)
	if err != nil {
		return "", err
	}

	fc := geo.TrackCollection(series.Extract(frames), pc.Options.Destination())

	data, err := json.Marshal(fc)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(destFile, data, 0644); err != nil {
		return "", err
	}

	log.Info().
		Str("panel", pc.Name).
		Int("features", len(fc.Features)).
		Msg("Track exported")

	return destFile, nil
}
