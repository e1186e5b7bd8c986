package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
width: 640
image_timeout: 3s
panels:
  - name: ground
    aliases: [floor0, lobby]
    data: tracks/ground.csv
    options:
      imageUrl: https://example.com/ground.svg
      topLeftLat: 52.5
      topLeftLong: 13.3
      bottomRightLat: 52.4
      bottomRightLong: 13.5
      destLat: 52.45
      destLong: 13.4
  - name: roof
    width: 300
    height: 200
    series:
      - name: gps
        fields:
          - name: lon
            values: [1, 2]
          - name: lat
            values: [3, 4]
    options:
      imageUrl: roof.png
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Width != 640 || cfg.Height != DefaultHeight {
		t.Fatalf("size = %dx%d; want 640x%d", cfg.Width, cfg.Height, DefaultHeight)
	}
	if cfg.ImageTimeout != 3*time.Second {
		t.Fatalf("ImageTimeout = %v; want 3s", cfg.ImageTimeout)
	}
	if cfg.WebPQuality != DefaultWebPQuality {
		t.Fatalf("WebPQuality = %v; want default", cfg.WebPQuality)
	}
	if len(cfg.Panels) != 2 {
		t.Fatalf("len(Panels) = %d; want 2", len(cfg.Panels))
	}

	ground := cfg.Panels[0]
	if ground.Width != 640 || ground.Height != DefaultHeight {
		t.Fatalf("ground size = %dx%d; want inherited", ground.Width, ground.Height)
	}
	opts := ground.Options
	if opts.ImageURL != "https://example.com/ground.svg" || opts.TopLeftLat != 52.5 ||
		opts.BottomRightLong != 13.5 || opts.DestLong != 13.4 {
		t.Fatalf("ground options = %+v", opts)
	}

	roof := cfg.Panels[1]
	if roof.Width != 300 || roof.Height != 200 {
		t.Fatalf("roof size = %dx%d; want 300x200", roof.Width, roof.Height)
	}
	if len(roof.SeriesInline) != 1 || len(roof.SeriesInline[0].Fields) != 2 {
		t.Fatalf("roof inline series = %+v", roof.SeriesInline)
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"duplicate name", "panels:\n  - name: a\n  - name: a\n"},
		{"alias clashes with name", "panels:\n  - name: a\n  - name: b\n    aliases: [a]\n"},
		{"missing name", "panels:\n  - width: 10\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("Load accepted %q", tc.body)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("Load of a missing file succeeded")
	}
}

func TestPanelJSON(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(cfg.Panels[0])
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{`"imageUrl"`, `"topLeftLat":52.5`, `"destLong":13.4`, `"aliases"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("panel JSON %s lacks %s", data, key)
		}
	}
	if strings.Contains(string(data), "ground.csv") {
		t.Fatalf("panel JSON leaks the data source: %s", data)
	}
}

func TestOptionsSchema(t *testing.T) {
	fields := OptionsSchema()
	if len(fields) != 7 {
		t.Fatalf("len(OptionsSchema()) = %d; want 7", len(fields))
	}

	text := 0
	for _, f := range fields {
		if f.Type == "text" {
			text++
		}
	}
	if text != 1 || fields[0].Path != "imageUrl" {
		t.Fatalf("schema should have exactly one text field, imageUrl first: %+v", fields)
	}
}
