package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/trackmap/internal/background"
	"github.com/woozymasta/trackmap/internal/config"
	"github.com/woozymasta/trackmap/internal/logger"
	"github.com/woozymasta/trackmap/internal/processor"
	"github.com/woozymasta/trackmap/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	OutDir      string   `short:"o" long:"out"         env:"OUT_DIR"     description:"Output directory" default:"scenes"`
	Format      string   `short:"f" long:"format"      env:"FORMAT"      description:"Output image format" choice:"png" choice:"webp" default:"png"`
	Limit       []string `short:"l" long:"limit"       env:"LIMIT_NAMES" description:"Limit rendering to specific panel names"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"4"`
	GeoJSON     bool     `short:"g" long:"geojson"     description:"Also export tracks as GeoJSON"`
	Force       bool     `short:"F" long:"force"       description:"Force overwrite of existing files"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid output format")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: cfg.ImageTimeout,
	}

	// Filter panels if limit is set
	panelsToRender := cfg.Panels
	if len(opts.Limit) > 0 {
		panelsToRender = make([]config.Panel, 0)
		available := make(map[string]config.Panel)
		for _, p := range cfg.Panels {
			available[p.Name] = p
			for _, alias := range p.Aliases {
				available[alias] = p
			}
		}

		seen := make(map[string]bool)

		for _, limitName := range opts.Limit {
			p, ok := available[limitName]
			if !ok {
				log.Error().
					Str("name", limitName).
					Msg("Panel specified in --limit not found in configuration")
				continue
			}
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			panelsToRender = append(panelsToRender, p)
		}
	}

	log.Info().
		Int("panels_total", len(cfg.Panels)).
		Int("panels_queued", len(panelsToRender)).
		Str("format", string(format)).
		Msg("Starting renderer")

	renderer := &processor.Renderer{
		Loader:  background.NewLoader(client),
		Client:  client,
		OutDir:  opts.OutDir,
		Format:  format,
		Quality: cfg.WebPQuality,
		Force:   opts.Force,
	}

	failed := 0
	for _, out := range renderer.RenderAll(ctx, panelsToRender, opts.Concurrency) {
		if out.Err != nil {
			failed++
			log.Error().Err(out.Err).Str("panel", out.Name).Msg("Failed to render panel")
		}
	}

	if opts.GeoJSON {
		for _, p := range panelsToRender {
			if _, err := processor.ExportTrack(ctx, client, p, opts.OutDir, opts.Force); err != nil {
				failed++
				log.Error().Err(err).Str("panel", p.Name).Msg("Failed to export track")
			}
		}
	}

	if failed > 0 {
		log.Error().Int("failed", failed).Msg("Renderer finished with errors")
		os.Exit(1)
	}

	log.Info().Msg("Renderer finished successfully")
}
