package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/woozymasta/trackmap/internal/geo"
	"github.com/woozymasta/trackmap/internal/series"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input    string  `short:"i" long:"in" description:"Input series file path (.json, .csv, .geojson). Reads JSON from stdin if empty"`
	Output   string  `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format   string  `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	DestLat  float64 `long:"dest-lat" description:"Destination latitude"`
	DestLong float64 `long:"dest-long" description:"Destination longitude"`
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

	// Read Input
	var frames []series.Series
	var err error

	if opts.Input != "" {
		frames, err = readFile(opts.Input)
	} else {
		frames, err = series.DecodeJSON(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading series: %v\n", err)
		os.Exit(1)
	}

	points := series.Extract(frames)

	// without both flags the destination is left out
	dest := geo.GeoPoint{Longitude: math.NaN(), Latitude: math.NaN()}
	if parser.FindOptionByLongName("dest-lat").IsSet() && parser.FindOptionByLongName("dest-long").IsSet() {
		dest = geo.GeoPoint{Longitude: opts.DestLong, Latitude: opts.DestLat}
	}

	fc := geo.TrackCollection(points, dest)

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(fc)
	} else {
		outputData, err = json.MarshalIndent(fc, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d points to %s (format: %s)\n", len(points), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

func readFile(path string) ([]series.Series, error) {
	format, err := series.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return series.Decode(f, format)
}
