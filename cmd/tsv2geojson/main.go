package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/belgrave/wastemap/internal/collector"
	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/geocode"

	"github.com/jessevdk/go-flags"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	Input    string        `short:"i" long:"in"     description:"Input listing (date, address, lat, lon; tab-separated). Reads from stdin if empty"`
	Output   string        `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format   string        `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Config   string        `short:"c" long:"config" env:"CONFIG_FILE" description:"Configuration file for palette and geocoder settings" default:"config.yaml"`
	Interval time.Duration `long:"geocode-interval" env:"GEOCODE_INTERVAL" description:"Minimum delay between geocoder requests" default:"1s"`
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

	cfg, err := config.LoadOrDefault(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	pickups, err := collector.ReadResults(bytes.NewReader(inputData))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing listing: %v\n", err)
		os.Exit(1)
	}

	// Rows without coordinates need a geocoder pass
	pickups, err = locate(pickups, cfg, opts.Interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error geocoding: %v\n", err)
		os.Exit(1)
	}

	fc := collector.BuildCollection(pickups, cfg.Collector.Palette)

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		// round-trip through JSON so the GeoJSON field names are kept
		var doc map[string]interface{}
		raw, err := json.Marshal(fc)
		if err == nil {
			err = json.Unmarshal(raw, &doc)
		}
		if err == nil {
			outputData, err = yaml.Marshal(doc)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
			os.Exit(1)
		}
	} else {
		outputData, err = json.MarshalIndent(fc, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
			os.Exit(1)
		}
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d pickups to %s (format: %s)\n", len(pickups), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

// locate fills in missing coordinates, dropping addresses the geocoder does
// not know.
func locate(pickups []collector.Pickup, cfg *config.Config, interval time.Duration) ([]collector.Pickup, error) {
	missing := 0
	for _, p := range pickups {
		if p.Lat == 0 && p.Lon == 0 {
			missing++
		}
	}
	if missing == 0 {
		return pickups, nil
	}

	client := &http.Client{Timeout: 15 * time.Second}
	geocoder := geocode.New(client, cfg.Geocoder, interval)
	ctx := context.Background()

	located := make([]collector.Pickup, 0, len(pickups))
	for _, p := range pickups {
		if p.Lat != 0 || p.Lon != 0 {
			located = append(located, p)
			continue
		}

		res, err := geocoder.Geocode(ctx, p.Address)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Address, err)
		}
		if res == nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: address not found\n", p.Address)
			continue
		}

		p.Lat, p.Lon = res.Lat, res.Lon
		located = append(located, p)
	}

	return located, nil
}
