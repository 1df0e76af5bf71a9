package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"github.com/belgrave/wastemap/internal/collector"
	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/geocode"
	"github.com/belgrave/wastemap/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string        `short:"c" long:"config"           env:"CONFIG_FILE"      description:"Path to configuration file" default:"config.yaml"`
	Limit       []string      `short:"l" long:"limit"            env:"LIMIT_REGIONS"    description:"Limit collection to specific region names"`
	Concurrency int           `short:"p" long:"concurrency"      env:"CONCURRENCY"      description:"Concurrent council lookups" default:"4"`
	Interval    time.Duration `short:"i" long:"geocode-interval" env:"GEOCODE_INTERVAL" description:"Minimum delay between geocoder requests" default:"1s"`
	Force       bool          `short:"f" long:"force"            description:"Force overwrite of existing dataset"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	geocoder := geocode.New(client, cfg.Geocoder, opts.Interval)

	log.Info().
		Str("directory", cfg.Collector.DirectoryURL).
		Int("concurrency", opts.Concurrency).
		Bool("force", opts.Force).
		Msg("Starting collector")

	err = collector.Run(context.Background(), client, geocoder, cfg, collector.Options{
		Concurrency: opts.Concurrency,
		Limit:       opts.Limit,
		Force:       opts.Force,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Collection failed")
	}

	log.Info().Msg("Collector finished successfully")
}
