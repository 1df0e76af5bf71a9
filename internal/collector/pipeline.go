// Package collector walks the council street directory and waste services
// APIs to build the pickup dataset served by the map.
package collector

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/geo"
	"github.com/belgrave/wastemap/internal/geocode"
	"github.com/belgrave/wastemap/internal/palette"
)

// dateLayout is the label format; ISO dates keep the legend's lexicographic
// order chronological.
const dateLayout = "2006-01-02"

// Pickup is one address with a scheduled hard waste collection.
type Pickup struct {
	Search        string
	Address       string
	GeolocationID string
	Date          time.Time
	Lat           float64
	Lon           float64
}

// Options controls a collection run.
type Options struct {
	Concurrency int
	Limit       []string // region names, empty means all
	Force       bool
}

// Run executes the pipeline: regions, streets, pickup dates, coordinates,
// dataset. Stage failures abort the run; individual streets that cannot be
// resolved are logged and skipped.
func Run(ctx context.Context, client *http.Client, geocoder *geocode.Client, cfg *config.Config, opts Options) error {
	if _, err := os.Stat(cfg.DataFile); err == nil && !opts.Force {
		log.Info().Str("path", cfg.DataFile).Msg("Dataset exists, use --force to overwrite")
		return nil
	}

	col := cfg.Collector

	log.Info().Str("directory", col.DirectoryURL).Msg("Finding regions")
	regions, err := FetchRegions(ctx, client, col.DirectoryURL, col.UserAgent)
	if err != nil {
		return err
	}
	regions = filterRegions(regions, opts.Limit)
	log.Info().Int("regions", len(regions)).Msg("Regions found")

	log.Info().Msg("Finding streets")
	var searches []string
	for _, region := range regions {
		s, err := FetchStreetSearches(ctx, client, region, col.UserAgent)
		if err != nil {
			return err
		}
		log.Debug().Str("region", region.Name).Int("streets", len(s)).Msg("Region streets listed")
		searches = append(searches, s...)
	}
	log.Info().Int("searches", len(searches)).Msg("Street searches prepared")

	log.Info().Int("concurrency", opts.Concurrency).Msg("Resolving pickup dates")
	pickups := resolvePickups(ctx, client, cfg, opts.Concurrency, searches)
	log.Info().Int("pickups", len(pickups)).Msg("Pickup dates resolved")

	log.Info().Msg("Geocoding addresses")
	located := geocodePickups(ctx, geocoder, pickups)
	if len(located) == 0 {
		return fmt.Errorf("no pickups could be located")
	}
	log.Info().Int("located", len(located)).Msg("Addresses geocoded")

	located = sortedByDate(located)
	fc := BuildCollection(located, col.Palette)

	if err := WriteResults(cfg.ResultsFile, located); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := geo.WriteCollection(cfg.DataFile, fc); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	logSummary(located, fc)

	return nil
}

// filterRegions keeps only the named regions, preserving directory order.
func filterRegions(regions []Region, limit []string) []Region {
	if len(limit) == 0 {
		return regions
	}

	wanted := make(map[string]bool)
	for _, name := range limit {
		wanted[strings.ToLower(name)] = true
	}

	filtered := make([]Region, 0, len(limit))
	for _, r := range regions {
		key := strings.ToLower(r.Name)
		if wanted[key] {
			filtered = append(filtered, r)
			delete(wanted, key)
		}
	}

	for name := range wanted {
		log.Error().Str("name", name).Msg("Region specified in --limit not found in directory")
	}

	return filtered
}

type searchResult struct {
	pickup Pickup
	ok     bool
}

// resolvePickups runs the council lookups through a worker pool and collects
// the successful ones, first hit per address wins.
func resolvePickups(ctx context.Context, client *http.Client, cfg *config.Config, concurrency int, searches []string) []Pickup {
	jobs := make(chan string, len(searches))
	results := make(chan searchResult, len(searches))

	go func() {
		for _, s := range searches {
			jobs <- s
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for search := range jobs {
				p, ok := resolveOne(ctx, client, cfg, search)
				results <- searchResult{pickup: p, ok: ok}
			}
		}()
	}
	wg.Wait()
	close(results)

	// the same street name in adjacent localities resolves to one address
	seen := make(map[string]bool)
	var pickups []Pickup
	for res := range results {
		if !res.ok || seen[res.pickup.GeolocationID] {
			continue
		}
		seen[res.pickup.GeolocationID] = true
		pickups = append(pickups, res.pickup)
	}

	return pickups
}

func resolveOne(ctx context.Context, client *http.Client, cfg *config.Config, search string) (Pickup, bool) {
	col := cfg.Collector

	id, address, ok, err := SearchAddress(ctx, client, col.CouncilURL, col.UserAgent, search)
	if err != nil {
		log.Error().Err(err).Str("search", search).Msg("Address search failed")
		return Pickup{}, false
	}
	if !ok {
		log.Debug().Str("search", search).Msg("No address match")
		return Pickup{}, false
	}

	date, ok, err := FetchPickupDate(ctx, client, col.CouncilURL, col.UserAgent, id, col.Category)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("Pickup date lookup failed")
		return Pickup{}, false
	}
	if !ok {
		log.Debug().Str("address", address).Msg("Service not available at address")
		return Pickup{}, false
	}

	log.Trace().Str("address", address).Str("date", date.Format(dateLayout)).Msg("Pickup resolved")

	return Pickup{Search: search, Address: address, GeolocationID: id, Date: date}, true
}

// geocodePickups resolves coordinates sequentially; the geocoder enforces its
// own request interval.
func geocodePickups(ctx context.Context, geocoder *geocode.Client, pickups []Pickup) []Pickup {
	located := make([]Pickup, 0, len(pickups))
	for _, p := range pickups {
		res, err := geocoder.Geocode(ctx, p.Address)
		if err != nil {
			log.Warn().Err(err).Str("address", p.Address).Msg("Geocoding failed")
			continue
		}
		if res == nil {
			log.Warn().Str("address", p.Address).Msg("Address not found by geocoder")
			continue
		}

		p.Lat, p.Lon = res.Lat, res.Lon
		located = append(located, p)
	}

	return located
}

// BuildCollection assigns a color per distinct pickup date and emits one
// point feature per pickup.
func BuildCollection(pickups []Pickup, customPalette []string) *geojson.FeatureCollection {
	labels := make([]string, 0, len(pickups))
	for _, p := range pickups {
		labels = append(labels, p.Date.Format(dateLayout))
	}
	sort.Strings(labels)
	colors := palette.Assign(labels, customPalette)

	fc := geojson.NewFeatureCollection()
	for _, p := range pickups {
		label := p.Date.Format(dateLayout)
		f := geo.NewPointFeature(p.Lon, p.Lat, label, colors[label])
		f.Properties[geo.PropAddress] = p.Address
		fc.Append(f)
	}

	return fc
}

// logSummary reports the run as a collection calendar: one line per distinct
// date with the first of its addresses.
func logSummary(pickups []Pickup, fc *geojson.FeatureCollection) {
	sorted := sortedByDate(pickups)

	seen := make(map[string]bool)
	for _, p := range sorted {
		label := p.Date.Format(dateLayout)
		if seen[label] {
			continue
		}
		seen[label] = true
		log.Info().Str("date", label).Str("address", p.Address).Msg("Collection day")
	}

	b, ok := geo.Bound(fc)
	if !ok {
		return
	}

	log.Info().
		Int("features", len(fc.Features)).
		Int("dates", len(seen)).
		Float64("min_lon", b.Min[0]).
		Float64("min_lat", b.Min[1]).
		Float64("max_lon", b.Max[0]).
		Float64("max_lat", b.Max[1]).
		Msg("Dataset assembled")
}
