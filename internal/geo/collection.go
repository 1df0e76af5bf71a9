// Package geo handles GeoJSON feature collections and geographic helpers.
package geo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Property keys understood by the viewer.
const (
	PropLabel   = "label"
	PropColor   = "color"
	PropAddress = "address"
)

// NewPointFeature builds a point feature carrying the viewer properties.
func NewPointFeature(lon, lat float64, label, color string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lon, lat})
	f.Properties[PropLabel] = label
	f.Properties[PropColor] = color

	return f
}

// Label returns the feature label, or "" when missing or not a string.
func Label(f *geojson.Feature) string {
	if f == nil {
		return ""
	}

	return f.Properties.MustString(PropLabel, "")
}

// Color returns the feature color, or "" when missing or not a string.
func Color(f *geojson.Feature) string {
	if f == nil {
		return ""
	}

	return f.Properties.MustString(PropColor, "")
}

// DecodeCollection parses GeoJSON bytes into a feature collection.
func DecodeCollection(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	return fc, nil
}

// ReadCollection loads and parses a GeoJSON file.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return DecodeCollection(data)
}

// WriteCollection marshals the feature collection and writes it to disk,
// creating parent directories as needed.
func WriteCollection(path string, fc *geojson.FeatureCollection) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	return json.NewEncoder(f).Encode(fc)
}

// Bound returns the union bound of all feature geometries.
// ok is false when the collection holds no geometry.
func Bound(fc *geojson.FeatureCollection) (orb.Bound, bool) {
	var b orb.Bound
	ok := false

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}

		gb := f.Geometry.Bound()
		if !ok {
			b, ok = gb, true
			continue
		}
		b = b.Union(gb)
	}

	return b, ok
}
