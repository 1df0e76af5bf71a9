// Package legend derives the label to color legend from a feature collection.
package legend

import (
	"sort"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/belgrave/wastemap/internal/geo"
)

// Entry is a single legend row: a swatch color and its label.
type Entry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Build returns the legend for a collection: one entry per distinct label,
// ordered by locale-aware label comparison, each at its label's first
// position in the sorted sequence. When several features share a label the
// color of the one visited last wins; the sort is stable, so that is the
// feature appearing last in the collection. Missing or non-string properties
// degrade to empty strings. The collection itself is never reordered.
func Build(fc *geojson.FeatureCollection) []Entry {
	entries := []Entry{}
	if fc == nil || len(fc.Features) == 0 {
		return entries
	}

	features := make([]*geojson.Feature, len(fc.Features))
	copy(features, fc.Features)

	c := collate.New(language.English)
	sort.SliceStable(features, func(i, j int) bool {
		return c.CompareString(geo.Label(features[i]), geo.Label(features[j])) < 0
	})

	// byte-distinct labels can compare equal under the collator, so dedup is
	// by exact label, not against the neighboring entry
	index := make(map[string]int, len(features))
	for _, f := range features {
		label, color := geo.Label(f), geo.Color(f)
		if i, ok := index[label]; ok {
			entries[i].Color = color
			continue
		}
		index[label] = len(entries)
		entries = append(entries, Entry{Label: label, Color: color})
	}

	return entries
}
