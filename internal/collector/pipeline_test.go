package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/geo"
	"github.com/belgrave/wastemap/internal/geocode"
	"github.com/belgrave/wastemap/internal/palette"
)

func TestBuildCollection(t *testing.T) {
	march2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	march9 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// later date first, colors must still follow chronological order
	pickups := []Pickup{
		{Address: "5 Forest Road", Date: march9, Lat: -37.92, Lon: 145.36},
		{Address: "1 Main Street", Date: march2, Lat: -37.91, Lon: 145.35},
		{Address: "2 Main Street", Date: march2, Lat: -37.915, Lon: 145.352},
	}

	fc := BuildCollection(pickups, nil)
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}

	if got := geo.Label(fc.Features[0]); got != "2026-03-09" {
		t.Errorf("expected label %q, got %q", "2026-03-09", got)
	}
	if got := geo.Color(fc.Features[0]); got != palette.Default[1] {
		t.Errorf("expected second palette color for the later date, got %q", got)
	}
	if got := geo.Color(fc.Features[1]); got != palette.Default[0] {
		t.Errorf("expected first palette color for the earlier date, got %q", got)
	}
	if geo.Color(fc.Features[1]) != geo.Color(fc.Features[2]) {
		t.Error("expected pickups sharing a date to share a color")
	}

	if got := fc.Features[1].Properties.MustString(geo.PropAddress, ""); got != "1 Main Street" {
		t.Errorf("expected address property, got %q", got)
	}
	if pt, ok := fc.Features[1].Geometry.(orb.Point); !ok || pt != (orb.Point{145.35, -37.91}) {
		t.Errorf("unexpected geometry %v", fc.Features[1].Geometry)
	}
}

func TestFilterRegions(t *testing.T) {
	regions := []Region{{Name: "Belgrave"}, {Name: "Monbulk"}, {Name: "Wandin North"}}

	if got := filterRegions(regions, nil); len(got) != 3 {
		t.Fatalf("expected all regions without a limit, got %d", len(got))
	}

	got := filterRegions(regions, []string{"wandin north", "Belgrave"})
	if len(got) != 2 || got[0].Name != "Belgrave" || got[1].Name != "Wandin North" {
		t.Fatalf("expected directory order [Belgrave Wandin North], got %v", got)
	}

	if got := filterRegions(regions, []string{"Nowhere"}); len(got) != 0 {
		t.Fatalf("expected no regions for an unknown name, got %v", got)
	}
}

// fakeCouncil serves the street directory, the council APIs and the geocoder
// from one test server.
func fakeCouncil(t *testing.T) *httptest.Server {
	t.Helper()

	addresses := map[string][2]string{
		"main street belgrave":   {"loc-1", "1 Main Street, Belgrave VIC 3160"},
		"forest road belgrave":   {"loc-2", "5 Forest Road, Belgrave VIC 3160"},
		"station street monbulk": {"loc-1", "1 Main Street, Belgrave VIC 3160"},
	}
	dates := map[string]string{
		"loc-1": "2 March 2026",
		"loc-2": "Mon 09/03/2026",
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/streets":
			_, _ = fmt.Fprint(w, `<div class="columns"><ul>`+
				`<li><a href="/streets/belgrave">Belgrave</a></li>`+
				`<li><a href="/streets/monbulk">Monbulk</a></li>`+
				`</ul></div><footer></footer>`)

		case r.URL.Path == "/streets/belgrave":
			_, _ = fmt.Fprint(w, `<div class="street-columns"><ul>`+
				`<li><label for="s1">Main Street</label></li>`+
				`<li><label for="s2">Forest Road</label></li>`+
				`</ul></div><footer></footer>`)

		case r.URL.Path == "/streets/monbulk":
			_, _ = fmt.Fprint(w, `<div class="street-columns"><ul>`+
				`<li><label for="s1">Station Street</label></li>`+
				`</ul></div><footer></footer>`)

		case r.URL.Path == "/api/v1/myarea/search":
			item, ok := addresses[r.URL.Query().Get("keywords")]
			if !ok {
				_, _ = fmt.Fprint(w, `{"Items":[]}`)
				return
			}
			_, _ = fmt.Fprintf(w, `{"Items":[{"Id":%q,"AddressSingleLine":%q}]}`, item[0], item[1])

		case r.URL.Path == "/ocapi/Public/myarea/wasteservices":
			content := `<article><h3>Hard waste, bundled branches and metals</h3>` +
				`<div class="next-service">` + dates[r.URL.Query().Get("geolocationid")] + `</div></article>`
			_ = json.NewEncoder(w).Encode(wasteServicesResponse{ResponseContent: content})

		case r.URL.Path == "/geocode":
			lat, lon := "-37.910000", "145.350000"
			if strings.Contains(r.URL.Query().Get("q"), "Forest") {
				lat, lon = "-37.920000", "145.360000"
			}
			_, _ = fmt.Fprintf(w, `[{"lat":%q,"lon":%q,"display_name":"somewhere in Belgrave"}]`, lat, lon)

		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func TestRunBuildsDataset(t *testing.T) {
	ts := fakeCouncil(t)
	defer ts.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataFile = filepath.Join(dir, "points.geojson")
	cfg.ResultsFile = filepath.Join(dir, "results.tsv")
	cfg.Collector.DirectoryURL = ts.URL + "/streets"
	cfg.Collector.CouncilURL = ts.URL
	cfg.Geocoder.Endpoint = ts.URL + "/geocode"

	geocoder := geocode.New(ts.Client(), cfg.Geocoder, 0)
	if err := Run(context.Background(), ts.Client(), geocoder, cfg, Options{Concurrency: 2}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// station street monbulk resolves to the loc-1 address again and must fold away
	fc, err := geo.ReadCollection(cfg.DataFile)
	if err != nil {
		t.Fatalf("read dataset failed: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features after deduplication, got %d", len(fc.Features))
	}

	colors := make(map[string]string)
	for _, f := range fc.Features {
		colors[geo.Label(f)] = geo.Color(f)
	}
	if colors["2026-03-02"] != palette.Default[0] || colors["2026-03-09"] != palette.Default[1] {
		t.Errorf("unexpected label colors %v", colors)
	}

	f, err := os.Open(cfg.ResultsFile)
	if err != nil {
		t.Fatalf("open results failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	pickups, err := ReadResults(f)
	if err != nil {
		t.Fatalf("read results failed: %v", err)
	}
	if len(pickups) != 2 {
		t.Fatalf("expected 2 results rows, got %d", len(pickups))
	}
	if pickups[0].Address != "1 Main Street, Belgrave VIC 3160" || pickups[0].Lat != -37.91 {
		t.Errorf("unexpected first row %+v", pickups[0])
	}
}

func TestRunSkipsExistingDataset(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataFile = filepath.Join(dir, "points.geojson")
	cfg.ResultsFile = filepath.Join(dir, "results.tsv")
	cfg.Collector.DirectoryURL = ts.URL
	cfg.Collector.CouncilURL = ts.URL
	cfg.Geocoder.Endpoint = ts.URL

	if err := os.WriteFile(cfg.DataFile, []byte(`{"type":"FeatureCollection","features":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	geocoder := geocode.New(ts.Client(), cfg.Geocoder, 0)
	if err := Run(context.Background(), ts.Client(), geocoder, cfg, Options{Concurrency: 1}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("expected no requests for an existing dataset, got %d", n)
	}
}
