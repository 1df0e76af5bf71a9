package legend

import (
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/belgrave/wastemap/internal/geo"
)

func collection(points ...[2]string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(geo.NewPointFeature(144.96, -37.81, p[0], p[1]))
	}
	return fc
}

func TestBuildDistinctLabels(t *testing.T) {
	fc := collection(
		[2]string{"A", "red"},
		[2]string{"B", "green"},
		[2]string{"C", "blue"},
	)

	entries := Build(fc)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestBuildSortsByLabel(t *testing.T) {
	fc := collection([2]string{"B", "green"}, [2]string{"A", "red"})

	want := []Entry{{Label: "A", Color: "red"}, {Label: "B", Color: "green"}}
	if got := Build(fc); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildInputOrderIrrelevant(t *testing.T) {
	a := collection([2]string{"B", "green"}, [2]string{"A", "red"}, [2]string{"C", "blue"})
	b := collection([2]string{"C", "blue"}, [2]string{"A", "red"}, [2]string{"B", "green"})

	if got, want := Build(a), Build(b); !reflect.DeepEqual(got, want) {
		t.Fatalf("input order changed the legend: %v vs %v", got, want)
	}
}

func TestBuildLastWriteWins(t *testing.T) {
	fc := collection([2]string{"X", "#111"}, [2]string{"X", "#222"})

	want := []Entry{{Label: "X", Color: "#222"}}
	if got := Build(fc); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildSharedLabelAmongOthers(t *testing.T) {
	fc := collection(
		[2]string{"2026-03-09", "#1f78b4"},
		[2]string{"2026-03-02", "#a6cee3"},
		[2]string{"2026-03-02", "#a6cee3"},
	)

	want := []Entry{
		{Label: "2026-03-02", Color: "#a6cee3"},
		{Label: "2026-03-09", Color: "#1f78b4"},
	}
	if got := Build(fc); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildCollationEqualLabels(t *testing.T) {
	// precomposed "é" and "e" + combining acute compare equal under the
	// collator but are distinct labels; each must keep its own entry
	nfc := "é"
	nfd := "é"

	fc := collection(
		[2]string{nfd, "#111"},
		[2]string{nfc, "#aaa"},
		[2]string{nfd, "#222"},
	)

	want := []Entry{
		{Label: nfd, Color: "#222"},
		{Label: nfc, Color: "#aaa"},
	}
	if got := Build(fc); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildNonDecreasingOrder(t *testing.T) {
	fc := collection(
		[2]string{"pear", "#1"},
		[2]string{"apple", "#2"},
		[2]string{"quince", "#3"},
		[2]string{"apple", "#4"},
		[2]string{"banana", "#5"},
	)

	entries := Build(fc)
	c := collate.New(language.English)
	for i := 1; i < len(entries); i++ {
		if c.CompareString(entries[i-1].Label, entries[i].Label) >= 0 {
			t.Fatalf("labels out of order: %q before %q", entries[i-1].Label, entries[i].Label)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	fc := collection([2]string{"B", "green"}, [2]string{"A", "red"}, [2]string{"A", "blue"})

	first := Build(fc)
	second := Build(fc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rebuild differs: %v vs %v", first, second)
	}
}

func TestBuildDoesNotReorderCollection(t *testing.T) {
	fc := collection([2]string{"B", "green"}, [2]string{"A", "red"})
	Build(fc)

	if got := geo.Label(fc.Features[0]); got != "B" {
		t.Fatalf("collection order changed, first label now %q", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	entries := Build(geojson.NewFeatureCollection())
	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	if Build(nil) == nil {
		t.Fatal("expected empty slice for nil collection")
	}
}

func TestBuildMissingProperties(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{144.96, -37.81}))

	want := []Entry{{Label: "", Color: ""}}
	if got := Build(fc); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
