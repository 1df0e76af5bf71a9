package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// sortedByDate returns a copy ordered by date, breaking ties by address.
// Worker arrival order never reaches the output.
func sortedByDate(pickups []Pickup) []Pickup {
	sorted := make([]Pickup, len(pickups))
	copy(sorted, pickups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Address < sorted[j].Address
	})

	return sorted
}

// WriteResults writes the tab-separated pickup listing, sorted by date then
// address: date, address, lat, lon.
func WriteResults(path string, pickups []Pickup) error {
	sorted := sortedByDate(pickups)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	for _, p := range sorted {
		record := []string{
			p.Date.Format(dateLayout),
			p.Address,
			strconv.FormatFloat(p.Lat, 'f', 6, 64),
			strconv.FormatFloat(p.Lon, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()

	return w.Error()
}

// ReadResults parses a tab-separated pickup listing as written by
// WriteResults. Rows carry either date and address alone, leaving the
// coordinates zero, or all four columns; other shapes are rejected.
func ReadResults(r io.Reader) ([]Pickup, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	var pickups []Pickup
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(record) != 2 && len(record) != 4 {
			return nil, fmt.Errorf("line %d: want date, address and optional lat, lon, got %d fields", line, len(record))
		}

		date, err := time.Parse(dateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		p := Pickup{Date: date, Address: record[1]}
		if len(record) == 4 {
			if p.Lat, err = strconv.ParseFloat(record[2], 64); err != nil {
				return nil, fmt.Errorf("line %d: parse lat: %w", line, err)
			}
			if p.Lon, err = strconv.ParseFloat(record[3], 64); err != nil {
				return nil, fmt.Errorf("line %d: parse lon: %w", line, err)
			}
		}

		pickups = append(pickups, p)
	}

	return pickups, nil
}
