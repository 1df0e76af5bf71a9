// Package geocode resolves street addresses to WGS84 coordinates through the
// Nominatim search API.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/belgrave/wastemap/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is a single geocoded place.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// nominatimPlace mirrors the wire format; coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Client queries a Nominatim endpoint, keeping a minimum interval between
// requests per the service usage policy.
type Client struct {
	hc        *http.Client
	endpoint  string
	userAgent string
	countries string
	interval  time.Duration

	mu   sync.Mutex
	last time.Time
}

// New builds a client from configuration. An interval <= 0 disables throttling.
func New(hc *http.Client, cfg config.Geocoder, interval time.Duration) *Client {
	return &Client{
		hc:        hc,
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		countries: cfg.CountryCodes,
		interval:  interval,
	}
}

// Geocode resolves a free-form query to its best match.
// A query without a match returns (nil, nil).
func (c *Client) Geocode(ctx context.Context, query string) (*Result, error) {
	c.throttle()

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if c.countries != "" {
		q.Set("countrycodes", c.countries)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", places[0].Lon, err)
	}

	return &Result{Lat: lat, Lon: lon, DisplayName: places[0].DisplayName}, nil
}

// throttle blocks until the interval has passed since the previous request.
func (c *Client) throttle() {
	if c.interval <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.interval - time.Since(c.last); wait > 0 {
		time.Sleep(wait)
	}
	c.last = time.Now()
}
