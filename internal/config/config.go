// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for fields left empty in the file.
const (
	DefaultDataFile    = "points.geojson"
	DefaultResultsFile = "results.tsv"

	DefaultHeading     = "Hard waste pickups"
	DefaultZoom        = 13
	DefaultTiles       = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

	DefaultDirectoryURL = "https://australia-streets.openalfa.com/shire-of-yarra-ranges"
	DefaultCouncilURL   = "https://www.yarraranges.vic.gov.au"
	DefaultCategory     = "Hard waste, bundled branches and metals"
	DefaultUserAgent    = "curl/8.17.0"

	DefaultGeocodeEndpoint  = "https://nominatim.openstreetmap.org/search"
	DefaultGeocodeUserAgent = "wastemap/1.0 (+https://github.com/belgrave/wastemap)"
)

// DefaultCenter is the initial viewport center as [lat, lon].
var DefaultCenter = [2]float64{-37.81, 144.96}

// Config represents the root configuration file structure.
type Config struct {
	DataFile    string    `yaml:"data_file,omitempty"`
	ResultsFile string    `yaml:"results_file,omitempty"`
	View        View      `yaml:"view,omitempty"`
	Collector   Collector `yaml:"collector,omitempty"`
	Geocoder    Geocoder  `yaml:"geocoder,omitempty"`
}

// View is the viewport and legend presentation, served as-is on /api/view.
type View struct {
	Heading     string     `yaml:"heading,omitempty" json:"heading"`
	Center      [2]float64 `yaml:"center,omitempty" json:"center"` // [lat, lon]
	Zoom        int        `yaml:"zoom,omitempty" json:"zoom"`
	Tiles       string     `yaml:"tiles,omitempty" json:"tiles"`
	Attribution string     `yaml:"attribution,omitempty" json:"attribution"`
}

// Collector configures the pickup collection pipeline.
type Collector struct {
	DirectoryURL string   `yaml:"directory,omitempty"`
	CouncilURL   string   `yaml:"council,omitempty"`
	Category     string   `yaml:"category,omitempty"`
	UserAgent    string   `yaml:"user_agent,omitempty"`
	Palette      []string `yaml:"palette,omitempty"`
}

// Geocoder configures the Nominatim client.
type Geocoder struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	UserAgent    string `yaml:"user_agent,omitempty"`
	CountryCodes string `yaml:"country_codes,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadOrDefault loads the configuration file, falling back to the built-in
// defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}

	return cfg, err
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.ResultsFile == "" {
		c.ResultsFile = DefaultResultsFile
	}

	if c.View.Heading == "" {
		c.View.Heading = DefaultHeading
	}
	if c.View.Center == [2]float64{} {
		c.View.Center = DefaultCenter
	}
	if c.View.Zoom <= 0 {
		c.View.Zoom = DefaultZoom
	}
	if c.View.Tiles == "" {
		c.View.Tiles = DefaultTiles
	}
	if c.View.Attribution == "" {
		c.View.Attribution = DefaultAttribution
	}

	if c.Collector.DirectoryURL == "" {
		c.Collector.DirectoryURL = DefaultDirectoryURL
	}
	if c.Collector.CouncilURL == "" {
		c.Collector.CouncilURL = DefaultCouncilURL
	}
	if c.Collector.Category == "" {
		c.Collector.Category = DefaultCategory
	}
	if c.Collector.UserAgent == "" {
		c.Collector.UserAgent = DefaultUserAgent
	}

	if c.Geocoder.Endpoint == "" {
		c.Geocoder.Endpoint = DefaultGeocodeEndpoint
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = DefaultGeocodeUserAgent
	}
}
