package server

import (
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/belgrave/wastemap/assets"
	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/geo"
	"github.com/belgrave/wastemap/internal/legend"
)

// ServerContext holds dependencies for request handlers. It is built once at
// startup and read-only afterwards.
type ServerContext struct {
	Config    *config.Config
	Points    []byte
	Legend    []legend.Entry
	Bound     orb.Bound
	HasBound  bool
	IndexHTML []byte
	Favicon   []byte
	Started   time.Time
}

// NewServerContext initializes the context: it loads the dataset, builds the
// legend and computes the covered bound. A missing or unreadable dataset is
// not fatal; the map then serves without points or legend.
func NewServerContext(cfg *config.Config) *ServerContext {
	s := &ServerContext{
		Config:    cfg,
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
		Started:   time.Now(),
	}

	log.Info().Str("path", cfg.DataFile).Msg("Initializing server context")

	data, err := os.ReadFile(cfg.DataFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DataFile).Msg("Dataset unavailable, serving empty map")
		return s
	}

	fc, err := geo.DecodeCollection(data)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.DataFile).Msg("Dataset unreadable, serving empty map")
		return s
	}

	s.Points = data
	s.Legend = legend.Build(fc)
	s.Bound, s.HasBound = geo.Bound(fc)

	evt := log.Info().
		Int("features", len(fc.Features)).
		Int("legend_entries", len(s.Legend))
	if s.HasBound {
		evt = evt.
			Float64("min_lon", s.Bound.Min[0]).
			Float64("min_lat", s.Bound.Min[1]).
			Float64("max_lon", s.Bound.Max[0]).
			Float64("max_lat", s.Bound.Max[1])
	}
	evt.Msg("Server context initialized successfully")

	return s
}
