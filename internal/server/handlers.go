// Package server handles HTTP requests and middleware.
package server

import (
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const etagCap = 64

// HandleView serves the viewport and legend presentation settings.
func (s *ServerContext) HandleView(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Config.View)
}

// HandleLegend serves the legend entries derived from the dataset.
func (s *ServerContext) HandleLegend(w http.ResponseWriter, r *http.Request) {
	if s.Points == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Legend)
}

// HandlePoints serves the dataset exactly as loaded at startup.
func (s *ServerContext) HandlePoints(w http.ResponseWriter, r *http.Request) {
	if s.Points == nil {
		http.NotFound(w, r)
		return
	}

	s.serveCached(w, r, s.Points, "application/geo+json")
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, s.IndexHTML, "text/html; charset=utf-8")
}

// serveCached writes an in-memory document with ETag revalidation. The tag
// combines length and startup time, so restarts invalidate client caches.
func (s *ServerContext) serveCached(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, int64(len(body)), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, s.Started.UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(body)
}
