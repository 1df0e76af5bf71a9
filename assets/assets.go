// Package assets embeds the prebuilt web application.
package assets

import _ "embed"

// Index is the single-page application built by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon served at /favicon.svg.
//
//go:embed favicon.svg
var Favicon []byte
