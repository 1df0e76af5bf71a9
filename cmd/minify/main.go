// Command minify builds assets/index.html from the page template and the
// minified sources next to it.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

const assetDir = "assets"

// PageData fills the inline slots of index.html.tpl.
type PageData struct {
	CSS string
	JS  string
	SVG string
}

func main() {
	if err := build(assetDir); err != nil {
		log.Fatal(err)
	}
	fmt.Println("minify done")
}

// build renders dir/index.html.tpl with the minified sources from dir and
// writes the result to dir/index.html, minified once more as a whole page.
func build(dir string) error {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	var page PageData
	for _, a := range []struct {
		dst       *string
		mediatype string
		name      string
	}{
		{&page.CSS, "text/css", "style.css"},
		{&page.JS, "text/javascript", "script.js"},
		{&page.SVG, "image/svg+xml", "pin.svg"},
	} {
		s, err := minifyAsset(m, dir, a.mediatype, a.name)
		if err != nil {
			return err
		}
		*a.dst = s
	}

	tmpl, err := template.ParseFiles(filepath.Join(dir, "index.html.tpl"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("fill template: %w", err)
	}

	out, err := m.String("text/html", buf.String())
	if err != nil {
		return fmt.Errorf("minify HTML: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "index.html"), []byte(out), 0644)
}

// minifyAsset reads dir/name and returns it minified as mediatype.
func minifyAsset(m *minify.M, dir, mediatype, name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	s, err := m.String(mediatype, string(raw))
	if err != nil {
		return "", fmt.Errorf("minify %s: %w", name, err)
	}
	return s, nil
}
