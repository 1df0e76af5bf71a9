package collector

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Region is one locality page in the street directory.
type Region struct {
	Name string
	URL  string
}

// The directory pages are static HTML: the index lists localities as
// list-item anchors inside a "columns" block, locality pages list streets as
// list-item labels inside a "street-columns" block.
var (
	regionRe = regexp.MustCompile(`(?s)<li[^>]*>\s*<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	streetRe = regexp.MustCompile(`(?s)<li[^>]*>\s*<label[^>]*>(.*?)</label>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
)

// FetchRegions downloads the street directory index and extracts its regions.
func FetchRegions(ctx context.Context, client *http.Client, directoryURL, userAgent string) ([]Region, error) {
	page, err := fetchPage(ctx, client, directoryURL, userAgent)
	if err != nil {
		return nil, fmt.Errorf("fetch directory: %w", err)
	}

	base, err := url.Parse(directoryURL)
	if err != nil {
		return nil, err
	}

	var regions []Region
	for _, m := range regionRe.FindAllStringSubmatch(narrowListing(page, `class="columns"`), -1) {
		href, err := url.Parse(html.UnescapeString(m[1]))
		if err != nil {
			continue
		}

		name := textContent(m[2])
		abs := base.ResolveReference(href).String()
		if name == "" || abs == directoryURL {
			continue
		}

		regions = append(regions, Region{Name: name, URL: abs})
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("no regions found at %s", directoryURL)
	}

	return regions, nil
}

// FetchStreetSearches downloads a region page and builds the lowercase
// "street region" phrases used against the council address index.
func FetchStreetSearches(ctx context.Context, client *http.Client, region Region, userAgent string) ([]string, error) {
	page, err := fetchPage(ctx, client, region.URL, userAgent)
	if err != nil {
		return nil, fmt.Errorf("fetch region %s: %w", region.Name, err)
	}

	var searches []string
	for _, m := range streetRe.FindAllStringSubmatch(narrowListing(page, `class="street-columns"`), -1) {
		street := textContent(m[1])
		if street == "" {
			continue
		}
		searches = append(searches, strings.ToLower(street+" "+region.Name))
	}

	return searches, nil
}

// narrowListing cuts the page down to the listing that follows the given
// class marker so navigation and footer chrome stay out of the matches.
func narrowListing(page, marker string) string {
	if i := strings.Index(page, marker); i >= 0 {
		page = page[i:]
	}
	if i := strings.Index(page, "<footer"); i >= 0 {
		page = page[:i]
	}

	return page
}

// textContent strips tags, unescapes entities and collapses whitespace,
// approximating the text content of an HTML fragment.
func textContent(fragment string) string {
	text := html.UnescapeString(tagRe.ReplaceAllString(fragment, " "))
	return strings.Join(strings.Fields(text), " ")
}

func fetchPage(ctx context.Context, client *http.Client, rawURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
