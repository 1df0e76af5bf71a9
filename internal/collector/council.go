package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const wasteServicesPageLink = "/Our-services/Waste/Find-your-waste-collection-and-burning-off-dates"

// notAvailableText is what the council renders for addresses outside the
// service area. It marks a skip, not an error.
const notAvailableText = "Not available at this address"

// pickupDateLayouts cover both formats the council publishes.
var pickupDateLayouts = []string{"2 January 2006", "Mon 02/01/2006"}

// searchResponse mirrors the council address index payload.
type searchResponse struct {
	Items []struct {
		ID                string `json:"Id"`
		AddressSingleLine string `json:"AddressSingleLine"`
	} `json:"Items"`
}

// wasteServicesResponse wraps the rendered HTML fragment returned by the
// waste services endpoint.
type wasteServicesResponse struct {
	ResponseContent string `json:"responseContent"`
}

var (
	articleRe     = regexp.MustCompile(`(?s)<article[^>]*>(.*?)</article>`)
	headingRe     = regexp.MustCompile(`(?s)<h3[^>]*>(.*?)</h3>`)
	nextServiceRe = regexp.MustCompile(`(?s)class="next-service"[^>]*>(.*?)</`)
)

// SearchAddress resolves a search phrase against the council address index.
// ok is false when the index has no match.
func SearchAddress(ctx context.Context, client *http.Client, councilURL, userAgent, search string) (id, address string, ok bool, err error) {
	q := url.Values{}
	q.Set("keywords", search)

	var sr searchResponse
	if err := getJSON(ctx, client, councilURL+"/api/v1/myarea/search?"+q.Encode(), userAgent, &sr); err != nil {
		return "", "", false, fmt.Errorf("address search %q: %w", search, err)
	}

	if len(sr.Items) == 0 {
		return "", "", false, nil
	}

	return sr.Items[0].ID, sr.Items[0].AddressSingleLine, true, nil
}

// FetchPickupDate asks the waste services endpoint for the next collection in
// the given category. ok is false when the service is not available at the
// address.
func FetchPickupDate(ctx context.Context, client *http.Client, councilURL, userAgent, geolocationID, category string) (time.Time, bool, error) {
	q := url.Values{}
	q.Set("ocsvclang", "en-AU")
	q.Set("pageLink", wasteServicesPageLink)
	q.Set("geolocationid", geolocationID)

	var wr wasteServicesResponse
	if err := getJSON(ctx, client, councilURL+"/ocapi/Public/myarea/wasteservices?"+q.Encode(), userAgent, &wr); err != nil {
		return time.Time{}, false, fmt.Errorf("waste services %s: %w", geolocationID, err)
	}

	next, err := nextServiceText(wr.ResponseContent, category)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("geolocation %s: %w", geolocationID, err)
	}

	if next == notAvailableText {
		return time.Time{}, false, nil
	}

	date, err := ParsePickupDate(next)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("geolocation %s: %w", geolocationID, err)
	}

	return date, true, nil
}

// ParsePickupDate parses the council's next-service text, published either as
// "2 January 2006" or "Mon 02/01/2006".
func ParsePickupDate(text string) (time.Time, error) {
	for _, layout := range pickupDateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unexpected next service text %q", text)
}

// nextServiceText finds the service article whose heading matches the
// category and returns its next-service text.
func nextServiceText(content, category string) (string, error) {
	for _, article := range articleRe.FindAllStringSubmatch(content, -1) {
		h := headingRe.FindStringSubmatch(article[1])
		if h == nil || textContent(h[1]) != category {
			continue
		}

		ns := nextServiceRe.FindStringSubmatch(article[1])
		if ns == nil {
			return "", fmt.Errorf("%q article has no next-service block", category)
		}

		return textContent(ns[1]), nil
	}

	return "", fmt.Errorf("no %q article in response", category)
}

func getJSON(ctx context.Context, client *http.Client, rawURL, userAgent string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
