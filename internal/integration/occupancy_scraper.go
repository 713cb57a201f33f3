// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var countRe = regexp.MustCompile(`-?\d+`)

const defaultFetchTimeout = 30 * time.Second

// OccupancyScraper reads a live people count from an HTML page
type OccupancyScraper struct {
	sourceURL string
	selector  string
	client    *http.Client
}

// NewOccupancyScraper creates a new scraper reading the element matched by selector.
// A non-positive timeout falls back to 30 seconds.
func NewOccupancyScraper(url, selector string, timeout time.Duration) *OccupancyScraper {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &OccupancyScraper{
		sourceURL: url,
		selector:  selector,
		client:    &http.Client{Timeout: timeout},
	}
}

// FetchCount retrieves the page and returns the count it shows
func (s *OccupancyScraper) FetchCount(ctx context.Context) (int32, error) {
	log.Printf("Sending HTTP request to occupancy page %s", s.sourceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		log.Printf("Error fetching occupancy page: %v", err)
		return 0, fmt.Errorf("failed to fetch the webpage: %w", err)
	}
	defer res.Body.Close()

	// Check for successful response
	if res.StatusCode != http.StatusOK {
		log.Printf("Received unexpected status code: %d %s", res.StatusCode, res.Status)
		return 0, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		log.Printf("Error parsing HTML: %v", err)
		return 0, fmt.Errorf("failed to parse the webpage: %w", err)
	}

	return s.ExtractCount(doc)
}

// ExtractCount finds the first integer in the text of the selected element.
// Thousands separators such as "1,204" or "1 204" are ignored.
func (s *OccupancyScraper) ExtractCount(doc *goquery.Document) (int32, error) {
	sel := doc.Find(s.selector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("no element matches selector %q", s.selector)
	}

	text := strings.TrimSpace(sel.Text())
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(text)
	match := countRe.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no count found in %q", text)
	}

	count, err := strconv.ParseInt(match, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("count %q out of range: %w", match, err)
	}
	log.Printf("Extracted count %d from %q", count, text)
	return int32(count), nil
}
