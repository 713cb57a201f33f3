package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTMLServer creates a test server that serves a fixed HTML response
func mockHTMLServer(status int, html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		io.WriteString(w, html)
	}))
}

const occupancyPage = `
<!DOCTYPE html>
<html>
<head><title>Occupancy</title></head>
<body>
    <div class="live">
        <h4>Currently inside</h4>
        <span id="people-count">1,204 visitors</span>
    </div>
</body>
</html>`

func TestFetchCountWithMock(t *testing.T) {
	server := mockHTMLServer(http.StatusOK, occupancyPage)
	defer server.Close()

	scraper := NewOccupancyScraper(server.URL, "#people-count", 5*time.Second)
	count, err := scraper.FetchCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1204), count)
}

func TestFetchCountBadStatus(t *testing.T) {
	server := mockHTMLServer(http.StatusServiceUnavailable, "down")
	defer server.Close()

	_, err := NewOccupancyScraper(server.URL, "#people-count", 5*time.Second).FetchCount(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 503")
}

func TestExtractCount(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		selector string
		want     int32
		wantErr  bool
	}{
		{name: "plain", html: `<p class="n">42</p>`, selector: "p.n", want: 42},
		{name: "first match wins", html: `<b>7 inside</b><b>9</b>`, selector: "b", want: 7},
		{name: "space separator", html: "<i>2 500 people</i>", selector: "i", want: 2500},
		{name: "negative", html: `<p>-3</p>`, selector: "p", want: -3},
		{name: "missing element", html: `<p>5</p>`, selector: "#count", wantErr: true},
		{name: "no digits", html: `<p>closed</p>`, selector: "p", wantErr: true},
		{name: "overflow", html: `<p>99999999999</p>`, selector: "p", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("Failed to parse HTML: %v", err)
			}

			got, err := NewOccupancyScraper("", tt.selector, 0).ExtractCount(doc)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got count %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractCount returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected count %d, got %d", tt.want, got)
			}
		})
	}
}

// TestFetchCountTimeout tests that a page slower than the configured timeout fails the fetch
func TestFetchCountTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewOccupancyScraper(server.URL, "#people-count", 50*time.Millisecond).FetchCount(context.Background())
	if err == nil {
		t.Fatal("Expected a timeout error")
	}
	if !strings.Contains(err.Error(), "failed to fetch the webpage") {
		t.Errorf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Fetch took %s, timeout was not applied", elapsed)
	}
}
