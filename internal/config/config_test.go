package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:6942", cfg.ListenAddr)
	assert.Equal(t, "UTC", cfg.StoreTimezone)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "*/15 * * * *", cfg.Scraper.Schedule)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"DATABASE_URL":    "postgres://people@localhost/people",
		"STORE_TIMEZONE":  "Europe/Belgrade",
		"REQUEST_TIMEOUT": "3s",
		"SCRAPER_SOURCE":  "",
		"SCRAPER_URL":     "http://example.test/occupancy",
		"SCRAPER_TIMEOUT": "45s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://people@localhost/people", cfg.DatabaseURL)
	assert.Equal(t, "Europe/Belgrade", cfg.StoreTimezone)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 45*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "http://example.test/occupancy", cfg.Scraper.URL)
	assert.Equal(t, "scraper", cfg.Scraper.Source, "empty variables keep the previous value")

	err = cfg.applyEnv(mapLookup(map[string]string{"REQUEST_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "invalid REQUEST_TIMEOUT")

	err = cfg.applyEnv(mapLookup(map[string]string{"SCRAPER_TIMEOUT": "later"}))
	assert.ErrorContains(t, err, "invalid SCRAPER_TIMEOUT")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: data/test.db
listen_addr: 127.0.0.1:8080
request_timeout: 2s
scraper:
  url: http://example.test/
  selector: span.count
`), 0644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/test.db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "span.count", cfg.Scraper.Selector)
	assert.Equal(t, "*/15 * * * *", cfg.Scraper.Schedule)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.StoreTimezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
