// Package config loads the settings shared by the people-counter binaries
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process configuration. Values come from defaults, then an
// optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	DatabaseURL      string        `yaml:"database_url"`
	ListenAddr       string        `yaml:"listen_addr"`
	StoreTimezone    string        `yaml:"store_timezone"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	TelegramBotToken string        `yaml:"telegram_bot_token"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	Scraper          ScraperConfig `yaml:"scraper"`
}

// ScraperConfig describes the occupancy page polled by the scrapper binary
type ScraperConfig struct {
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Source   string `yaml:"source"`
	Schedule string `yaml:"schedule"`
	// Timeout bounds one scrape run, page fetch and store write included
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		ListenAddr:     "0.0.0.0:6942",
		StoreTimezone:  "UTC",
		RequestTimeout: 10 * time.Second,
		Scraper: ScraperConfig{
			Selector: "#people-count",
			Source:   "scraper",
			Schedule: "*/15 * * * *",
			Timeout:  30 * time.Second,
		},
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		log.Printf("Loading configuration from %s", path)
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	vars := map[string]*string{
		"DATABASE_URL":       &c.DatabaseURL,
		"LISTEN_ADDR":        &c.ListenAddr,
		"STORE_TIMEZONE":     &c.StoreTimezone,
		"TELEGRAM_BOT_TOKEN": &c.TelegramBotToken,
		"OPENAI_API_KEY":     &c.OpenAIAPIKey,
		"SCRAPER_URL":        &c.Scraper.URL,
		"SCRAPER_SELECTOR":   &c.Scraper.Selector,
		"SCRAPER_SOURCE":     &c.Scraper.Source,
		"SCRAPER_SCHEDULE":   &c.Scraper.Schedule,
	}
	for key, dst := range vars {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT": &c.RequestTimeout,
		"SCRAPER_TIMEOUT": &c.Scraper.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
	}
	return nil
}

// Location resolves StoreTimezone
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid store timezone %q: %w", c.StoreTimezone, err)
	}
	return loc, nil
}
