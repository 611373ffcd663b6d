// Package config holds the crowdwatch configuration, loaded from YAML
// or supplied by the built-in defaults.
//
// All durations are integer milliseconds (`…_ms`). YAML cannot decode
// "20s" into a time.Duration, and nanosecond integers in config files
// invite mistakes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/crowdwatch/internal/scrape"
)

// HistoryOff disables the run-history database when set as HistoryDB.
const HistoryOff = "off"

// Config is the top-level crowdwatch configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`

	// DataDir receives the per-source CSV logs. Default "data".
	DataDir string `yaml:"data_dir"`

	// HistoryDB is the run-history SQLite path. Empty resolves to
	// <data_dir>/crowdwatch.db; HistoryOff disables history entirely.
	HistoryDB string `yaml:"history_db"`

	Sources []SourceConfig `yaml:"sources"`
	Daemon  DaemonConfig   `yaml:"daemon"`
	API     APIConfig      `yaml:"api"`
	Sinks   []SinkConfig   `yaml:"sinks"`
}

// BrowserConfig controls the Chrome session factory.
type BrowserConfig struct {
	Remote       string `yaml:"remote"` // ws:// control URL; empty launches a local browser
	Headful      bool   `yaml:"headful"`
	Sandbox      bool   `yaml:"sandbox"` // Chrome sandbox; off in containers
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	Stealth      bool   `yaml:"stealth"`
	NavTimeoutMs int    `yaml:"nav_timeout_ms"`
}

// NavTimeout returns the navigation timeout as a duration.
func (b BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(b.NavTimeoutMs) * time.Millisecond
}

// SourceConfig defines one facility page to read.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Strategy string `yaml:"strategy"` // pool | gym
	Mode     string `yaml:"mode"`     // browser | static
	Enabled  *bool  `yaml:"enabled"`  // omitted = enabled

	Pool PoolConfig `yaml:"pool"`
	Gym  GymConfig  `yaml:"gym"`
}

// IsEnabled reports whether the source takes part in runs. An omitted
// enabled key counts as true.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// PoolConfig tunes the pool strategy. Zero values fall back to the
// strategy's built-in selectors.
type PoolConfig struct {
	WaitSelector  string `yaml:"wait_selector"`
	Marker        string `yaml:"marker"`
	ValueSelector string `yaml:"value_selector"`
	WaitTimeoutMs int    `yaml:"wait_timeout_ms"`
}

// GymConfig tunes the gym strategy.
type GymConfig struct {
	Label         string `yaml:"label"`
	ClimbLimit    int    `yaml:"climb_limit"`
	GrowthSlack   int    `yaml:"growth_slack"`
	WaitTimeoutMs int    `yaml:"wait_timeout_ms"`
}

// DaemonConfig controls periodic collection.
type DaemonConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Interval returns the collection period as a duration.
func (d DaemonConfig) Interval() time.Duration {
	return time.Duration(d.IntervalMs) * time.Millisecond
}

// APIConfig controls the status API. An empty Addr disables it.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // csv | stdout
}

// Default returns the built-in two-source configuration, so a run with
// no config file watches the Lužánky pool and the Hangár climbing gym
// out of the box.
func Default() *Config {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name:     "luzanky",
				URL:      "https://bazenyluzanky.starez.cz/",
				Strategy: "pool",
				Mode:     scrape.ModeBrowser,
			},
			{
				Name:     "hangar",
				URL:      "https://hangarbrno.cz/en/home/",
				Strategy: "gym",
				Mode:     scrape.ModeBrowser,
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads and validates a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.WindowWidth <= 0 {
		c.Browser.WindowWidth = 1920
	}
	if c.Browser.WindowHeight <= 0 {
		c.Browser.WindowHeight = 1080
	}
	if c.Browser.NavTimeoutMs <= 0 {
		c.Browser.NavTimeoutMs = 30_000
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = filepath.Join(c.DataDir, "crowdwatch.db")
	}
	if c.Daemon.IntervalMs <= 0 {
		c.Daemon.IntervalMs = 600_000
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "csv"}}
	}
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Mode == "" {
			src.Mode = scrape.ModeBrowser
		}
		if src.Pool.WaitTimeoutMs <= 0 {
			src.Pool.WaitTimeoutMs = 20_000
		}
		if src.Gym.WaitTimeoutMs <= 0 {
			src.Gym.WaitTimeoutMs = 20_000
		}
	}
}

// Validate rejects configurations the watcher could not act on.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: no sources defined")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("config: source %d: missing name", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("config: duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		if src.URL == "" {
			return fmt.Errorf("config: source %q: missing url", src.Name)
		}
		switch src.Strategy {
		case "pool", "gym":
		default:
			return fmt.Errorf("config: source %q: unknown strategy %q", src.Name, src.Strategy)
		}
		switch src.Mode {
		case scrape.ModeBrowser, scrape.ModeStatic:
		default:
			return fmt.Errorf("config: source %q: unknown mode %q", src.Name, src.Mode)
		}
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "csv", "stdout":
		default:
			return fmt.Errorf("config: sink %d: unknown type %q", i, s.Type)
		}
	}
	return nil
}
