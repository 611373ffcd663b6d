package crowdwatch

import (
	"github.com/hazyhaar/crowdwatch/internal/config"
)

// Config is the top-level crowdwatch configuration. Re-exported from
// internal so callers assemble everything through this package.
type Config = config.Config

// BrowserConfig controls the Chrome session factory.
type BrowserConfig = config.BrowserConfig

// SourceConfig defines one facility page to read.
type SourceConfig = config.SourceConfig

// PoolConfig tunes the pool strategy.
type PoolConfig = config.PoolConfig

// GymConfig tunes the gym strategy.
type GymConfig = config.GymConfig

// DaemonConfig controls periodic collection.
type DaemonConfig = config.DaemonConfig

// APIConfig controls the status API.
type APIConfig = config.APIConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// HistoryOff disables the run-history database when set as HistoryDB.
const HistoryOff = config.HistoryOff

// LoadConfigFile reads and validates a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the built-in two-source configuration.
func DefaultConfig() *Config {
	return config.Default()
}
