// Package common provides shared utilities for Heritage
package common

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Heritage
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	Clients     ClientsConfig   `toml:"clients"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"` // heritage series over 360 months price many assets
	IdleTimeout  string `toml:"idle_timeout"`
}

// Addr returns the host:port the server listens on
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts parses the read, write and idle timeouts, falling back to
// 15s, 60s and 2m for unset or invalid values.
func (c *ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return parseDurationOr(c.ReadTimeout, 15*time.Second),
		parseDurationOr(c.WriteTimeout, time.Minute),
		parseDurationOr(c.IdleTimeout, 2*time.Minute)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// StorageConfig holds SurrealDB connection settings.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// CacheConfig holds the cache-aside layer settings.
type CacheConfig struct {
	Backend    string `toml:"backend"` // "redis" or "memory"
	Address    string `toml:"address"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTL        string `toml:"ttl"`         // absolute expiry set on write
	SlidingTTL string `toml:"sliding_ttl"` // expiry applied again on each hit
}

// GetTTL parses and returns the absolute cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// GetSlidingTTL parses and returns the sliding TTL applied on reads
func (c *CacheConfig) GetSlidingTTL() time.Duration {
	d, err := time.ParseDuration(c.SlidingTTL)
	if err != nil || d <= 0 {
		return c.GetTTL()
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SchedulerConfig controls the background price refresh.
type SchedulerConfig struct {
	Enabled              bool   `toml:"enabled"`
	PriceRefreshInterval string `toml:"price_refresh_interval"`
}

// GetRefreshInterval parses and returns the price refresh interval
func (c *SchedulerConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.PriceRefreshInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  "15s",
			WriteTimeout: "60s",
			IdleTimeout:  "2m",
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "heritage",
			Database:  "heritage",
			Username:  "root",
			Password:  "root",
		},
		Cache: CacheConfig{
			Backend:    "memory",
			Address:    "localhost:6379",
			TTL:        "10m",
			SlidingTTL: "10m",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:              true,
			PriceRefreshInterval: "1h",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/heritage.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))
	if config.Cache.Backend != "redis" {
		config.Cache.Backend = "memory"
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HERITAGE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("HERITAGE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("HERITAGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("HERITAGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("HERITAGE_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("HERITAGE_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("HERITAGE_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	// Cache overrides
	if v := os.Getenv("HERITAGE_CACHE_BACKEND"); v != "" {
		config.Cache.Backend = v
	}
	if v := os.Getenv("HERITAGE_CACHE_ADDRESS"); v != "" {
		config.Cache.Address = v
	}
	if v := os.Getenv("HERITAGE_CACHE_PASSWORD"); v != "" {
		config.Cache.Password = v
	}

	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
