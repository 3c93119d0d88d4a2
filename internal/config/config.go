package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string               `toml:"environment"`
	Server      ServerConfig         `toml:"server"`
	Upstream    UpstreamConfig       `toml:"upstream"`
	Schedule    ScheduleConfig       `toml:"schedule"`
	Cache       CacheConfig          `toml:"cache"`
	Storage     StorageConfig        `toml:"storage"`
	Metrics     MetricsConfig        `toml:"metrics"`
	MCP         MCPConfig            `toml:"mcp"`
	Logging     common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig points at the third-party chart data API.
type UpstreamConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the upstream request timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// ScheduleConfig describes the weekly operating windows and the cache
// lifetimes derived from them. Days use 0=Sunday..6=Saturday.
type ScheduleConfig struct {
	OperatingDays          []int  `toml:"operating_days"`
	HourStart              int    `toml:"hour_start"`
	HourEnd                int    `toml:"hour_end"`
	Timezone               string `toml:"timezone"`
	TTLOperatingSeconds    int    `toml:"ttl_operating_seconds"`
	TTLMaxSeconds          int    `toml:"ttl_max_seconds"`
	TTLStaleOnErrorSeconds int    `toml:"ttl_stale_on_error_seconds"`
	TTLTestModeSeconds     int    `toml:"ttl_test_mode_seconds"`
}

// TTLOperating is the cache lifetime inside (or just before) a window.
func (s ScheduleConfig) TTLOperating() time.Duration {
	return time.Duration(s.TTLOperatingSeconds) * time.Second
}

// TTLMax caps the cache lifetime outside operating windows.
func (s ScheduleConfig) TTLMax() time.Duration {
	return time.Duration(s.TTLMaxSeconds) * time.Second
}

// TTLStaleOnError is the max-age advertised when serving stale data.
func (s ScheduleConfig) TTLStaleOnError() time.Duration {
	return time.Duration(s.TTLStaleOnErrorSeconds) * time.Second
}

// TTLTestMode is the lifetime used when a request forces operating-hours caching.
func (s ScheduleConfig) TTLTestMode() time.Duration {
	return time.Duration(s.TTLTestModeSeconds) * time.Second
}

// CacheConfig selects where the chart cache slot lives.
// Backend is "memory" (default) or "badger".
type CacheConfig struct {
	Backend string `toml:"backend"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// MCPConfig controls the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TIMESUP_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TIMESUP_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("TIMESUP_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TIMESUP_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("TIMESUP_UPSTREAM_URL"); url != "" {
		config.Upstream.URL = url
	}
	if tz := os.Getenv("TIMESUP_TIMEZONE"); tz != "" {
		config.Schedule.Timezone = tz
	}
	if backend := os.Getenv("TIMESUP_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}
	if badgerPath := os.Getenv("TIMESUP_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("TIMESUP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of problems with the configuration, empty when valid.
func (c *Config) Validate() []string {
	var issues []string

	if strings.TrimSpace(c.Upstream.URL) == "" {
		issues = append(issues, "upstream.url is required (TIMESUP_UPSTREAM_URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	s := c.Schedule
	if len(s.OperatingDays) == 0 {
		issues = append(issues, "schedule.operating_days must list at least one weekday")
	}
	seen := make(map[int]bool, len(s.OperatingDays))
	for _, d := range s.OperatingDays {
		if d < 0 || d > 6 {
			issues = append(issues, fmt.Sprintf("schedule.operating_days: %d is not a weekday (0=Sunday..6=Saturday)", d))
		}
		if seen[d] {
			issues = append(issues, fmt.Sprintf("schedule.operating_days: %d listed twice", d))
		}
		seen[d] = true
	}
	if s.HourStart < 0 || s.HourStart > 23 {
		issues = append(issues, fmt.Sprintf("schedule.hour_start %d must be in [0,23]", s.HourStart))
	}
	if s.HourEnd <= s.HourStart || s.HourEnd > 24 {
		issues = append(issues, fmt.Sprintf("schedule.hour_end %d must be after hour_start and at most 24", s.HourEnd))
	}
	if s.Timezone == "" {
		issues = append(issues, "schedule.timezone is required")
	} else if _, err := time.LoadLocation(s.Timezone); err != nil {
		issues = append(issues, fmt.Sprintf("schedule.timezone %q: %v", s.Timezone, err))
	}
	if s.TTLOperatingSeconds <= 0 || s.TTLMaxSeconds <= 0 || s.TTLStaleOnErrorSeconds <= 0 || s.TTLTestModeSeconds <= 0 {
		issues = append(issues, "schedule ttl values must be positive")
	}

	switch c.Cache.Backend {
	case "memory":
	case "badger":
		if c.Storage.Badger.Path == "" {
			issues = append(issues, "storage.badger.path is required when cache.backend is badger")
		}
	default:
		issues = append(issues, fmt.Sprintf("cache.backend %q must be memory or badger", c.Cache.Backend))
	}

	return issues
}

// IsDevMode reports whether the portal runs in a development environment.
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}
