package config

import "github.com/bobmcallan/timesup-portal/internal/common"

// NewDefaultConfig creates a configuration with default values.
// The schedule defaults are the Sunday/Wednesday 17:00-20:00 Eastern windows.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4251,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds: 15,
		},
		Schedule: ScheduleConfig{
			OperatingDays:          []int{0, 3},
			HourStart:              17,
			HourEnd:                20,
			Timezone:               "America/New_York",
			TTLOperatingSeconds:    60,
			TTLMaxSeconds:          24 * 60 * 60,
			TTLStaleOnErrorSeconds: 60,
			TTLTestModeSeconds:     60,
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/timesup",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
