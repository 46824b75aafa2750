package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main Lumen configuration
type Config struct {
	// Credentials are bound from the environment, never written to file
	Credentials CredentialsConfig `json:"-" mapstructure:"credentials"`

	// Catalog configuration
	Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`

	// Telemetry configuration
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`

	// Tools configuration
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// CredentialsConfig holds the provider API keys
type CredentialsConfig struct {
	AnthropicAPIKey string `json:"-" mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `json:"-" mapstructure:"openai_api_key"`
}

// CatalogConfig holds model catalog settings
type CatalogConfig struct {
	Endpoint   string `json:"endpoint" mapstructure:"endpoint"`
	TTLSeconds int    `json:"ttl_seconds" mapstructure:"ttl_seconds"`

	// RefreshSchedule is an optional 5-field cron expression for forced
	// refreshes in long-lived processes. Empty disables the schedule.
	RefreshSchedule string `json:"refresh_schedule" mapstructure:"refresh_schedule"`
}

// TTL returns the cache TTL as a duration.
func (c CatalogConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// TelemetryConfig holds run log settings
type TelemetryConfig struct {
	Path string `json:"path" mapstructure:"path"`

	// AppendAborted controls whether cancelled runs are recorded
	AppendAborted bool `json:"append_aborted" mapstructure:"append_aborted"`
}

// ToolsConfig holds capability tool settings
type ToolsConfig struct {
	// WebAllowlist enables the web-fetch capability when non-empty
	WebAllowlist []string `json:"web_allowlist" mapstructure:"web_allowlist"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`

	// MaxSizeMB rotates the log file past this size. 0 disables rotation.
	MaxSizeMB int `json:"max_size_mb" mapstructure:"max_size_mb"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Endpoint:   "https://api.openai.com/v1/models",
			TTLSeconds: 300,
		},
		Telemetry: TelemetryConfig{
			AppendAborted: true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Catalog.TTLSeconds < 0 {
		return fmt.Errorf("catalog ttl_seconds must not be negative")
	}

	if c.Telemetry.Path == "" {
		return fmt.Errorf("telemetry path is required")
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("logging max_size_mb must not be negative")
	}

	for _, host := range c.Tools.WebAllowlist {
		if host == "" {
			return fmt.Errorf("web allowlist must not contain empty hosts")
		}
	}

	return nil
}
