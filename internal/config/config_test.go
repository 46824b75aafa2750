package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1/models", cfg.Catalog.Endpoint)
	assert.Equal(t, 300, cfg.Catalog.TTLSeconds)
	assert.Empty(t, cfg.Catalog.RefreshSchedule)
	assert.True(t, cfg.Telemetry.AppendAborted)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Empty(t, cfg.Tools.WebAllowlist)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Telemetry.Path = "/tmp/runs.csv"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects negative catalog TTL", func(t *testing.T) {
		cfg := valid()
		cfg.Catalog.TTLSeconds = -1

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ttl_seconds")
	})

	t.Run("requires telemetry path", func(t *testing.T) {
		cfg := valid()
		cfg.Telemetry.Path = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry path")
	})

	t.Run("rejects unknown logging level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logging level")
	})

	t.Run("rejects negative rotation size", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.MaxSizeMB = -1

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max_size_mb")
	})

	t.Run("rejects empty allowlist hosts", func(t *testing.T) {
		cfg := valid()
		cfg.Tools.WebAllowlist = []string{"example.com", ""}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "allowlist")
	})
}

func TestCatalogTTL(t *testing.T) {
	cfg := CatalogConfig{TTLSeconds: 120}
	assert.Equal(t, "2m0s", cfg.TTL().String())
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credentials.AnthropicAPIKey = "sk-ant-secret"

	s := cfg.String()
	assert.Contains(t, s, "catalog")
	assert.NotContains(t, s, "sk-ant-secret")
}
