package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arvid/lumen/internal/config"
	"github.com/arvid/lumen/internal/logger"
	"github.com/arvid/lumen/pkg/catalog"
)

// loadEnvironment loads the config and builds the logger shared by the
// subcommands.
func loadEnvironment() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:     level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		Console:   false,
		Redaction: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}

// newCatalog builds the catalog service and, when a refresh schedule is
// configured, starts the background refresher. The caller stops the
// returned refresher; it is nil when no schedule is set.
func newCatalog(cfg *config.Config, zlog zerolog.Logger) (*catalog.Service, *catalog.Refresher, error) {
	svc := catalog.NewService(catalog.Config{
		Endpoint: cfg.Catalog.Endpoint,
		APIKey:   cfg.Credentials.OpenAIAPIKey,
		TTL:      cfg.Catalog.TTL(),
		Logger:   zlog,
	})

	if cfg.Catalog.RefreshSchedule == "" {
		return svc, nil, nil
	}

	refresher := catalog.NewRefresher(svc, zlog, nil)
	if err := refresher.Start(cfg.Catalog.RefreshSchedule); err != nil {
		return nil, nil, err
	}
	return svc, refresher, nil
}
