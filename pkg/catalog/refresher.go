package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/arvid/lumen/internal/metrics"
)

// Refresher keeps the catalog cache warm in long-lived processes by forcing
// a refresh on a cron schedule. It is optional; without it the cache
// refreshes lazily on TTL expiry.
type Refresher struct {
	service *Service
	logger  zerolog.Logger
	metrics *metrics.Metrics
	cron    *cron.Cron
}

// NewRefresher creates a stopped refresher for the given service. metrics
// may be nil.
func NewRefresher(service *Service, logger zerolog.Logger, m *metrics.Metrics) *Refresher {
	return &Refresher{
		service: service,
		logger:  logger.With().Str("module", "catalog-refresher").Logger(),
		metrics: m,
	}
}

// Start schedules a forced refresh using a standard 5-field cron expression.
func (r *Refresher) Start(expr string) error {
	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		_, source := r.service.GetModels(ctx, true)
		if r.metrics != nil {
			r.metrics.CatalogRefreshesTotal.WithLabelValues(string(source)).Inc()
		}
		r.logger.Debug().Str("source", string(source)).Msg("Scheduled catalog refresh")
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", expr, err)
	}

	c.Start()
	r.cron = c
	r.logger.Info().Str("schedule", expr).Msg("Catalog refresher started")
	return nil
}

// Stop halts the schedule and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
	r.logger.Info().Msg("Catalog refresher stopped")
}
