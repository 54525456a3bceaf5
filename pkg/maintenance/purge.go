// Package maintenance runs scheduled housekeeping jobs.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/storage"
)

// TokenPurger periodically deletes consumed and expired one-time tokens.
// Purging is hygiene only; expired and consumed tokens are already rejected
// at lookup, so a missed run never affects correctness.
type TokenPurger struct {
	store    storage.CredentialStore
	logger   *observability.Logger
	metrics  *observability.Metrics
	schedule string
	cron     *cron.Cron
}

// NewTokenPurger creates a purger with the given cron schedule. An empty
// schedule defaults to hourly.
func NewTokenPurger(store storage.CredentialStore, logger *observability.Logger, metrics *observability.Metrics, schedule string) *TokenPurger {
	if schedule == "" {
		schedule = "0 * * * *"
	}
	return &TokenPurger{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start schedules the purge job and begins running it
func (p *TokenPurger) Start() error {
	if _, err := p.cron.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		p.RunOnce(ctx)
	}); err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (p *TokenPurger) Stop() {
	<-p.cron.Stop().Done()
}

// RunOnce performs a single purge pass
func (p *TokenPurger) RunOnce(ctx context.Context) {
	removed, err := p.store.PurgeOneTimeTokens(ctx, time.Now().UTC())
	if err != nil {
		p.logger.WithError(err).Error("one-time token purge failed")
		return
	}
	if p.metrics != nil {
		p.metrics.OneTimeTokensPurged.Add(float64(removed))
	}
	if removed > 0 {
		p.logger.WithField("removed", removed).Info("purged one-time tokens")
	}
}
