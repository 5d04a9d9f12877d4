// Package scheduler runs periodic housekeeping: expiring checkout orders that
// were never paid and switching off coupons past their expiry.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type OrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type CouponExpirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	orders  OrderExpirer
	coupons CouponExpirer
	spec    string
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// New builds a scheduler that runs on the cron spec and expires pending
// orders older than ttl.
func New(orders OrderExpirer, coupons CouponExpirer, spec string, ttl time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		orders:  orders,
		coupons: coupons,
		spec:    spec,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With().Str("orchestrator", "scheduler").Logger(),
	}
}

// Run sweeps once at startup, then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	s.logger.Info().Str("cron", s.spec).Dur("order_ttl", s.ttl).Msg("Starting scheduler")
	s.Sweep(ctx)
	c.Start()

	<-ctx.Done()
	s.logger.Info().Msg("Shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

// Sweep runs every housekeeping task once. Failures are logged and retried on
// the next tick.
func (s *Scheduler) Sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.ttl)
	if n, err := s.orders.ExpireStale(ctx, cutoff); err != nil {
		s.logger.Error().Err(err).Msg("Failed to expire stale orders")
	} else if n > 0 {
		s.logger.Info().Int64("count", n).Time("cutoff", cutoff).Msg("Expired stale pending orders")
	}

	if n, err := s.coupons.DeactivateExpired(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to deactivate expired coupons")
	} else if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Deactivated expired coupons")
	}
}
