package app

import (
	"context"
	"time"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

// priceScheduler keeps live prices fresh and closes each month's prices once
// the calendar rolls over.
type priceScheduler struct {
	assets      interfaces.AssetService
	invalidator interfaces.CacheInvalidator
	logger      *common.Logger
	now         func() time.Time
	month       models.Month
}

func newPriceScheduler(assets interfaces.AssetService, invalidator interfaces.CacheInvalidator, logger *common.Logger, now func() time.Time) *priceScheduler {
	return &priceScheduler{
		assets:      assets,
		invalidator: invalidator,
		logger:      logger,
		now:         now,
		month:       models.MonthOf(now()),
	}
}

// run refreshes prices on a fixed interval until ctx is cancelled.
func (s *priceScheduler) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("Price scheduler: started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick records the finished month's closes before prices move on, then syncs
// live prices and drops cached valuations that depend on them.
func (s *priceScheduler) tick(ctx context.Context) {
	start := time.Now()

	current := models.MonthOf(s.now())
	if current.After(s.month) {
		n, err := s.assets.RecordMonthlyClose(ctx, s.month)
		if err != nil {
			s.logger.Warn().Err(err).Str("month", s.month.String()).Msg("Price refresh: monthly close failed")
		} else {
			s.logger.Info().Str("month", s.month.String()).Int("assets", n).Msg("Price refresh: monthly close recorded")
			s.month = current
		}
	}

	updated, err := s.assets.SyncPrices(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Price refresh: sync failed")
		return
	}

	if updated > 0 {
		if err := s.invalidator.InvalidateAll(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Price refresh: cache flush failed")
		}
	}

	s.logger.Info().
		Int("updated", updated).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
}
