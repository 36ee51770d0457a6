package jobs

import (
	"context"
	"shopReco/pkg/config"
	"shopReco/pkg/logger"
	"time"
)

type PopularityService interface {
	RecomputePopularity(ctx context.Context, shopID string, windowDays int) error
}

type CoOccurrenceService interface {
	RebuildCoOccurrence(ctx context.Context, shopID string, windowDays int) error
}

// Runner drives the periodic derived-state rebuilds. Each job ticks on
// its own interval; shops within a tick run sequentially, and a shop
// failure never stops the others.
type Runner struct {
	cfg        config.JobsConfig
	popularity PopularityService
	cooccur    CoOccurrenceService
}

func NewRunner(cfg config.JobsConfig, popularity PopularityService, cooccur CoOccurrenceService) *Runner {
	return &Runner{
		cfg:        cfg,
		popularity: popularity,
		cooccur:    cooccur,
	}
}

// Start launches the job loops. They stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if len(r.cfg.Shops) == 0 {
		logger.Info("jobs runner idle, no shops configured")
		return
	}

	go r.loop(ctx, "popularity", r.cfg.PopularityInterval, func(ctx context.Context, shopID string) error {
		return r.popularity.RecomputePopularity(ctx, shopID, r.cfg.PopularityWindowDays)
	})

	go r.loop(ctx, "cooccurrence", r.cfg.CoOccurrenceInterval, func(ctx context.Context, shopID string) error {
		return r.cooccur.RebuildCoOccurrence(ctx, shopID, r.cfg.CoOccurrenceWindowDays)
	})
}

func (r *Runner) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context, string) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.runAllShops(ctx, name, run)

	for {
		select {
		case <-ctx.Done():
			logger.Info("jobs runner stopping", "job", name)
			return
		case <-ticker.C:
			r.runAllShops(ctx, name, run)
		}
	}
}

func (r *Runner) runAllShops(ctx context.Context, name string, run func(context.Context, string) error) {
	for _, shopID := range r.cfg.Shops {
		if ctx.Err() != nil {
			return
		}

		if err := run(ctx, shopID); err != nil {
			logger.Error("scheduled job failed",
				"job", name,
				"shop_id", shopID,
				"error", err,
			)
		}
	}
}
