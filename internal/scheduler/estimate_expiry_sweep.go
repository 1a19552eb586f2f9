package scheduler

import (
	"context"
	"time"

	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EstimateExpirySweep reclassifies pending estimates whose validity window has
// closed. Reads already treat a stale pending row as expired; the sweep keeps
// the stored status in line for reporting queries.
type EstimateExpirySweep struct {
	pool     *pgxpool.Pool
	interval time.Duration
	log      *logger.Logger
}

func NewEstimateExpirySweep(pool *pgxpool.Pool, log *logger.Logger) *EstimateExpirySweep {
	return &EstimateExpirySweep{
		pool:     pool,
		interval: 10 * time.Minute,
		log:      log,
	}
}

func (s *EstimateExpirySweep) Run(ctx context.Context) {
	if s == nil || s.pool == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *EstimateExpirySweep) sweep(ctx context.Context) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_estimates
		SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND valid_until IS NOT NULL AND valid_until < now()
	`)
	if err != nil {
		s.log.Warn("estimate expiry sweep failed", "error", err)
		return
	}
	if tag.RowsAffected() > 0 {
		s.log.Info("estimates expired", "count", tag.RowsAffected())
	}
}
