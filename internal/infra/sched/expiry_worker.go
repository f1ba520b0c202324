package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/infra/metrics"
	red "legalmarket-subscription/internal/infra/redis"
	"legalmarket-subscription/internal/usecase"
)

const expiryLockKey = "sched:expiry"

// ExpiryWorker periodically finishes expired subscriptions via the use case
// and refreshes the per-status gauge. A Redis lock keeps the sweep
// single-flight when multiple replicas run.
type ExpiryWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	locker   red.Locker
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, locker red.Locker, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		subUC:    subUC,
		locker:   locker,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, expiryLockKey, w.interval)
		if err != nil {
			w.log.Debug().Msg("expiry sweep held by another replica")
			return
		}
		defer w.locker.Unlock(ctx, expiryLockKey, token)
	}

	n, err := w.subUC.FinishExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry worker error")
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		w.log.Info().Int("count", n).Msg("expired subscriptions finished")
	}

	counts, err := w.subUC.CountByStatus(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("count by status failed")
		return
	}
	metrics.SetSubscriptionsTotal(counts)
}
