package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.UsageEventRepository = (*usageEventRepo)(nil)

type usageEventRepo struct {
	pool *pgxpool.Pool
}

func NewUsageEventRepo(pool *pgxpool.Pool) *usageEventRepo {
	return &usageEventRepo{pool: pool}
}

func (r *usageEventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.UsageEvent) error {
	const q = `
INSERT INTO usage_events (id, subscription_id, amount, at)
VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, ev.ID, ev.SubscriptionID, ev.Amount, ev.At)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *usageEventRepo) SumBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM usage_events WHERE subscription_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
