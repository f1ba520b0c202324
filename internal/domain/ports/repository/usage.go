package repository

import (
	"context"

	"legalmarket-subscription/internal/domain/model"
)

// UsageEventRepository is the append log of quota consumption.
type UsageEventRepository interface {
	Append(ctx context.Context, tx Tx, ev *model.UsageEvent) error
	SumBySubscription(ctx context.Context, tx Tx, subscriptionID string) (int64, error)
}
