package repository

import (
	"context"
	"time"

	"legalmarket-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for the subscription ledger.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)

	// FindCurrentByUser returns the user's single row in
	// {pending, active, pending_cancellation}, or ErrNotFound.
	FindCurrentByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// ListByUser returns all rows for the user, newest first.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// FindDue returns active/pending_cancellation rows past their EndAt.
	FindDue(ctx context.Context, tx Tx, now time.Time) ([]*model.Subscription, error)

	// FindStalePending returns pending rows created before the cutoff.
	FindStalePending(ctx context.Context, tx Tx, before time.Time) ([]*model.Subscription, error)

	// ConsumeTokens atomically increments token_usage by amount iff the quota
	// allows it (or the limit is the unlimited sentinel). Returns false, nil
	// when the quota would be exceeded; no partial increment happens.
	ConsumeTokens(ctx context.Context, tx Tx, subID string, amount int64) (bool, error)

	// LockUser serializes mutations for a user within the current transaction.
	LockUser(ctx context.Context, tx Tx, userID string) error

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
	CountByPlan(ctx context.Context, tx Tx, planID string) (int, error)
}
