package repository

import (
	"context"

	"legalmarket-subscription/internal/domain/model"
)

// ConfirmationRepository is the dedupe store for applied payment confirmations.
type ConfirmationRepository interface {
	// Save inserts a confirmation. Returns ErrDuplicateConfirmation when the
	// (subscriptionID, providerTxnID) pair was already applied; the uniqueness
	// lives in a database constraint so it survives concurrent retries.
	Save(ctx context.Context, tx Tx, c *model.PaymentConfirmation) error

	FindBySubscriptionAndTxn(ctx context.Context, tx Tx, subscriptionID, providerTxnID string) (*model.PaymentConfirmation, error)
}
