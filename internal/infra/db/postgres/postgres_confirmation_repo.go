package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.ConfirmationRepository = (*confirmationRepo)(nil)

type confirmationRepo struct {
	pool *pgxpool.Pool
}

func NewConfirmationRepo(pool *pgxpool.Pool) *confirmationRepo {
	return &confirmationRepo{pool: pool}
}

func (r *confirmationRepo) Save(ctx context.Context, tx repository.Tx, c *model.PaymentConfirmation) error {
	const q = `
INSERT INTO payment_confirmations (id, subscription_id, provider, provider_txn_id, gateway_ref, billing_period, amount_cents, received_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.SubscriptionID, c.Provider, c.ProviderTxnID, c.GatewayRef, c.BillingPeriod, c.AmountCents, c.ReceivedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			// Unique (subscription_id, provider_txn_id) makes replays collide here.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrDuplicateConfirmation
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *confirmationRepo) FindBySubscriptionAndTxn(ctx context.Context, tx repository.Tx, subscriptionID, providerTxnID string) (*model.PaymentConfirmation, error) {
	const q = `
SELECT id, subscription_id, provider, provider_txn_id, gateway_ref, billing_period, amount_cents, received_at
  FROM payment_confirmations
 WHERE subscription_id=$1 AND provider_txn_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID, providerTxnID)
	if err != nil {
		return nil, err
	}

	c := &model.PaymentConfirmation{}
	var period string
	if err := row.Scan(&c.ID, &c.SubscriptionID, &c.Provider, &c.ProviderTxnID, &c.GatewayRef, &period, &c.AmountCents, &c.ReceivedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.BillingPeriod = model.BillingPeriod(period)
	return c, nil
}
