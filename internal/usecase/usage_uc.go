package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ UsageUseCase = (*usageUC)(nil)

// UsageUseCase meters token consumption against a subscription's quota.
type UsageUseCase interface {
	// Consume attributes amount tokens to the subscription. Fails atomically
	// with ErrQuotaExceeded (no partial increment) when the quota would be
	// exceeded, and with ErrNotActive when the row cannot consume.
	Consume(ctx context.Context, subscriptionID string, amount int64) (*model.Subscription, error)

	// Remaining reports (used, limit); limit is TokenUnlimited for unmetered rows.
	Remaining(ctx context.Context, subscriptionID string) (used int64, limit int64, err error)
}

type usageUC struct {
	subs  repository.SubscriptionRepository
	usage repository.UsageEventRepository
	txm   repository.TransactionManager
	log   *zerolog.Logger
}

func NewUsageUseCase(subs repository.SubscriptionRepository, usage repository.UsageEventRepository, txm repository.TransactionManager, logger *zerolog.Logger) *usageUC {
	l := logger.With().Str("component", "UsageUC").Logger()
	return &usageUC{subs: subs, usage: usage, txm: txm, log: &l}
}

func (u *usageUC) Consume(ctx context.Context, subscriptionID string, amount int64) (*model.Subscription, error) {
	if subscriptionID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.Subscription
	var lapsed bool
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if err := u.subs.LockUser(ctx, tx, sub.UserID); err != nil {
			return err
		}
		now := time.Now()
		if sub.Due(now) {
			// Lazy expiry: persist the transition the first time the row is
			// observed past EndAt (commit, don't roll back), then reject.
			sub.Expire(now)
			lapsed = true
			return u.subs.Save(ctx, tx, sub)
		}
		if !sub.Consumable(now) {
			return domain.ErrNotActive
		}

		ok, err := u.subs.ConsumeTokens(ctx, tx, subscriptionID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrQuotaExceeded
		}
		ev, err := model.NewUsageEvent(uuid.NewString(), subscriptionID, amount)
		if err != nil {
			return err
		}
		if err := u.usage.Append(ctx, tx, ev); err != nil {
			return err
		}
		sub.TokenUsage += amount
		sub.UpdatedAt = now
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, domain.ErrNotActive
	}
	u.log.Debug().Str("sub_id", subscriptionID).Int64("amount", amount).Int64("usage", out.TokenUsage).Msg("tokens consumed")
	return out, nil
}

func (u *usageUC) Remaining(ctx context.Context, subscriptionID string) (int64, int64, error) {
	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return 0, 0, err
	}
	return sub.TokenUsage, sub.TokenLimit, nil
}
