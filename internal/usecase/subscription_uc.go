package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/adapter"
	"legalmarket-subscription/internal/domain/ports/repository"
)

// BillingPolicy carries the configurable lifecycle decisions.
type BillingPolicy struct {
	// AllowDeferredDowngrade turns a downgrade into a deferred cancellation of
	// the current plan instead of rejecting it outright.
	AllowDeferredDowngrade bool
	// ProrateUpgrades credits the unused fraction of the current period against
	// the first charge of the plan being upgraded to.
	ProrateUpgrades bool
	// PendingTTL is how long an unconfirmed pending subscription may linger
	// before the expiry worker garbage-collects it.
	PendingTTL time.Duration
	// ConfirmTimeout bounds the gateway call during payment confirmation.
	ConfirmTimeout time.Duration
}

// SubscribeResult is what a subscribe attempt produced: the pending row plus
// the first charge the caller must take to the gateway.
type SubscribeResult struct {
	Subscription       *model.Subscription
	FirstChargeCents   int64
	UpgradeCreditCents int64
	// Deferred is set when a downgrade was deferred to the next cycle: no new
	// row was created and Subscription is the current one, now winding down.
	Deferred bool
}

// PaymentInput is the caller-supplied half of a payment confirmation.
type PaymentInput struct {
	Provider      string
	ProviderTxnID string
	// UserID, when set, restricts the confirmation to subscriptions owned by
	// that user; a mismatch reads as not found.
	UserID string
	// Period optionally overrides the billing period chosen at subscribe time;
	// empty keeps the row's period.
	Period model.BillingPeriod
}

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase is the subscription lifecycle state machine.
type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, userID, planID string, period model.BillingPeriod) (*SubscribeResult, error)
	ConfirmPayment(ctx context.Context, subscriptionID string, in PaymentInput) (*model.Subscription, error)
	Cancel(ctx context.Context, userID string) (*model.Subscription, error)
	Current(ctx context.Context, userID string) (*model.Subscription, error)
	History(ctx context.Context, userID string) ([]*model.Subscription, error)

	// FinishExpired expires every due row and garbage-collects stale pending
	// rows. Returns the number of rows expired.
	FinishExpired(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

type subscriptionUC struct {
	subs    repository.SubscriptionRepository
	plans   repository.PlanRepository
	confs   repository.ConfirmationRepository
	txm     repository.TransactionManager
	gateway adapter.PaymentGateway
	policy  BillingPolicy
	log     *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	confs repository.ConfirmationRepository,
	txm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	policy BillingPolicy,
	logger *zerolog.Logger,
) *subscriptionUC {
	if policy.PendingTTL <= 0 {
		policy.PendingTTL = 48 * time.Hour
	}
	if policy.ConfirmTimeout <= 0 {
		policy.ConfirmTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:    subs,
		plans:   plans,
		confs:   confs,
		txm:     txm,
		gateway: gateway,
		policy:  policy,
		log:     &l,
	}
}

// Subscribe validates eligibility against the ledger and creates a pending row.
// Rules:
//   - no current subscription -> new pending row (free plans activate directly).
//   - lone pending row -> it is cancelled and replaced (retry of an abandoned attempt).
//   - active/pending_cancellation + more expensive plan -> upgrade: current row is
//     cancelled and the new pending row created in the same transaction.
//   - cheaper or same-price plan -> ErrDowngradeNotAllowed, or a deferred
//     cancellation when the policy allows it.
func (u *subscriptionUC) Subscribe(ctx context.Context, userID, planID string, period model.BillingPeriod) (*SubscribeResult, error) {
	if userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if period == "" {
		period = model.BillingPeriodMonthly
	}
	if !period.Valid() {
		return nil, domain.ErrInvalidArgument
	}

	var out *SubscribeResult
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := u.plans.FindByID(ctx, tx, planID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrPlanNotFound
			}
			return err
		}
		if plan.IsFree() && period == model.BillingPeriodYearly {
			return domain.ErrInvalidArgument
		}
		if err := u.subs.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		cur, err := u.subs.FindCurrentByUser(ctx, tx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		now := time.Now()

		if cur != nil && cur.Due(now) {
			// Lazy expiry on read: a lapsed row does not block a new subscribe.
			cur.Expire(now)
			if err := u.subs.Save(ctx, tx, cur); err != nil {
				return err
			}
			cur = nil
		}

		var credit int64
		switch {
		case cur == nil:
			// fall through to creation

		case cur.Status == model.SubscriptionStatusPending:
			// An unconfirmed attempt is not "subscribed"; replace it.
			cur.Status = model.SubscriptionStatusCancelled
			cur.UpdatedAt = now
			if err := u.subs.Save(ctx, tx, cur); err != nil {
				return err
			}
			u.log.Info().Str("user_id", userID).Str("sub_id", cur.ID).Msg("stale pending subscription replaced")

		default: // active or pending_cancellation
			curPlan, err := u.plans.FindByID(ctx, tx, cur.PlanID)
			if err != nil {
				return err
			}
			if plan.ID == curPlan.ID {
				return domain.ErrAlreadySubscribed
			}
			if plan.MonthlyPriceCents <= curPlan.MonthlyPriceCents {
				if !u.policy.AllowDeferredDowngrade || cur.Status != model.SubscriptionStatusActive {
					return domain.ErrDowngradeNotAllowed
				}
				// Deferred downgrade: wind down the current plan; the user
				// subscribes to the cheaper one once it lapses.
				cur.Status = model.SubscriptionStatusPendingCancellation
				cur.AutoRenew = false
				cur.UpdatedAt = now
				if err := u.subs.Save(ctx, tx, cur); err != nil {
					return err
				}
				out = &SubscribeResult{Subscription: cur, Deferred: true}
				u.log.Info().Str("user_id", userID).Str("sub_id", cur.ID).Msg("downgrade deferred to end of period")
				return nil
			}
			// Upgrade: the current row is being replaced, not lapsing.
			if u.policy.ProrateUpgrades && cur.StartAt != nil && cur.EndAt != nil {
				credit = model.UpgradeCredit(now, *cur.StartAt, *cur.EndAt, curPlan.PriceCents(cur.BillingPeriod))
			}
			cur.Status = model.SubscriptionStatusCancelled
			cur.AutoRenew = false
			cur.UpdatedAt = now
			if err := u.subs.Save(ctx, tx, cur); err != nil {
				return err
			}
			u.log.Info().Str("user_id", userID).Str("sub_id", cur.ID).Int64("credit_cents", credit).Msg("subscription replaced by upgrade")
		}

		sub, err := model.NewSubscription(uuid.NewString(), userID, plan, period)
		if err != nil {
			return err
		}
		charge := plan.PriceCents(period) - credit
		if charge < 0 {
			charge = 0
		}
		if plan.IsFree() {
			if err := sub.Activate(now); err != nil {
				return err
			}
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = &SubscribeResult{Subscription: sub, FirstChargeCents: charge, UpgradeCreditCents: credit}
		u.log.Info().
			Str("user_id", userID).
			Str("sub_id", sub.ID).
			Str("plan_id", plan.ID).
			Str("period", string(period)).
			Int64("charge_cents", charge).
			Msg("subscription created")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmPayment commits a pending subscription to active. Idempotent on
// (subscriptionID, providerTxnID): replays return the committed state without
// re-mutating. A failed or timed-out gateway call leaves the row pending.
func (u *subscriptionUC) ConfirmPayment(ctx context.Context, subscriptionID string, in PaymentInput) (*model.Subscription, error) {
	if subscriptionID == "" || in.Provider == "" || in.ProviderTxnID == "" {
		return nil, domain.ErrInvalidArgument
	}

	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	if in.UserID != "" && sub.UserID != in.UserID {
		// Do not leak someone else's subscription id.
		return nil, domain.ErrNotFound
	}
	if _, err := u.confs.FindBySubscriptionAndTxn(ctx, repository.NoTX, subscriptionID, in.ProviderTxnID); err == nil {
		// Replay of an applied confirmation: return the committed result.
		return sub, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if sub.Status != model.SubscriptionStatusPending {
		return nil, domain.ErrSubscriptionNotPending
	}

	period := sub.BillingPeriod
	if in.Period != "" {
		if !in.Period.Valid() {
			return nil, domain.ErrInvalidArgument
		}
		period = in.Period
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, sub.PlanID)
	if err != nil {
		return nil, err
	}
	amount := plan.PriceCents(period)

	// The gateway call stays outside the transaction so a slow provider never
	// holds row locks. The in-tx dedupe insert below resolves races.
	gctx, cancel := context.WithTimeout(ctx, u.policy.ConfirmTimeout)
	defer cancel()
	res, err := u.gateway.Confirm(gctx, adapter.ConfirmationRequest{
		SubscriptionID: subscriptionID,
		Provider:       in.Provider,
		ProviderTxnID:  in.ProviderTxnID,
		AmountCents:    amount,
	})
	if err != nil {
		u.log.Warn().Err(err).Str("sub_id", subscriptionID).Msg("gateway confirmation errored; subscription stays pending")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	if !res.Success {
		u.log.Warn().Str("sub_id", subscriptionID).Str("reason", res.FailureReason).Msg("gateway declined confirmation")
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, res.FailureReason)
	}
	// Dedupe stays keyed on the caller's id; a gateway that answers with its
	// own reference must not change what a retry looks up.
	gatewayRef := ""
	if res.ProviderTxnID != "" && res.ProviderTxnID != in.ProviderTxnID {
		gatewayRef = res.ProviderTxnID
	}

	var committed *model.Subscription
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if err := u.subs.LockUser(ctx, tx, cur.UserID); err != nil {
			return err
		}

		conf, err := model.NewPaymentConfirmation(uuid.NewString(), subscriptionID, in.Provider, in.ProviderTxnID, period, amount)
		if err != nil {
			return err
		}
		conf.GatewayRef = gatewayRef
		if err := u.confs.Save(ctx, tx, conf); err != nil {
			if errors.Is(err, domain.ErrDuplicateConfirmation) {
				// Concurrent retry won the race; its result stands.
				committed = cur
				return nil
			}
			return err
		}
		if cur.Status != model.SubscriptionStatusPending {
			return domain.ErrSubscriptionNotPending
		}
		cur.BillingPeriod = period
		if err := cur.Activate(time.Now()); err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, cur); err != nil {
			return err
		}
		committed = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().
		Str("sub_id", committed.ID).
		Str("provider", in.Provider).
		Str("txn_id", in.ProviderTxnID).
		Str("gateway_ref", gatewayRef).
		Str("status", string(committed.Status)).
		Msg("payment confirmation applied")
	return committed, nil
}

// Cancel applies the caller's cancellation to their current subscription:
// active rows become pending_cancellation (entitlement kept until EndAt),
// pending rows are abandoned outright.
func (u *subscriptionUC) Cancel(ctx context.Context, userID string) (*model.Subscription, error) {
	var out *model.Subscription
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		cur, err := u.subs.FindCurrentByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		switch cur.Status {
		case model.SubscriptionStatusActive:
			cur.Status = model.SubscriptionStatusPendingCancellation
			cur.AutoRenew = false
		case model.SubscriptionStatusPending:
			cur.Status = model.SubscriptionStatusCancelled
		default:
			return domain.ErrNotActive
		}
		cur.UpdatedAt = now
		if err := u.subs.Save(ctx, tx, cur); err != nil {
			return err
		}
		out = cur
		u.log.Info().Str("user_id", userID).Str("sub_id", cur.ID).Str("status", string(cur.Status)).Msg("subscription cancelled")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Current returns the user's current row, applying lazy expiry first so reads
// past EndAt are consistent without a background job.
func (u *subscriptionUC) Current(ctx context.Context, userID string) (*model.Subscription, error) {
	var out *model.Subscription
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.subs.FindCurrentByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		if cur.Due(now) {
			if err := u.subs.LockUser(ctx, tx, userID); err != nil {
				return err
			}
			cur.Expire(now)
			// Returning nil commits the lazy expiry; the caller sees NotFound below.
			return u.subs.Save(ctx, tx, cur)
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (u *subscriptionUC) History(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) FinishExpired(ctx context.Context) (int, error) {
	expired := 0
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		due, err := u.subs.FindDue(ctx, tx, now)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		for _, s := range due {
			s.Expire(now)
			if err := u.subs.Save(ctx, tx, s); err != nil {
				return err
			}
			expired++
		}
		stale, err := u.subs.FindStalePending(ctx, tx, now.Add(-u.policy.PendingTTL))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		for _, s := range stale {
			s.Status = model.SubscriptionStatusCancelled
			s.UpdatedAt = now
			if err := u.subs.Save(ctx, tx, s); err != nil {
				return err
			}
		}
		if len(stale) > 0 {
			u.log.Info().Int("count", len(stale)).Msg("stale pending subscriptions cancelled")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func (u *subscriptionUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return u.subs.CountByStatus(ctx, repository.NoTX)
}
