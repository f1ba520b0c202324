package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages the plan catalog.
type PlanUseCase interface {
	Create(ctx context.Context, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error)
	Update(ctx context.Context, id, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error)
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
	// Delete removes a plan; blocked with ErrPlanInUse while any subscription
	// references it, so existing quota snapshots keep a resolvable plan id.
	Delete(ctx context.Context, id string) error
}

type planUC struct {
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
	txm   repository.TransactionManager
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, subs repository.SubscriptionRepository, txm repository.TransactionManager, logger *zerolog.Logger) *planUC {
	l := logger.With().Str("component", "PlanUC").Logger()
	return &planUC{plans: plans, subs: subs, txm: txm, log: &l}
}

func (u *planUC) Create(ctx context.Context, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, monthlyPriceCents, tokenLimit, features)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", plan.ID).Str("name", plan.Name).Msg("plan created")
	return plan, nil
}

func (u *planUC) Update(ctx context.Context, id, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error) {
	existing, err := u.plans.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	updated, err := model.NewPlan(existing.ID, name, monthlyPriceCents, tokenLimit, features)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = existing.CreatedAt
	if err := u.plans.Save(ctx, repository.NoTX, updated); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", updated.ID).Msg("plan updated")
	return updated, nil
}

func (u *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (u *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListAll(ctx, repository.NoTX)
}

func (u *planUC) Delete(ctx context.Context, id string) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.plans.FindByID(ctx, tx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrPlanNotFound
			}
			return err
		}
		n, err := u.subs.CountByPlan(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrPlanInUse
		}
		if err := u.plans.Delete(ctx, tx, id); err != nil {
			return err
		}
		u.log.Info().Str("plan_id", id).Msg("plan deleted")
		return nil
	})
}
