//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/usecase"
)

func TestPlanUseCase(t *testing.T) {
	ctx := context.Background()

	newUC := func() (usecase.PlanUseCase, *usecase.MockPlanRepo, *usecase.MockSubscriptionRepo) {
		plans := usecase.NewMockPlanRepo()
		subs := usecase.NewMockSubscriptionRepo()
		return usecase.NewPlanUseCase(plans, subs, usecase.NewMockTxManager(), usecase.NewTestLogger()), plans, subs
	}

	t.Run("create assigns an id and the fixed yearly discount", func(t *testing.T) {
		uc, _, _ := newUC()
		p, err := uc.Create(ctx, "Standard", 1999, 500_000, []string{"ai_assistant"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.ID == "" || p.YearlyDiscountRate != model.DefaultYearlyDiscountRate {
			t.Errorf("plan misconstructed: %+v", p)
		}
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		uc, _, _ := newUC()
		if _, err := uc.Create(ctx, "", 1999, 100, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("update keeps the original creation time", func(t *testing.T) {
		uc, _, _ := newUC()
		p, _ := uc.Create(ctx, "Standard", 1999, 500_000, nil)
		up, err := uc.Update(ctx, p.ID, "Standard Plus", 2499, 750_000, []string{"ai_assistant"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if up.Name != "Standard Plus" || !up.CreatedAt.Equal(p.CreatedAt) {
			t.Errorf("update result: %+v", up)
		}
	})

	t.Run("get of a missing plan maps to PlanNotFound", func(t *testing.T) {
		uc, _, _ := newUC()
		if _, err := uc.Get(ctx, "plan-nope"); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound, got %v", err)
		}
	})

	t.Run("delete is blocked while subscriptions reference the plan", func(t *testing.T) {
		uc, _, subs := newUC()
		p, _ := uc.Create(ctx, "Standard", 1999, 500_000, nil)

		s, _ := model.NewSubscription("sub-1", "user-1", p, model.BillingPeriodMonthly)
		_ = subs.Save(ctx, nil, s)

		if err := uc.Delete(ctx, p.ID); !errors.Is(err, domain.ErrPlanInUse) {
			t.Fatalf("expected ErrPlanInUse, got %v", err)
		}
		// Terminal rows still reference the snapshot's plan id: still blocked.
		s.Status = model.SubscriptionStatusCancelled
		_ = subs.Save(ctx, nil, s)
		if err := uc.Delete(ctx, p.ID); !errors.Is(err, domain.ErrPlanInUse) {
			t.Fatalf("expected ErrPlanInUse for historical reference, got %v", err)
		}
	})

	t.Run("delete of an unreferenced plan succeeds", func(t *testing.T) {
		uc, _, _ := newUC()
		p, _ := uc.Create(ctx, "Orphan", 999, 100, nil)
		if err := uc.Delete(ctx, p.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := uc.Get(ctx, p.ID); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound after delete, got %v", err)
		}
	})
}
