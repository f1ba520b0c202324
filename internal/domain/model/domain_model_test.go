//go:build !integration

package model_test

import (
	"testing"
	"time"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
)

func TestYearlyPriceCents(t *testing.T) {
	cases := []struct {
		name     string
		monthly  int64
		discount float64
		want     int64
	}{
		{"standard 19.99", 1999, 0.10, 21589},
		{"round down", 1000, 0.10, 10800},
		{"premium 49.99", 4999, 0.10, 53989},
		{"free plan", 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := model.YearlyPriceCents(c.monthly, c.discount); got != c.want {
				t.Errorf("YearlyPriceCents(%d, %v) = %d, want %d", c.monthly, c.discount, got, c.want)
			}
		})
	}
}

func TestUpgradeCredit(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	t.Run("halfway through the period credits half the price", func(t *testing.T) {
		now := start.AddDate(0, 0, 15)
		if got := model.UpgradeCredit(now, start, end, 3000); got != 1500 {
			t.Errorf("credit = %d, want 1500", got)
		}
	})

	t.Run("period already over yields zero", func(t *testing.T) {
		if got := model.UpgradeCredit(end, start, end, 3000); got != 0 {
			t.Errorf("credit = %d, want 0", got)
		}
	})

	t.Run("malformed period yields zero", func(t *testing.T) {
		if got := model.UpgradeCredit(start, end, start, 3000); got != 0 {
			t.Errorf("credit = %d, want 0", got)
		}
	})
}

func TestNewPlan(t *testing.T) {
	t.Run("paid plan gets the fixed yearly discount", func(t *testing.T) {
		p, err := model.NewPlan("plan-1", "Standard", 1999, 500_000, []string{"ai_assistant"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.YearlyDiscountRate != model.DefaultYearlyDiscountRate {
			t.Errorf("discount = %v, want %v", p.YearlyDiscountRate, model.DefaultYearlyDiscountRate)
		}
		if p.PriceCents(model.BillingPeriodYearly) != 21589 {
			t.Errorf("yearly price = %d, want 21589", p.PriceCents(model.BillingPeriodYearly))
		}
	})

	t.Run("free plan has no discount", func(t *testing.T) {
		p, err := model.NewPlan("plan-free", "Free", 0, 100, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.IsFree() || p.YearlyDiscountRate != 0 {
			t.Errorf("free plan misconstructed: %+v", p)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		if _, err := model.NewPlan("", "x", 0, 0, nil); err != domain.ErrInvalidArgument {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := model.NewPlan("p", "x", -1, 0, nil); err != domain.ErrInvalidArgument {
			t.Errorf("expected ErrInvalidArgument on negative price, got %v", err)
		}
		if _, err := model.NewPlan("p", "x", 0, -2, nil); err != domain.ErrInvalidArgument {
			t.Errorf("expected ErrInvalidArgument on bad limit, got %v", err)
		}
	})

	t.Run("accepts the unlimited sentinel", func(t *testing.T) {
		p, err := model.NewPlan("p", "Pro", 4999, model.TokenUnlimited, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.Unmetered() {
			t.Error("expected plan to be unmetered")
		}
	})
}

func TestNewSubscription(t *testing.T) {
	plan, _ := model.NewPlan("plan-1", "Standard", 1999, 500, nil)
	free, _ := model.NewPlan("plan-free", "Free", 0, 100, nil)

	t.Run("snapshots the plan quota and starts pending", func(t *testing.T) {
		s, err := model.NewSubscription("sub-1", "user-1", plan, model.BillingPeriodMonthly)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Status != model.SubscriptionStatusPending {
			t.Errorf("status = %s, want pending", s.Status)
		}
		if s.TokenLimit != plan.TokenLimit || s.TokenUsage != 0 {
			t.Errorf("quota snapshot wrong: usage=%d limit=%d", s.TokenUsage, s.TokenLimit)
		}
		if s.StartAt != nil || s.EndAt != nil {
			t.Error("pending subscription must not have a coverage period yet")
		}
	})

	t.Run("free plans have no yearly option", func(t *testing.T) {
		if _, err := model.NewSubscription("sub-2", "user-1", free, model.BillingPeriodYearly); err != domain.ErrInvalidArgument {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSubscriptionTransitions(t *testing.T) {
	plan, _ := model.NewPlan("plan-1", "Standard", 1999, 500, nil)

	t.Run("activate anchors one billing period at now", func(t *testing.T) {
		s, _ := model.NewSubscription("sub-1", "user-1", plan, model.BillingPeriodMonthly)
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		if err := s.Activate(now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Status != model.SubscriptionStatusActive || !s.AutoRenew {
			t.Errorf("activate left status=%s autoRenew=%v", s.Status, s.AutoRenew)
		}
		if !s.EndAt.Equal(now.AddDate(0, 1, 0)) {
			t.Errorf("end = %v, want %v", s.EndAt, now.AddDate(0, 1, 0))
		}
	})

	t.Run("activate rejects non-pending rows", func(t *testing.T) {
		s, _ := model.NewSubscription("sub-1", "user-1", plan, model.BillingPeriodMonthly)
		_ = s.Activate(time.Now())
		if err := s.Activate(time.Now()); err != domain.ErrSubscriptionNotPending {
			t.Errorf("expected ErrSubscriptionNotPending, got %v", err)
		}
	})

	t.Run("due only past the end of the coverage period", func(t *testing.T) {
		s, _ := model.NewSubscription("sub-1", "user-1", plan, model.BillingPeriodMonthly)
		now := time.Now()
		_ = s.Activate(now)
		if s.Due(now) {
			t.Error("fresh subscription must not be due")
		}
		if !s.Due(now.AddDate(0, 1, 1)) {
			t.Error("subscription past EndAt must be due")
		}
	})

	t.Run("pending_cancellation stays consumable until it lapses", func(t *testing.T) {
		s, _ := model.NewSubscription("sub-1", "user-1", plan, model.BillingPeriodMonthly)
		now := time.Now()
		_ = s.Activate(now)
		s.Status = model.SubscriptionStatusPendingCancellation
		s.AutoRenew = false
		if !s.Consumable(now.Add(time.Hour)) {
			t.Error("cancelled-but-paid subscription must remain consumable")
		}
		if s.Consumable(now.AddDate(0, 1, 1)) {
			t.Error("lapsed subscription must not be consumable")
		}
	})
}
