package model

import (
	"time"

	"legalmarket-subscription/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending             SubscriptionStatus = "pending"
	SubscriptionStatusActive              SubscriptionStatus = "active"
	SubscriptionStatusPendingCancellation SubscriptionStatus = "pending_cancellation"
	SubscriptionStatusExpired             SubscriptionStatus = "expired"
	SubscriptionStatusCancelled           SubscriptionStatus = "cancelled"
)

type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

func (p BillingPeriod) Valid() bool {
	return p == BillingPeriodMonthly || p == BillingPeriodYearly
}

// Advance returns t plus one billing period.
func (p BillingPeriod) Advance(t time.Time) time.Time {
	if p == BillingPeriodYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

// Subscription is one ledger row per (user, coverage period). Rows are never
// physically deleted; expired and cancelled are terminal and kept for history.
type Subscription struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	PlanID        string             `json:"planId"`
	BillingPeriod BillingPeriod      `json:"billingPeriod"`
	Status        SubscriptionStatus `json:"status"`
	StartAt       *time.Time         `json:"startDate"` // nil until payment is confirmed
	EndAt         *time.Time         `json:"endDate"`   // nil until payment is confirmed
	AutoRenew     bool               `json:"autoRenew"`
	TokenUsage    int64              `json:"tokenUsage"`
	TokenLimit    int64              `json:"tokenLimit"` // plan quota snapshot, TokenUnlimited for unmetered
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// NewSubscription creates a pending subscription snapshotting the plan quota.
func NewSubscription(id, userID string, plan *Plan, period BillingPeriod) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if !period.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if plan.IsFree() && period == BillingPeriodYearly {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:            id,
		UserID:        userID,
		PlanID:        plan.ID,
		BillingPeriod: period,
		Status:        SubscriptionStatusPending,
		TokenUsage:    0,
		TokenLimit:    plan.TokenLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsCurrent reports whether the row occupies the user's single current slot.
func (s *Subscription) IsCurrent() bool {
	switch s.Status {
	case SubscriptionStatusPending, SubscriptionStatusActive, SubscriptionStatusPendingCancellation:
		return true
	}
	return false
}

func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusExpired || s.Status == SubscriptionStatusCancelled
}

// Unmetered reports whether the snapshotted quota is the unlimited sentinel.
func (s *Subscription) Unmetered() bool { return s.TokenLimit == TokenUnlimited }

// Consumable reports whether usage may be attributed to this row as of now.
// A cancelled-but-not-lapsed subscription is still paid for.
func (s *Subscription) Consumable(now time.Time) bool {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusPendingCancellation {
		return false
	}
	return s.EndAt == nil || now.Before(*s.EndAt)
}

// Due reports whether the row should transition to expired as of now.
func (s *Subscription) Due(now time.Time) bool {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusPendingCancellation {
		return false
	}
	return s.EndAt != nil && !now.Before(*s.EndAt)
}

// Activate commits a pending row to active, anchoring the coverage period at now.
func (s *Subscription) Activate(now time.Time) error {
	if s.Status != SubscriptionStatusPending {
		return domain.ErrSubscriptionNotPending
	}
	end := s.BillingPeriod.Advance(now)
	s.Status = SubscriptionStatusActive
	s.StartAt = &now
	s.EndAt = &end
	s.AutoRenew = true
	s.UpdatedAt = now
	return nil
}

// Expire marks a due row expired. EndAt is left untouched.
func (s *Subscription) Expire(now time.Time) {
	s.Status = SubscriptionStatusExpired
	s.AutoRenew = false
	s.UpdatedAt = now
}
