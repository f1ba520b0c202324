package model

import (
	"time"

	"legalmarket-subscription/internal/domain"
)

// TokenUnlimited is the quota sentinel for plans without a metered limit.
const TokenUnlimited int64 = -1

// DefaultYearlyDiscountRate applies to every paid plan.
const DefaultYearlyDiscountRate = 0.10

// Plan is a catalog entry: a priced tier with a token quota and feature set.
// Plans are read-mostly; subscriptions snapshot the quota at subscribe time,
// so editing a plan never mutates an existing grant.
type Plan struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	MonthlyPriceCents  int64    `json:"monthlyPriceCents"`
	TokenLimit         int64    `json:"tokenLimit"` // TokenUnlimited for unmetered
	Features           []string `json:"features"`
	YearlyDiscountRate float64  `json:"yearlyDiscountRate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, monthlyPriceCents, tokenLimit int64, features []string) (*Plan, error) {
	if id == "" || name == "" || monthlyPriceCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if tokenLimit < 0 && tokenLimit != TokenUnlimited {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	p := &Plan{
		ID:                id,
		Name:              name,
		MonthlyPriceCents: monthlyPriceCents,
		TokenLimit:        tokenLimit,
		Features:          features,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if monthlyPriceCents > 0 {
		p.YearlyDiscountRate = DefaultYearlyDiscountRate
	}
	return p, nil
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// IsFree reports whether this is the free tier. Free plans have no yearly option.
func (p *Plan) IsFree() bool { return p.MonthlyPriceCents == 0 }

// Unmetered reports whether the plan quota is the unlimited sentinel.
func (p *Plan) Unmetered() bool { return p.TokenLimit == TokenUnlimited }

// PriceCents returns the charge for one period of the given length.
func (p *Plan) PriceCents(period BillingPeriod) int64 {
	if period == BillingPeriodYearly {
		return YearlyPriceCents(p.MonthlyPriceCents, p.YearlyDiscountRate)
	}
	return p.MonthlyPriceCents
}
