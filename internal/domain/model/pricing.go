package model

import (
	"math"
	"time"
)

// YearlyPriceCents computes the discounted yearly charge from a monthly price,
// rounded to the nearest cent.
func YearlyPriceCents(monthlyPriceCents int64, discountRate float64) int64 {
	if monthlyPriceCents <= 0 {
		return 0
	}
	raw := float64(monthlyPriceCents) * 12 * (1 - discountRate)
	return int64(math.Round(raw))
}

// UpgradeCredit computes the unused fraction of the current period's price,
// applied as a discount on the first charge of the plan a user upgrades to.
// Returns 0 when the period is malformed or already over.
func UpgradeCredit(now, start, end time.Time, periodPriceCents int64) int64 {
	if periodPriceCents <= 0 || !start.Before(end) {
		return 0
	}
	if now.Before(start) || !now.Before(end) {
		return 0
	}
	remaining := end.Sub(now).Seconds()
	period := end.Sub(start).Seconds()
	return int64(math.Round(float64(periodPriceCents) * remaining / period))
}
