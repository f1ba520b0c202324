package model

import (
	"time"

	"legalmarket-subscription/internal/domain"
)

// UsageEvent is an append-only record of quota consumption, written in the same
// transaction as the counter update. The sum of a subscription's events equals
// its TokenUsage counter.
type UsageEvent struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscriptionId"`
	Amount         int64     `json:"amount"`
	At             time.Time `json:"timestamp"`
}

func NewUsageEvent(id, subscriptionID string, amount int64) (*UsageEvent, error) {
	if id == "" || subscriptionID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &UsageEvent{
		ID:             id,
		SubscriptionID: subscriptionID,
		Amount:         amount,
		At:             time.Now(),
	}, nil
}
