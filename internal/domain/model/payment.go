package model

import (
	"time"

	"legalmarket-subscription/internal/domain"
)

// PaymentConfirmation records a successful gateway result applied to a pending
// subscription. The (SubscriptionID, ProviderTxnID) pair is the dedupe key and
// always carries the caller-supplied id, so a retry with the same id finds the
// row even when the gateway reports its own reference. GatewayRef keeps that
// provider-side reference for reconciliation.
type PaymentConfirmation struct {
	ID             string        `json:"id"`
	SubscriptionID string        `json:"subscriptionId"`
	Provider       string        `json:"provider"`
	ProviderTxnID  string        `json:"providerTransactionId"`
	GatewayRef     string        `json:"gatewayRef,omitempty"`
	BillingPeriod  BillingPeriod `json:"billingPeriod"`
	AmountCents    int64         `json:"amountCents"`
	ReceivedAt     time.Time     `json:"receivedAt"`
}

// NewPaymentConfirmation validates and constructs a confirmation record.
func NewPaymentConfirmation(id, subscriptionID, provider, providerTxnID string, period BillingPeriod, amountCents int64) (*PaymentConfirmation, error) {
	if id == "" || subscriptionID == "" || provider == "" || providerTxnID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !period.Valid() || amountCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &PaymentConfirmation{
		ID:             id,
		SubscriptionID: subscriptionID,
		Provider:       provider,
		ProviderTxnID:  providerTxnID,
		BillingPeriod:  period,
		AmountCents:    amountCents,
		ReceivedAt:     time.Now(),
	}, nil
}
