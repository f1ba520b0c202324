package adapter

import "context"

// ConfirmationRequest is the provider-agnostic shape the core hands the gateway
// when committing a pending subscription.
type ConfirmationRequest struct {
	SubscriptionID string
	Provider       string
	ProviderTxnID  string
	AmountCents    int64
}

// ConfirmationResult is the gateway's answer. Success=false with a reason is a
// business failure (PaymentFailed), not a transport error.
type ConfirmationResult struct {
	Success       bool
	ProviderTxnID string
	FailureReason string
}

// PaymentGateway is the hex port for payment providers. The core's only
// obligation is idempotent application of a successful result; a failed or
// timed-out call leaves the subscription pending and retryable.
type PaymentGateway interface {
	Name() string
	Confirm(ctx context.Context, req ConfirmationRequest) (ConfirmationResult, error)
}
