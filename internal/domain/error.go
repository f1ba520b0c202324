package domain

import "errors"

var (
	// Lifecycle errors. These carry the taxonomy codes the portal exposes.
	ErrPlanNotFound           = errors.New("plan not found")
	ErrAlreadySubscribed      = errors.New("user already has a current subscription")
	ErrDowngradeNotAllowed    = errors.New("downgrade not allowed while a paid plan is active")
	ErrSubscriptionNotPending = errors.New("subscription is not pending")
	ErrNotActive              = errors.New("subscription is not active")
	ErrPaymentFailed          = errors.New("payment confirmation failed")
	ErrQuotaExceeded          = errors.New("token quota exceeded")
	ErrNotFound               = errors.New("entity not found")
	ErrPlanInUse              = errors.New("plan is referenced by existing subscriptions")
	ErrInvalidArgument        = errors.New("invalid argument")

	// Infra errors.
	ErrDuplicateConfirmation = errors.New("payment confirmation already applied")
	ErrInvalidExecContext    = errors.New("invalid executor context")
	ErrOperationFailed       = errors.New("operation failed")
	ErrReadDatabaseRow       = errors.New("failed to read database row")
	ErrBusy                  = errors.New("resource is busy")
	ErrRateLimited           = errors.New("too many requests")
)
