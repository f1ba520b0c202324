package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"legalmarket-subscription/internal/domain"
)

// envelope is the uniform response body: success payloads are merged beside
// "success":true, failures carry a stable machine code plus a human message.
type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data map[string]interface{}) {
	out := map[string]interface{}{"success": true}
	for k, v := range data {
		out[k] = v
	}
	writeJSON(w, status, out)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Success: false, Code: code, Message: message})
}

// writeDomainError maps domain sentinels onto HTTP statuses and stable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid request")
	case errors.Is(err, domain.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan_not_found", "plan not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, "already_subscribed", "an active subscription already exists")
	case errors.Is(err, domain.ErrDowngradeNotAllowed):
		writeError(w, http.StatusConflict, "downgrade_not_allowed", "downgrades are not allowed while a subscription is active")
	case errors.Is(err, domain.ErrSubscriptionNotPending):
		writeError(w, http.StatusConflict, "not_pending", "subscription is not awaiting payment")
	case errors.Is(err, domain.ErrDuplicateConfirmation):
		writeError(w, http.StatusConflict, "duplicate_confirmation", "payment was already applied")
	case errors.Is(err, domain.ErrNotActive):
		writeError(w, http.StatusConflict, "not_active", "no active subscription")
	case errors.Is(err, domain.ErrPlanInUse):
		writeError(w, http.StatusConflict, "plan_in_use", "plan is referenced by existing subscriptions")
	case errors.Is(err, domain.ErrPaymentFailed):
		writeError(w, http.StatusPaymentRequired, "payment_failed", "payment could not be confirmed")
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", "token quota exceeded for the current period")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
