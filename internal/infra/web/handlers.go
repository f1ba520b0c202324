package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/infra/logging"
	"legalmarket-subscription/internal/infra/metrics"
	"legalmarket-subscription/internal/usecase"
)

// caller resolves the authenticated user and enforces that the {role} path
// segment matches the session's role claim.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (userID string, ok bool) {
	userID = logging.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return "", false
	}
	if role := chi.URLParam(r, "role"); role != "" && role != logging.Role(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden", "role mismatch")
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "missing request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed JSON body")
		return false
	}
	return true
}

// --- portal surface ---

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sub, err := s.subUC.Current(r.Context(), userID)
	if err != nil {
		// No current subscription is an answer here, not an error.
		if errors.Is(err, domain.ErrNotFound) {
			writeData(w, http.StatusOK, map[string]interface{}{"subscription": nil})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	subs, err := s.subUC.History(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

type subscribeRequest struct {
	PlanID        string `json:"planId"`
	BillingPeriod string `json:"billingPeriod"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.subUC.Subscribe(r.Context(), userID, req.PlanID, model.BillingPeriod(req.BillingPeriod))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{
		"subscription":       res.Subscription,
		"firstChargeCents":   res.FirstChargeCents,
		"upgradeCreditCents": res.UpgradeCreditCents,
		"deferred":           res.Deferred,
	})
}

type paymentRequest struct {
	SubscriptionID        string `json:"subscriptionId"`
	PaymentProvider       string `json:"paymentProvider"`
	PaymentSubscriptionID string `json:"paymentSubscriptionId"`
	Duration              string `json:"duration"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SubscriptionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "subscriptionId is required")
		return
	}

	sub, err := s.subUC.ConfirmPayment(r.Context(), req.SubscriptionID, usecase.PaymentInput{
		Provider:      req.PaymentProvider,
		ProviderTxnID: req.PaymentSubscriptionID,
		UserID:        userID,
		Period:        model.BillingPeriod(req.Duration),
	})
	if err != nil {
		metrics.IncPaymentConfirmation(req.PaymentProvider, "failed")
		writeDomainError(w, err)
		return
	}
	metrics.IncPaymentConfirmation(req.PaymentProvider, "committed")
	writeData(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sub, err := s.subUC.Cancel(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

type usageRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req usageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := s.subUC.Current(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sub, err = s.usageUC.Consume(r.Context(), sub.ID, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.IncQuotaExceeded()
		}
		writeDomainError(w, err)
		return
	}
	metrics.AddTokensConsumed(req.Amount)
	writeData(w, http.StatusOK, map[string]interface{}{
		"tokenUsage": sub.TokenUsage,
		"tokenLimit": sub.TokenLimit,
	})
}

func (s *Server) handleRemaining(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	sub, err := s.subUC.Current(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	used, limit, err := s.usageUC.Remaining(r.Context(), sub.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"tokenUsage": used,
		"tokenLimit": limit,
	})
}

// --- admin surface ---

type planRequest struct {
	Name              string   `json:"name"`
	MonthlyPriceCents int64    `json:"monthlyPriceCents"`
	TokenLimit        int64    `json:"tokenLimit"`
	Features          []string `json:"features"`
}

func (s *Server) handleAdminListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (s *Server) handleAdminCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := s.planUC.Create(r.Context(), req.Name, req.MonthlyPriceCents, req.TokenLimit, req.Features)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{"plan": plan})
}

func (s *Server) handleAdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := s.planUC.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.MonthlyPriceCents, req.TokenLimit, req.Features)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"plan": plan})
}

func (s *Server) handleAdminDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{})
}
