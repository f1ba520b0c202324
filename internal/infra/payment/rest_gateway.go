package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"legalmarket-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RESTGateway)(nil)

// RESTGateway verifies payments against an external provider over HTTP JSON.
// The provider's verify endpoint is POST {baseURL}/verify.json with a bearer key.
type RESTGateway struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRESTGateway(name, baseURL, apiKey string) (*RESTGateway, error) {
	if name == "" {
		return nil, errors.New("provider name empty")
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid provider base url: %q", baseURL)
	}
	return &RESTGateway{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *RESTGateway) Name() string { return g.name }

type verifyResponse struct {
	Data struct {
		Verified bool   `json:"verified"`
		RefID    string `json:"ref_id"`
		Message  string `json:"message"`
	} `json:"data"`
	Errors []interface{} `json:"errors"`
}

// Confirm asks the provider to verify the transaction. A declined transaction
// is a non-error result with Success=false; errors mean we could not find out.
func (g *RESTGateway) Confirm(ctx context.Context, req adapter.ConfirmationRequest) (adapter.ConfirmationResult, error) {
	payload := map[string]interface{}{
		"transaction_id": req.ProviderTxnID,
		"amount":         req.AmountCents,
		"reference":      req.SubscriptionID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return adapter.ConfirmationResult{}, fmt.Errorf("marshal verify payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/verify.json", bytes.NewReader(body))
	if err != nil {
		return adapter.ConfirmationResult{}, fmt.Errorf("build verify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return adapter.ConfirmationResult{}, fmt.Errorf("provider verify: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.ConfirmationResult{}, fmt.Errorf("read verify response: %w", err)
	}
	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return adapter.ConfirmationResult{}, fmt.Errorf("decode verify response: %w, body: %s", err, string(raw))
	}
	if len(out.Errors) > 0 {
		errBytes, _ := json.Marshal(out.Errors)
		return adapter.ConfirmationResult{}, fmt.Errorf("provider errors: %s", string(errBytes))
	}

	res := adapter.ConfirmationResult{
		Success:       out.Data.Verified,
		ProviderTxnID: req.ProviderTxnID,
	}
	if out.Data.RefID != "" {
		res.ProviderTxnID = out.Data.RefID
	}
	if !out.Data.Verified {
		res.FailureReason = out.Data.Message
	}
	return res, nil
}
