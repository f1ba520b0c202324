package payment

import (
	"context"
	"sync"

	"legalmarket-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SimulatedGateway)(nil)

// SimulatedGateway is an in-process gateway that accepts every confirmation.
// It backs dev environments and tests; no provider endpoint involved.
type SimulatedGateway struct {
	mu    sync.Mutex
	calls int
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) Name() string { return "simulated" }

func (g *SimulatedGateway) Confirm(ctx context.Context, req adapter.ConfirmationRequest) (adapter.ConfirmationResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return adapter.ConfirmationResult{
		Success:       true,
		ProviderTxnID: req.ProviderTxnID,
	}, nil
}

// Calls reports how many confirmations were requested.
func (g *SimulatedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
