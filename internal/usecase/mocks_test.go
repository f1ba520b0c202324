package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/domain"
	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/domain/ports/adapter"
	"legalmarket-subscription/internal/domain/ports/repository"
)

func NewTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// MockTxManager runs the callback without a real transaction. The mutex stands
// in for the per-user advisory lock the Postgres path takes.
type MockTxManager struct {
	mu sync.Mutex
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// MockPlanRepo is a small in-memory plan store used by unit tests.
type MockPlanRepo struct {
	mu    sync.RWMutex
	plans map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[cp.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthlyPriceCents < out[j].MonthlyPriceCents })
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

// MockSubscriptionRepo is an in-memory ledger with overridable hooks.
type MockSubscriptionRepo struct {
	mu   sync.RWMutex
	subs map[string]*model.Subscription // by subscription id

	SaveFunc          func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	ConsumeTokensFunc func(ctx context.Context, tx repository.Tx, subID string, amount int64) (bool, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) put(s *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[cp.ID] = &cp
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, s); err != nil {
			return err
		}
	}
	m.put(s)
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindCurrentByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.IsCurrent() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockSubscriptionRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.Due(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) FindStalePending(ctx context.Context, tx repository.Tx, before time.Time) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusPending && s.CreatedAt.Before(before) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) ConsumeTokens(ctx context.Context, tx repository.Tx, subID string, amount int64) (bool, error) {
	if m.ConsumeTokensFunc != nil {
		return m.ConsumeTokensFunc(ctx, tx, subID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[subID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.TokenLimit >= 0 && s.TokenUsage+amount > s.TokenLimit {
		return false, nil
	}
	s.TokenUsage += amount
	return true, nil
}

func (m *MockSubscriptionRepo) LockUser(ctx context.Context, tx repository.Tx, userID string) error {
	return nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.SubscriptionStatus]int)
	for _, s := range m.subs {
		out[s.Status]++
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx, planID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.subs {
		if s.PlanID == planID {
			n++
		}
	}
	return n, nil
}

// MockConfirmationRepo enforces the dedupe key in memory.
type MockConfirmationRepo struct {
	mu    sync.Mutex
	byKey map[string]*model.PaymentConfirmation
}

func NewMockConfirmationRepo() *MockConfirmationRepo {
	return &MockConfirmationRepo{byKey: make(map[string]*model.PaymentConfirmation)}
}

func confKey(subID, txnID string) string { return subID + "|" + txnID }

func (m *MockConfirmationRepo) Save(ctx context.Context, tx repository.Tx, c *model.PaymentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := confKey(c.SubscriptionID, c.ProviderTxnID)
	if _, ok := m.byKey[k]; ok {
		return domain.ErrDuplicateConfirmation
	}
	cp := *c
	m.byKey[k] = &cp
	return nil
}

func (m *MockConfirmationRepo) FindBySubscriptionAndTxn(ctx context.Context, tx repository.Tx, subID, txnID string) (*model.PaymentConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byKey[confKey(subID, txnID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// MockUsageRepo collects usage events in memory.
type MockUsageRepo struct {
	mu     sync.Mutex
	Events []*model.UsageEvent
}

func NewMockUsageRepo() *MockUsageRepo { return &MockUsageRepo{} }

func (m *MockUsageRepo) Append(ctx context.Context, tx repository.Tx, ev *model.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.Events = append(m.Events, &cp)
	return nil
}

func (m *MockUsageRepo) SumBySubscription(ctx context.Context, tx repository.Tx, subID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, ev := range m.Events {
		if ev.SubscriptionID == subID {
			sum += ev.Amount
		}
	}
	return sum, nil
}

// MockGateway simulates the payment provider; override ConfirmFunc to fail.
type MockGateway struct {
	ConfirmFunc func(ctx context.Context, req adapter.ConfirmationRequest) (adapter.ConfirmationResult, error)
	Calls       int
}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Confirm(ctx context.Context, req adapter.ConfirmationRequest) (adapter.ConfirmationResult, error) {
	g.Calls++
	if g.ConfirmFunc != nil {
		return g.ConfirmFunc(ctx, req)
	}
	return adapter.ConfirmationResult{Success: true, ProviderTxnID: req.ProviderTxnID}, nil
}
