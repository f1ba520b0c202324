//go:build !integration

package web

import (
	"context"

	"legalmarket-subscription/internal/domain/model"
	"legalmarket-subscription/internal/usecase"
)

// --- use case mocks with overridable behavior ---

type mockSubUC struct {
	SubscribeFunc      func(ctx context.Context, userID, planID string, period model.BillingPeriod) (*usecase.SubscribeResult, error)
	ConfirmPaymentFunc func(ctx context.Context, subscriptionID string, in usecase.PaymentInput) (*model.Subscription, error)
	CancelFunc         func(ctx context.Context, userID string) (*model.Subscription, error)
	CurrentFunc        func(ctx context.Context, userID string) (*model.Subscription, error)
	HistoryFunc        func(ctx context.Context, userID string) ([]*model.Subscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubUC)(nil)

func (m *mockSubUC) Subscribe(ctx context.Context, userID, planID string, period model.BillingPeriod) (*usecase.SubscribeResult, error) {
	return m.SubscribeFunc(ctx, userID, planID, period)
}
func (m *mockSubUC) ConfirmPayment(ctx context.Context, subscriptionID string, in usecase.PaymentInput) (*model.Subscription, error) {
	return m.ConfirmPaymentFunc(ctx, subscriptionID, in)
}
func (m *mockSubUC) Cancel(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.CancelFunc(ctx, userID)
}
func (m *mockSubUC) Current(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.CurrentFunc(ctx, userID)
}
func (m *mockSubUC) History(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return m.HistoryFunc(ctx, userID)
}
func (m *mockSubUC) FinishExpired(ctx context.Context) (int, error) { return 0, nil }
func (m *mockSubUC) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return map[model.SubscriptionStatus]int{}, nil
}

type mockPlanUC struct {
	CreateFunc func(ctx context.Context, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error)
	UpdateFunc func(ctx context.Context, id, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error)
	GetFunc    func(ctx context.Context, id string) (*model.Plan, error)
	ListFunc   func(ctx context.Context) ([]*model.Plan, error)
	DeleteFunc func(ctx context.Context, id string) error
}

var _ usecase.PlanUseCase = (*mockPlanUC)(nil)

func (m *mockPlanUC) Create(ctx context.Context, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error) {
	return m.CreateFunc(ctx, name, monthlyPriceCents, tokenLimit, features)
}
func (m *mockPlanUC) Update(ctx context.Context, id, name string, monthlyPriceCents, tokenLimit int64, features []string) (*model.Plan, error) {
	return m.UpdateFunc(ctx, id, name, monthlyPriceCents, tokenLimit, features)
}
func (m *mockPlanUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockPlanUC) List(ctx context.Context) ([]*model.Plan, error) { return m.ListFunc(ctx) }
func (m *mockPlanUC) Delete(ctx context.Context, id string) error     { return m.DeleteFunc(ctx, id) }

type mockUsageUC struct {
	ConsumeFunc   func(ctx context.Context, subscriptionID string, amount int64) (*model.Subscription, error)
	RemainingFunc func(ctx context.Context, subscriptionID string) (int64, int64, error)
}

var _ usecase.UsageUseCase = (*mockUsageUC)(nil)

func (m *mockUsageUC) Consume(ctx context.Context, subscriptionID string, amount int64) (*model.Subscription, error) {
	return m.ConsumeFunc(ctx, subscriptionID, amount)
}
func (m *mockUsageUC) Remaining(ctx context.Context, subscriptionID string) (int64, int64, error) {
	return m.RemainingFunc(ctx, subscriptionID)
}
