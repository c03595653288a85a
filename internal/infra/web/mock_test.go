//go:build !integration

package web

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Mock use cases ---

type mockRedeemUC struct {
	RedeemFunc func(ctx context.Context, schoolID, code string) (time.Time, error)
}

var _ usecase.RedeemUseCase = (*mockRedeemUC)(nil)

func (m *mockRedeemUC) Redeem(ctx context.Context, schoolID, code string) (time.Time, error) {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, schoolID, code)
	}
	return time.Now().Add(24 * time.Hour), nil
}

type mockSubscriptionUC struct {
	mu      sync.Mutex
	Schools map[string]*model.School

	PurchaseFunc func(ctx context.Context, schoolID string, plan model.Plan) (*adapter.CheckoutSession, error)
	ActivateFunc func(ctx context.Context, schoolID string, plan model.Plan, sessionID string) error
	CancelFunc   func(ctx context.Context, schoolID string) error
}

var _ usecase.SubscriptionUseCase = (*mockSubscriptionUC)(nil)

func newMockSubscriptionUC() *mockSubscriptionUC {
	return &mockSubscriptionUC{Schools: make(map[string]*model.School)}
}

func (m *mockSubscriptionUC) Purchase(ctx context.Context, schoolID string, plan model.Plan) (*adapter.CheckoutSession, error) {
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, schoolID, plan)
	}
	return &adapter.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (m *mockSubscriptionUC) Activate(ctx context.Context, schoolID string, plan model.Plan, sessionID string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, schoolID, plan, sessionID)
	}
	return nil
}

func (m *mockSubscriptionUC) Cancel(ctx context.Context, schoolID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, schoolID)
	}
	return nil
}

func (m *mockSubscriptionUC) IsEntitled(ctx context.Context, schoolID string) (bool, error) {
	s, err := m.Current(ctx, schoolID)
	if err != nil {
		return false, err
	}
	return s.IsEntitled(time.Now()), nil
}

func (m *mockSubscriptionUC) Current(ctx context.Context, schoolID string) (*model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Schools[schoolID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type mockWebhookUC struct {
	HandleEventFunc func(ctx context.Context, evt *adapter.WebhookEvent) error
	Handled         []*adapter.WebhookEvent
}

var _ usecase.WebhookUseCase = (*mockWebhookUC)(nil)

func (m *mockWebhookUC) HandleEvent(ctx context.Context, evt *adapter.WebhookEvent) error {
	if m.HandleEventFunc != nil {
		return m.HandleEventFunc(ctx, evt)
	}
	m.Handled = append(m.Handled, evt)
	return nil
}

type mockAccessCodeUC struct {
	CreateFunc func(ctx context.Context, code string) (*model.AccessCode, error)
	ListFunc   func(ctx context.Context) ([]*model.AccessCode, error)
	ExpireFunc func(ctx context.Context, id string) error
}

var _ usecase.AccessCodeUseCase = (*mockAccessCodeUC)(nil)

func (m *mockAccessCodeUC) Create(ctx context.Context, code string) (*model.AccessCode, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code)
	}
	return &model.AccessCode{ID: "code-1", Code: "AAAA-BBBB-CCCC", Status: model.AccessCodeStatusUnused, CreatedAt: time.Now()}, nil
}

func (m *mockAccessCodeUC) List(ctx context.Context) ([]*model.AccessCode, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockAccessCodeUC) Expire(ctx context.Context, id string) error {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, id)
	}
	return nil
}

// --- Mock payment gateway ---

type mockGateway struct {
	VerifyWebhookFunc func(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error)
}

var _ adapter.PaymentGateway = (*mockGateway)(nil)

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	return &adapter.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (m *mockGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signatureHeader)
	}
	return &adapter.WebhookEvent{ID: "evt_1", Type: "checkout.session.completed", Payload: payload}, nil
}

func (m *mockGateway) ParseCheckoutCompleted(evt *adapter.WebhookEvent) (*adapter.CheckoutCompleted, error) {
	return &adapter.CheckoutCompleted{SessionID: "cs_test_1", PlanID: "BASIC"}, nil
}
