//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func strPtr(s string) *string { return &s }

// =============================
// Mock TransactionManager
// =============================

// MockTxManager runs the function directly by default. SerializeTx makes
// WithTx mutually exclusive, which approximates row-lock serialization for
// concurrency tests.
type MockTxManager struct {
	mu          sync.Mutex
	SerializeTx bool
	WithTxFunc  func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	if m.SerializeTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(ctx, nil)
}

// =============================
// Mock SchoolRepository
// =============================

type MockSchoolRepo struct {
	mu      sync.Mutex
	schools map[string]*model.School

	SaveFunc               func(ctx context.Context, tx repository.Tx, s *model.School) error
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, id string) (*model.School, error)
	FindByEmailFunc        func(ctx context.Context, tx repository.Tx, email string) (*model.School, error)
	FindByIDForUpdateFunc  func(ctx context.Context, tx repository.Tx, id string) (*model.School, error)
	UpdateSubscriptionFunc func(ctx context.Context, tx repository.Tx, s *model.School) error
}

func NewMockSchoolRepo() *MockSchoolRepo {
	return &MockSchoolRepo{schools: make(map[string]*model.School)}
}

var _ repository.SchoolRepository = (*MockSchoolRepo)(nil)

func (m *MockSchoolRepo) Save(ctx context.Context, tx repository.Tx, s *model.School) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.schools[s.ID] = &cp
	return nil
}

func (m *MockSchoolRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schools[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSchoolRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.School, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.schools {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSchoolRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	if m.FindByIDForUpdateFunc != nil {
		return m.FindByIDForUpdateFunc(ctx, tx, id)
	}
	return m.FindByID(ctx, tx, id)
}

func (m *MockSchoolRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, s *model.School) error {
	if m.UpdateSubscriptionFunc != nil {
		return m.UpdateSubscriptionFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schools[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.SubscriptionStatus = s.SubscriptionStatus
	cur.SubscriptionPlan = s.SubscriptionPlan
	cur.SubscriptionStartedAt = s.SubscriptionStartedAt
	cur.SubscriptionEndAt = s.SubscriptionEndAt
	return nil
}

func (m *MockSchoolRepo) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.schools {
		counts[s.SubscriptionStatus]++
	}
	return counts, nil
}

// =============================
// Mock AccessCodeRepository
// =============================

type MockAccessCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.AccessCode // keyed by id

	SaveFunc                func(ctx context.Context, tx repository.Tx, ac *model.AccessCode) error
	FindByCodeForUpdateFunc func(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error)
	FindBySchoolFunc        func(ctx context.Context, tx repository.Tx, schoolID string) (*model.AccessCode, error)
}

func NewMockAccessCodeRepo() *MockAccessCodeRepo {
	return &MockAccessCodeRepo{codes: make(map[string]*model.AccessCode)}
}

var _ repository.AccessCodeRepository = (*MockAccessCodeRepo)(nil)

func (m *MockAccessCodeRepo) Save(ctx context.Context, tx repository.Tx, ac *model.AccessCode) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, ac)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ac
	m.codes[ac.ID] = &cp
	return nil
}

func (m *MockAccessCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ac := range m.codes {
		if ac.Code == code {
			cp := *ac
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAccessCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	if m.FindByCodeForUpdateFunc != nil {
		return m.FindByCodeForUpdateFunc(ctx, tx, code)
	}
	return m.FindByCode(ctx, tx, code)
}

func (m *MockAccessCodeRepo) FindBySchool(ctx context.Context, tx repository.Tx, schoolID string) (*model.AccessCode, error) {
	if m.FindBySchoolFunc != nil {
		return m.FindBySchoolFunc(ctx, tx, schoolID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ac := range m.codes {
		if ac.SchoolID != nil && *ac.SchoolID == schoolID {
			cp := *ac
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockAccessCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ac, ok := m.codes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ac
	return &cp, nil
}

func (m *MockAccessCodeRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AccessCode, 0, len(m.codes))
	for _, ac := range m.codes {
		cp := *ac
		out = append(out, &cp)
	}
	return out, nil
}

// =============================
// Mock CheckoutSessionRepository
// =============================

type MockCheckoutSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.CheckoutSession // keyed by gateway session id

	SaveFunc        func(ctx context.Context, tx repository.Tx, cs *model.CheckoutSession) error
	MarkAppliedFunc func(ctx context.Context, tx repository.Tx, sessionID string) error
}

func NewMockCheckoutSessionRepo() *MockCheckoutSessionRepo {
	return &MockCheckoutSessionRepo{sessions: make(map[string]*model.CheckoutSession)}
}

var _ repository.CheckoutSessionRepository = (*MockCheckoutSessionRepo)(nil)

func (m *MockCheckoutSessionRepo) Save(ctx context.Context, tx repository.Tx, cs *model.CheckoutSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, cs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[cs.SessionID]; ok {
		return nil // unique session id, insert is a no-op on conflict
	}
	cp := *cs
	m.sessions[cs.SessionID] = &cp
	return nil
}

func (m *MockCheckoutSessionRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cs
	return &cp, nil
}

func (m *MockCheckoutSessionRepo) FindBySessionIDForUpdate(ctx context.Context, tx repository.Tx, sessionID string) (*model.CheckoutSession, error) {
	return m.FindBySessionID(ctx, tx, sessionID)
}

func (m *MockCheckoutSessionRepo) MarkApplied(ctx context.Context, tx repository.Tx, sessionID string) error {
	if m.MarkAppliedFunc != nil {
		return m.MarkAppliedFunc(ctx, tx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if cs.AppliedAt == nil {
		now := time.Now()
		cs.AppliedAt = &now
	}
	return nil
}

// =============================
// Mock PaymentGateway
// =============================

type MockPaymentGateway struct {
	mu      sync.Mutex
	counter int
	Created []adapter.CheckoutRequest

	CreateCheckoutSessionFunc  func(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error)
	VerifyWebhookFunc          func(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error)
	ParseCheckoutCompletedFunc func(evt *adapter.WebhookEvent) (*adapter.CheckoutCompleted, error)
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	m.Created = append(m.Created, req)
	id := fmt.Sprintf("cs_test_%d", m.counter)
	return &adapter.CheckoutSession{
		SessionID: id,
		URL:       "https://checkout.example/" + id,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockPaymentGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signatureHeader)
	}
	return &adapter.WebhookEvent{ID: "evt_mock", Type: "checkout.session.completed", Payload: payload}, nil
}

func (m *MockPaymentGateway) ParseCheckoutCompleted(evt *adapter.WebhookEvent) (*adapter.CheckoutCompleted, error) {
	if m.ParseCheckoutCompletedFunc != nil {
		return m.ParseCheckoutCompletedFunc(evt)
	}
	return &adapter.CheckoutCompleted{SessionID: "cs_test_1", PlanID: "BASIC"}, nil
}
