package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"teacher-directory-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and dev
// mode. Sessions are numbered sequentially and "webhook" payloads are plain
// JSON with no signature check.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	sessions map[string]adapter.CheckoutRequest
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{sessions: make(map[string]adapter.CheckoutRequest)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("cs_noop_%d", g.seq)
	g.sessions[id] = req
	return &adapter.CheckoutSession{
		SessionID: id,
		URL:       "https://example.test/checkout/" + id,
		CreatedAt: time.Now(),
	}, nil
}

func (g *NoopPaymentGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	var envelope struct {
		ID   string          `json:"id"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("noop: bad payload: %w", err)
	}
	return &adapter.WebhookEvent{ID: envelope.ID, Type: envelope.Type, Payload: envelope.Data}, nil
}

func (g *NoopPaymentGateway) ParseCheckoutCompleted(evt *adapter.WebhookEvent) (*adapter.CheckoutCompleted, error) {
	var cc adapter.CheckoutCompleted
	if err := json.Unmarshal(evt.Payload, &cc); err != nil {
		return nil, fmt.Errorf("noop: bad checkout payload: %w", err)
	}
	return &cc, nil
}
