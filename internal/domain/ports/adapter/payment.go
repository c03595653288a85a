package adapter

import (
	"context"
	"time"
)

// CheckoutRequest describes a hosted-checkout session to create for a plan
// purchase. Metadata travels to the provider and comes back on the webhook.
type CheckoutRequest struct {
	SchoolID   string
	Email      string
	PlanID     string // plan name, e.g. "PRO"
	PriceID    string // provider price identifier
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider's answer: the session id (the idempotency
// key used by the reconciler) and the hosted payment page URL.
type CheckoutSession struct {
	SessionID string
	URL       string
	CreatedAt time.Time
}

// WebhookEvent is a verified inbound gateway event. Payload is the raw event
// object for the given type; verification happens before construction.
type WebhookEvent struct {
	ID      string
	Type    string
	Payload []byte
}

// CheckoutCompleted is the provider-agnostic view of a completed checkout:
// who paid, for which plan, under which session.
type CheckoutCompleted struct {
	SessionID string
	Email     string
	PlanID    string
	SchoolID  string // from session metadata, may be empty on legacy sessions
}

// PaymentGateway is the hex port for the external payment authority.
type PaymentGateway interface {
	Name() string

	// CreateCheckoutSession initiates a hosted checkout for a plan purchase.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// VerifyWebhook checks the event signature against the shared secret and
	// returns the parsed event. A signature mismatch returns an error and the
	// caller must take no action.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)

	// ParseCheckoutCompleted decodes a verified "checkout completed" event
	// payload into its provider-agnostic form.
	ParseCheckoutCompleted(evt *WebhookEvent) (*CheckoutCompleted, error)
}
