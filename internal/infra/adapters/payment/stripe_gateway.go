package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/webhook"

	"teacher-directory-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements the payment port against Stripe hosted checkout.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" || webhookSecret == "" {
		return nil, fmt.Errorf("stripe: secret key and webhook secret are required")
	}
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.SchoolID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	// The webhook reconciler reads these back off the completed session.
	params.AddMetadata("schoolId", req.SchoolID)
	params.AddMetadata("planId", req.PlanID)
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &adapter.CheckoutSession{
		SessionID: sess.ID,
		URL:       sess.URL,
		CreatedAt: time.Unix(sess.Created, 0),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret. Nothing is parsed before the signature passes.
func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*adapter.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("stripe: signature verification failed: %w", err)
	}
	return &adapter.WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: event.Data.Raw,
	}, nil
}

func (g *StripeGateway) ParseCheckoutCompleted(evt *adapter.WebhookEvent) (*adapter.CheckoutCompleted, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Payload, &sess); err != nil {
		return nil, fmt.Errorf("stripe: parse checkout session: %w", err)
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	schoolID := sess.Metadata["schoolId"]
	if schoolID == "" {
		schoolID = sess.ClientReferenceID
	}

	return &adapter.CheckoutCompleted{
		SessionID: sess.ID,
		Email:     email,
		PlanID:    sess.Metadata["planId"],
		SchoolID:  schoolID,
	}, nil
}
