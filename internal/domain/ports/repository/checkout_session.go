package repository

import (
	"context"

	"teacher-directory-backend/internal/domain/model"
)

// CheckoutSessionRepository is the port for the payment-session idempotency
// ledger.
type CheckoutSessionRepository interface {
	Save(ctx context.Context, tx Tx, cs *model.CheckoutSession) error
	// FindBySessionIDForUpdate locks the session row so a duplicate webhook
	// delivery observes AppliedAt before re-applying the activation.
	FindBySessionIDForUpdate(ctx context.Context, tx Tx, sessionID string) (*model.CheckoutSession, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.CheckoutSession, error)
	MarkApplied(ctx context.Context, tx Tx, sessionID string) error
}
