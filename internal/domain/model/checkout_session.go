package model

import "time"

// CheckoutSession records an external payment session and whether its
// activation has been applied. It is the idempotency ledger for webhook
// reconciliation: a session id appears at most once, and AppliedAt marks the
// point past which duplicate deliveries become no-ops.
type CheckoutSession struct {
	ID        string // ULID
	SessionID string // gateway session id, unique
	SchoolID  string
	Plan      Plan
	CreatedAt time.Time
	AppliedAt *time.Time
}
