package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Access-code redemption errors
	ErrCodeNotFound      = errors.New("access code not found")
	ErrCodeNotUnused     = errors.New("access code already used")
	ErrAlreadyRedeemed   = errors.New("school already redeemed an access code")
	ErrAlreadySubscribed = errors.New("school already has a subscription")

	// Subscription ledger errors
	ErrNoSubscription     = errors.New("school has no subscription")
	ErrUnknownPlan        = errors.New("unknown subscription plan")
	ErrSubscriptionNeeded = errors.New("active subscription required")
)

// ErrPlanChangeDenied is the class matched with errors.Is; the concrete
// PlanChangeDeniedError carries the reason shown to the caller.
var ErrPlanChangeDenied = errors.New("plan change denied")

type PlanChangeDeniedError struct {
	Reason string
}

func (e *PlanChangeDeniedError) Error() string {
	return fmt.Sprintf("plan change denied: %s", e.Reason)
}

func (e *PlanChangeDeniedError) Unwrap() error { return ErrPlanChangeDenied }
