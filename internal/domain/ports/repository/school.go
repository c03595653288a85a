package repository

import (
	"context"

	"teacher-directory-backend/internal/domain/model"
)

// SchoolRepository is the port for the subscription slice of school records.
type SchoolRepository interface {
	Save(ctx context.Context, tx Tx, s *model.School) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.School, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.School, error)
	// FindByIDForUpdate locks the school row for the duration of tx.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.School, error)
	// UpdateSubscription writes only the subscription fields.
	UpdateSubscription(ctx context.Context, tx Tx, s *model.School) error
	// CountByStatus feeds the subscriptions-by-status gauge.
	CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}
