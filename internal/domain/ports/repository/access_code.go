package repository

import (
	"context"

	"teacher-directory-backend/internal/domain/model"
)

// AccessCodeRepository is the port for managing access codes.
type AccessCodeRepository interface {
	// Save creates or updates an access code.
	Save(ctx context.Context, tx Tx, code *model.AccessCode) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.AccessCode, error)
	// FindByCodeForUpdate locks the code row for the duration of tx; two
	// concurrent redemptions of the same code serialize on this lock.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.AccessCode, error)
	// FindBySchool returns any code bound to the school, regardless of status.
	FindBySchool(ctx context.Context, tx Tx, schoolID string) (*model.AccessCode, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.AccessCode, error)
	List(ctx context.Context, tx Tx) ([]*model.AccessCode, error)
}
