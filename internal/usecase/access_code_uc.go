package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ AccessCodeUseCase = (*accessCodeUC)(nil)

// AccessCodeUseCase is the admin surface over access codes: minting new ones
// and expiring them manually.
type AccessCodeUseCase interface {
	// Create mints a new UNUSED code. When code is empty a random one is
	// generated. A duplicate code string fails with domain.ErrAlreadyExists.
	Create(ctx context.Context, code string) (*model.AccessCode, error)
	List(ctx context.Context) ([]*model.AccessCode, error)
	// Expire marks the code EXPIRED regardless of current status.
	Expire(ctx context.Context, id string) error
}

type accessCodeUC struct {
	codes repository.AccessCodeRepository
	log   *zerolog.Logger
}

func NewAccessCodeUseCase(codes repository.AccessCodeRepository, logger *zerolog.Logger) *accessCodeUC {
	l := logger.With().Str("component", "AccessCodeUC").Logger()
	return &accessCodeUC{codes: codes, log: &l}
}

func (uc *accessCodeUC) Create(ctx context.Context, code string) (*model.AccessCode, error) {
	if code == "" {
		generated, err := generateAccessCode()
		if err != nil {
			return nil, err
		}
		code = generated
	}

	if _, err := uc.codes.FindByCode(ctx, repository.NoTX, code); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	ac := &model.AccessCode{
		ID:        uuid.NewString(),
		Code:      code,
		Status:    model.AccessCodeStatusUnused,
		CreatedAt: time.Now(),
	}
	if err := uc.codes.Save(ctx, repository.NoTX, ac); err != nil {
		return nil, err
	}
	uc.log.Info().Str("code_id", ac.ID).Msg("access code created")
	return ac, nil
}

func (uc *accessCodeUC) List(ctx context.Context) ([]*model.AccessCode, error) {
	return uc.codes.List(ctx, repository.NoTX)
}

func (uc *accessCodeUC) Expire(ctx context.Context, id string) error {
	ac, err := uc.codes.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if ac.Status == model.AccessCodeStatusExpired {
		return nil
	}
	ac.Status = model.AccessCodeStatusExpired
	if err := uc.codes.Save(ctx, repository.NoTX, ac); err != nil {
		return err
	}
	uc.log.Info().Str("code_id", id).Msg("access code expired")
	return nil
}
