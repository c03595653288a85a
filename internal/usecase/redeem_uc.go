package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// TrialDuration is the entitlement window granted by a redeemed access code.
const TrialDuration = 24 * time.Hour

// Compile-time check
var _ RedeemUseCase = (*redeemUC)(nil)

// RedeemUseCase binds an access code to a school and grants the trial.
type RedeemUseCase interface {
	// Redeem returns the end of the granted trial window. Failure kinds:
	// domain.ErrCodeNotFound, domain.ErrCodeNotUnused,
	// domain.ErrAlreadyRedeemed, domain.ErrAlreadySubscribed.
	Redeem(ctx context.Context, schoolID, code string) (time.Time, error)
}

type redeemUC struct {
	schools repository.SchoolRepository
	codes   repository.AccessCodeRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewRedeemUseCase(schools repository.SchoolRepository, codes repository.AccessCodeRepository, tm repository.TransactionManager, logger *zerolog.Logger) *redeemUC {
	l := logger.With().Str("component", "RedeemUC").Logger()
	return &redeemUC{schools: schools, codes: codes, tm: tm, log: &l}
}

// Redeem runs the whole redemption as one transaction with the code row
// locked for its duration. The second of two concurrent redemptions of the
// same code blocks on the lock, re-reads the row as ACTIVE, and fails with
// ErrCodeNotUnused; no partial state is ever observable.
func (uc *redeemUC) Redeem(ctx context.Context, schoolID, code string) (time.Time, error) {
	if schoolID == "" || code == "" {
		return time.Time{}, domain.ErrInvalidArgument
	}

	var grantedUntil time.Time
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ac, err := uc.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		if ac.Status != model.AccessCodeStatusUnused {
			return domain.ErrCodeNotUnused
		}

		// One trial per school, independent of which code it was.
		if _, err := uc.codes.FindBySchool(ctx, tx, schoolID); err == nil {
			return domain.ErrAlreadyRedeemed
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		school, err := uc.schools.FindByIDForUpdate(ctx, tx, schoolID)
		if err != nil {
			return err
		}
		if school.SubscriptionStatus != model.SubscriptionStatusNone ||
			school.SubscriptionPlan != model.PlanNone ||
			school.SubscriptionEndAt != nil {
			return domain.ErrAlreadySubscribed
		}

		now := time.Now()
		until := now.Add(TrialDuration)

		ac.Status = model.AccessCodeStatusActive
		ac.SchoolID = &school.ID
		ac.FirstUsedAt = &now
		ac.ExpiresAt = &until
		if err := uc.codes.Save(ctx, tx, ac); err != nil {
			return err
		}

		school.SubscriptionStatus = model.SubscriptionStatusTrial
		school.SubscriptionStartedAt = &now
		school.SubscriptionEndAt = &until
		if err := uc.schools.UpdateSubscription(ctx, tx, school); err != nil {
			return err
		}

		grantedUntil = until
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	uc.log.Info().Str("school_id", schoolID).Time("granted_until", grantedUntil).Msg("trial granted")
	return grantedUntil, nil
}
