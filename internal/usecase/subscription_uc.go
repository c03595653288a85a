package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase owns the subscription fields of a school record:
// upgrade gating, paid activation, cancellation, and the read-time
// entitlement check.
type SubscriptionUseCase interface {
	// Purchase gates the requested plan against the school's effective plan
	// and opens a hosted checkout session with the payment gateway.
	Purchase(ctx context.Context, schoolID string, plan model.Plan) (*adapter.CheckoutSession, error)
	// Activate applies a confirmed payment. Idempotent per sessionID:
	// a duplicate confirmation for an applied session is a no-op.
	Activate(ctx context.Context, schoolID string, plan model.Plan, sessionID string) error
	// Cancel drops the subscription and expires any access code bound to the
	// school, atomically.
	Cancel(ctx context.Context, schoolID string) error
	// IsEntitled answers the gate question from stored state and the clock.
	IsEntitled(ctx context.Context, schoolID string) (bool, error)
	// Current returns the school's subscription snapshot.
	Current(ctx context.Context, schoolID string) (*model.School, error)
}

// CheckoutConfig carries the gateway-facing knobs the ledger needs to open a
// session: provider price ids per plan and the redirect URLs.
type CheckoutConfig struct {
	PriceIDs   map[model.Plan]string
	SuccessURL string
	CancelURL  string
}

type subscriptionUC struct {
	schools  repository.SchoolRepository
	codes    repository.AccessCodeRepository
	sessions repository.CheckoutSessionRepository
	tm       repository.TransactionManager
	gateway  adapter.PaymentGateway
	checkout CheckoutConfig
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	schools repository.SchoolRepository,
	codes repository.AccessCodeRepository,
	sessions repository.CheckoutSessionRepository,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	checkout CheckoutConfig,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		schools:  schools,
		codes:    codes,
		sessions: sessions,
		tm:       tm,
		gateway:  gateway,
		checkout: checkout,
		log:      &l,
	}
}

func (uc *subscriptionUC) Purchase(ctx context.Context, schoolID string, plan model.Plan) (*adapter.CheckoutSession, error) {
	school, err := uc.schools.FindByID(ctx, repository.NoTX, schoolID)
	if err != nil {
		return nil, err
	}
	if err := school.CanBuyPlan(plan, time.Now()); err != nil {
		return nil, err
	}

	priceID, ok := uc.checkout.PriceIDs[plan]
	if !ok {
		return nil, domain.ErrUnknownPlan
	}
	sess, err := uc.gateway.CreateCheckoutSession(ctx, adapter.CheckoutRequest{
		SchoolID:   school.ID,
		Email:      school.Email,
		PlanID:     string(plan),
		PriceID:    priceID,
		SuccessURL: uc.checkout.SuccessURL,
		CancelURL:  uc.checkout.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	// Record the pending session; the webhook reconciler marks it applied.
	cs := &model.CheckoutSession{
		ID:        ulid.Make().String(),
		SessionID: sess.SessionID,
		SchoolID:  school.ID,
		Plan:      plan,
		CreatedAt: time.Now(),
	}
	if err := uc.sessions.Save(ctx, repository.NoTX, cs); err != nil {
		return nil, err
	}

	uc.log.Info().Str("school_id", schoolID).Str("plan", string(plan)).Str("session_id", sess.SessionID).Msg("checkout session created")
	return sess, nil
}

func (uc *subscriptionUC) Activate(ctx context.Context, schoolID string, plan model.Plan, sessionID string) error {
	if schoolID == "" || sessionID == "" || plan == model.PlanNone {
		return domain.ErrInvalidArgument
	}

	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cs, err := uc.sessions.FindBySessionIDForUpdate(ctx, tx, sessionID)
		switch {
		case err == nil:
			if cs.AppliedAt != nil {
				// Duplicate delivery; end_at stays as the first application left it.
				uc.log.Debug().Str("session_id", sessionID).Msg("session already applied, skipping")
				return nil
			}
		case errors.Is(err, domain.ErrNotFound):
			// Session opened out of band (e.g. gateway dashboard). Record it so
			// the applied marker still dedups later deliveries.
			cs = &model.CheckoutSession{
				ID:        ulid.Make().String(),
				SessionID: sessionID,
				SchoolID:  schoolID,
				Plan:      plan,
				CreatedAt: time.Now(),
			}
			if err := uc.sessions.Save(ctx, tx, cs); err != nil {
				return err
			}
		default:
			return err
		}

		school, err := uc.schools.FindByIDForUpdate(ctx, tx, schoolID)
		if err != nil {
			return err
		}

		now := time.Now()
		endAt := plan.Duration(now)
		school.SubscriptionStatus = model.SubscriptionStatusActive
		school.SubscriptionPlan = plan
		school.SubscriptionStartedAt = &now
		school.SubscriptionEndAt = &endAt
		if err := uc.schools.UpdateSubscription(ctx, tx, school); err != nil {
			return err
		}
		if err := uc.sessions.MarkApplied(ctx, tx, sessionID); err != nil {
			return err
		}

		uc.log.Info().Str("school_id", schoolID).Str("plan", string(plan)).Time("end_at", endAt).Msg("subscription activated")
		return nil
	})
}

func (uc *subscriptionUC) Cancel(ctx context.Context, schoolID string) error {
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		school, err := uc.schools.FindByIDForUpdate(ctx, tx, schoolID)
		if err != nil {
			return err
		}
		if school.SubscriptionStatus == model.SubscriptionStatusNone {
			return domain.ErrNoSubscription
		}

		now := time.Now()
		school.SubscriptionStatus = model.SubscriptionStatusNone
		school.SubscriptionPlan = model.PlanNone
		school.SubscriptionEndAt = &now
		if err := uc.schools.UpdateSubscription(ctx, tx, school); err != nil {
			return err
		}

		// Dependent effect: any code bound to the school goes to EXPIRED in
		// the same transaction.
		ac, err := uc.codes.FindBySchool(ctx, tx, schoolID)
		switch {
		case err == nil:
			if ac.Status != model.AccessCodeStatusExpired {
				ac.Status = model.AccessCodeStatusExpired
				if err := uc.codes.Save(ctx, tx, ac); err != nil {
					return err
				}
			}
		case errors.Is(err, domain.ErrNotFound):
			// nothing bound
		default:
			return err
		}

		uc.log.Info().Str("school_id", schoolID).Msg("subscription cancelled")
		return nil
	})
}

func (uc *subscriptionUC) IsEntitled(ctx context.Context, schoolID string) (bool, error) {
	school, err := uc.schools.FindByID(ctx, repository.NoTX, schoolID)
	if err != nil {
		return false, err
	}
	return school.IsEntitled(time.Now()), nil
}

func (uc *subscriptionUC) Current(ctx context.Context, schoolID string) (*model.School, error) {
	return uc.schools.FindByID(ctx, repository.NoTX, schoolID)
}
