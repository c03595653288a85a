package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// EventCheckoutCompleted is the only gateway event the reconciler acts on.
const EventCheckoutCompleted = "checkout.session.completed"

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase reconciles verified payment-gateway events against the
// subscription ledger. The gateway delivers at-least-once; Activate's
// per-session idempotency makes duplicates harmless.
type WebhookUseCase interface {
	// HandleEvent processes one verified event. Unknown event types and
	// unresolvable payers are acknowledged without action.
	HandleEvent(ctx context.Context, evt *adapter.WebhookEvent) error
}

type webhookUC struct {
	schools repository.SchoolRepository
	subs    SubscriptionUseCase
	gateway adapter.PaymentGateway
	log     *zerolog.Logger
}

func NewWebhookUseCase(schools repository.SchoolRepository, subs SubscriptionUseCase, gateway adapter.PaymentGateway, logger *zerolog.Logger) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{schools: schools, subs: subs, gateway: gateway, log: &l}
}

func (uc *webhookUC) HandleEvent(ctx context.Context, evt *adapter.WebhookEvent) error {
	if evt.Type != EventCheckoutCompleted {
		uc.log.Debug().Str("type", evt.Type).Msg("ignoring gateway event")
		return nil
	}

	cc, err := uc.gateway.ParseCheckoutCompleted(evt)
	if err != nil {
		return err
	}

	school, err := uc.resolveSchool(ctx, cc)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The payer is not one of our tenants; acknowledge so the gateway
			// stops retrying.
			uc.log.Warn().Str("email", cc.Email).Str("session_id", cc.SessionID).Msg("no school matches paying email")
			return nil
		}
		return err
	}

	plan, err := model.ParsePlan(cc.PlanID)
	if err != nil {
		uc.log.Warn().Str("plan_id", cc.PlanID).Str("session_id", cc.SessionID).Msg("checkout session carries unknown plan")
		return nil
	}

	return uc.subs.Activate(ctx, school.ID, plan, cc.SessionID)
}

// resolveSchool prefers the school id stamped into session metadata at
// checkout creation; the paying email is the fallback for sessions opened
// out of band.
func (uc *webhookUC) resolveSchool(ctx context.Context, cc *adapter.CheckoutCompleted) (*model.School, error) {
	if cc.SchoolID != "" {
		s, err := uc.schools.FindByID(ctx, repository.NoTX, cc.SchoolID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			// A store failure must surface so the gateway redelivers; only a
			// genuinely unknown id falls through to the email lookup.
			return nil, err
		}
	}
	if cc.Email == "" {
		return nil, domain.ErrNotFound
	}
	return uc.schools.FindByEmail(ctx, repository.NoTX, model.NormalizeEmail(cc.Email))
}
