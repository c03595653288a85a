package model

import (
	"strings"
	"time"

	"teacher-directory-backend/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "NO_SUBSCRIPTION"
	SubscriptionStatusTrial     SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Plan is the purchasable tier. The empty string means "no plan"
// (stored as NULL).
type Plan string

const (
	PlanNone     Plan = ""
	PlanBasic    Plan = "BASIC"
	PlanPro      Plan = "PRO"
	PlanUltimate Plan = "ULTIMATE"
)

// planRanks defines the strict upgrade order. Only upward moves are allowed
// while a plan is effective; lateral and downward moves are denied.
var planRanks = map[Plan]int{
	PlanNone:     0,
	PlanBasic:    1,
	PlanPro:      2,
	PlanUltimate: 3,
}

func ParsePlan(s string) (Plan, error) {
	switch Plan(strings.ToUpper(strings.TrimSpace(s))) {
	case PlanBasic:
		return PlanBasic, nil
	case PlanPro:
		return PlanPro, nil
	case PlanUltimate:
		return PlanUltimate, nil
	default:
		return PlanNone, domain.ErrUnknownPlan
	}
}

func (p Plan) Rank() int { return planRanks[p] }

// Duration is the entitlement window granted on activation.
func (p Plan) Duration(from time.Time) time.Time {
	switch p {
	case PlanBasic:
		return from.AddDate(0, 1, 0)
	case PlanPro:
		return from.AddDate(0, 6, 0)
	case PlanUltimate:
		return from.AddDate(1, 0, 0)
	default:
		return from
	}
}

// School is the tenant entity. Only the subscription slice of the record is
// owned by this service; profile fields ride along for the admin views.
type School struct {
	ID          string
	Email       string // stored lower-cased
	Name        string
	ContactName string

	SubscriptionStatus    SubscriptionStatus
	SubscriptionPlan      Plan
	SubscriptionStartedAt *time.Time
	SubscriptionEndAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSchool validates and constructs a school with no subscription.
func NewSchool(id, email, name string) (*School, error) {
	if id == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &School{
		ID:                 id,
		Email:              NormalizeEmail(email),
		Name:               name,
		SubscriptionStatus: SubscriptionStatusNone,
		SubscriptionPlan:   PlanNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEntitled answers "can this school access gated resources right now".
// Expiry is lazy: the stored status is not trusted past its end timestamp.
func (s *School) IsEntitled(now time.Time) bool {
	if s.SubscriptionStatus != SubscriptionStatusTrial && s.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	return s.SubscriptionEndAt != nil && s.SubscriptionEndAt.After(now)
}

// EffectivePlan is the plan that counts for upgrade gating: the current plan
// only while status is ACTIVE and the window has not lapsed.
func (s *School) EffectivePlan(now time.Time) Plan {
	if s.SubscriptionStatus != SubscriptionStatusActive {
		return PlanNone
	}
	if s.SubscriptionEndAt == nil || !s.SubscriptionEndAt.After(now) {
		return PlanNone
	}
	return s.SubscriptionPlan
}

// CanBuyPlan applies the upgrade-gating rules against the effective plan.
// A nil return means the purchase is allowed.
func (s *School) CanBuyPlan(requested Plan, now time.Time) error {
	if requested == PlanNone {
		return domain.ErrUnknownPlan
	}
	current := s.EffectivePlan(now)
	switch {
	case current == PlanNone:
		return nil
	case current == PlanUltimate:
		return &domain.PlanChangeDeniedError{Reason: "already on ULTIMATE; cancel or wait for expiry first"}
	case requested.Rank() > current.Rank():
		return nil
	default:
		return &domain.PlanChangeDeniedError{Reason: "must upgrade to " + upgradeTargets(current)}
	}
}

func upgradeTargets(current Plan) string {
	switch current {
	case PlanBasic:
		return "PRO or ULTIMATE"
	case PlanPro:
		return "ULTIMATE"
	default:
		return "a higher plan"
	}
}
