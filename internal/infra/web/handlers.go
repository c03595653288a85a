package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/infra/logging"
	"teacher-directory-backend/internal/infra/metrics"
)

// maxWebhookBody bounds the payload read from the payment provider.
const maxWebhookBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// mapError translates domain errors to HTTP statuses. The code string is
// only set for conditions the client is expected to branch on.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownPlan):
		return http.StatusBadRequest, ""
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, domain.ErrCodeNotUnused),
		errors.Is(err, domain.ErrAlreadyRedeemed),
		errors.Is(err, domain.ErrAlreadySubscribed),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrNoSubscription),
		errors.Is(err, domain.ErrPlanChangeDenied):
		return http.StatusConflict, ""
	case errors.Is(err, domain.ErrSubscriptionNeeded):
		return http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED"
	default:
		return http.StatusInternalServerError, ""
	}
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	grantedUntil, err := s.redeemUC.Redeem(r.Context(), p.ID, req.Code)
	if err != nil {
		status, code := mapError(err)
		if status >= http.StatusInternalServerError {
			metrics.IncRedemption("error")
			logging.With(r.Context(), s.log).Error().Err(err).Msg("redeem failed")
			writeError(w, status, "could not redeem access code", code)
			return
		}
		metrics.IncRedemption("denied")
		writeError(w, status, err.Error(), code)
		return
	}
	metrics.IncRedemption("success")

	writeJSON(w, http.StatusOK, struct {
		Message      string    `json:"message"`
		GrantedUntil time.Time `json:"granted_until"`
	}{
		Message:      "trial activated",
		GrantedUntil: grantedUntil,
	})
}

type purchaseRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	plan, err := model.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown plan: "+req.Plan, "")
		return
	}

	session, err := s.subUC.Purchase(r.Context(), p.ID, plan)
	if err != nil {
		status, code := mapError(err)
		if status >= http.StatusInternalServerError {
			logging.With(r.Context(), s.log).Error().Err(err).Msg("purchase failed")
			writeError(w, status, "could not start checkout", code)
			return
		}
		writeError(w, status, err.Error(), code)
		return
	}
	metrics.IncCheckoutSession(string(plan))

	writeJSON(w, http.StatusOK, struct {
		SessionID   string `json:"session_id"`
		CheckoutURL string `json:"checkout_url"`
	}{
		SessionID:   session.SessionID,
		CheckoutURL: session.URL,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	if err := s.subUC.Cancel(r.Context(), p.ID); err != nil {
		status, code := mapError(err)
		if status >= http.StatusInternalServerError {
			logging.With(r.Context(), s.log).Error().Err(err).Msg("cancel failed")
			writeError(w, status, "could not cancel subscription", code)
			return
		}
		writeError(w, status, err.Error(), code)
		return
	}
	metrics.IncCancellation()

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "subscription cancelled"})
}

type subscriptionResponse struct {
	Status    model.SubscriptionStatus `json:"status"`
	Plan      *string                  `json:"plan"`
	StartedAt *time.Time               `json:"started_at"`
	EndAt     *time.Time               `json:"end_at"`
	Entitled  bool                     `json:"entitled"`
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	school, err := s.subUC.Current(r.Context(), p.ID)
	if err != nil {
		status, code := mapError(err)
		writeError(w, status, "could not load subscription", code)
		return
	}

	resp := subscriptionResponse{
		Status:    school.SubscriptionStatus,
		StartedAt: school.SubscriptionStartedAt,
		EndAt:     school.SubscriptionEndAt,
		Entitled:  school.IsEntitled(time.Now()),
	}
	if school.SubscriptionPlan != model.PlanNone {
		plan := string(school.SubscriptionPlan)
		resp.Plan = &plan
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read payload", "")
		return
	}

	evt, err := s.gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.IncWebhookEvent("unknown", "invalid_signature")
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook signature rejected")
		writeError(w, http.StatusBadRequest, "invalid signature", "")
		return
	}

	if err := s.webhookUC.HandleEvent(r.Context(), evt); err != nil {
		metrics.IncWebhookEvent(evt.Type, "error")
		logging.With(r.Context(), s.log).Error().Err(err).Str("event_id", evt.ID).Msg("webhook handling failed")
		// Non-2xx makes the provider retry the delivery.
		writeError(w, http.StatusInternalServerError, "event not processed", "")
		return
	}
	metrics.IncWebhookEvent(evt.Type, "ok")

	writeJSON(w, http.StatusOK, struct {
		Received bool `json:"received"`
	}{Received: true})
}

type accessCodeView struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	SchoolID    *string    `json:"school_id"`
	FirstUsedAt *time.Time `json:"first_used_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func codeView(c *model.AccessCode) accessCodeView {
	return accessCodeView{
		ID:          c.ID,
		Code:        c.Code,
		Status:      string(c.Status),
		SchoolID:    c.SchoolID,
		FirstUsedAt: c.FirstUsedAt,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
	}
}

func (s *Server) handleCodeList(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codeUC.List(r.Context())
	if err != nil {
		status, code := mapError(err)
		writeError(w, status, "could not list access codes", code)
		return
	}
	views := make([]accessCodeView, 0, len(codes))
	for _, c := range codes {
		views = append(views, codeView(c))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []accessCodeView `json:"data"`
	}{Data: views})
}

type codeCreateRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleCodeCreate(w http.ResponseWriter, r *http.Request) {
	var req codeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	code, err := s.codeUC.Create(r.Context(), req.Code)
	if err != nil {
		status, mapped := mapError(err)
		if errors.Is(err, domain.ErrAlreadyExists) {
			writeError(w, status, "access code already exists", mapped)
			return
		}
		writeError(w, status, "could not create access code", mapped)
		return
	}
	writeJSON(w, http.StatusCreated, codeView(code))
}

func (s *Server) handleCodeExpire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "access code id is required", "")
		return
	}
	if err := s.codeUC.Expire(r.Context(), id); err != nil {
		status, code := mapError(err)
		writeError(w, status, "could not expire access code", code)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "access code expired"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
