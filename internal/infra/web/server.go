package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/usecase"
)

// Server wires the HTTP surface: subscription lifecycle endpoints, the
// payment webhook, and the admin access-code API.
type Server struct {
	auth      *AuthManager
	redeemUC  usecase.RedeemUseCase
	subUC     usecase.SubscriptionUseCase
	webhookUC usecase.WebhookUseCase
	codeUC    usecase.AccessCodeUseCase
	gateway   adapter.PaymentGateway
	log       *zerolog.Logger

	gated chi.Router
}

func NewServer(
	auth *AuthManager,
	redeemUC usecase.RedeemUseCase,
	subUC usecase.SubscriptionUseCase,
	webhookUC usecase.WebhookUseCase,
	codeUC usecase.AccessCodeUseCase,
	gateway adapter.PaymentGateway,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		auth:      auth,
		redeemUC:  redeemUC,
		subUC:     subUC,
		webhookUC: webhookUC,
		codeUC:    codeUC,
		gateway:   gateway,
		log:       &l,
	}
}

// Router builds the full route tree. Directory resources mounted later via
// Gated() sit behind both authentication and the subscription gate.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook/payment", s.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireAuth)
		r.Use(s.RequireSubscription)

		r.Post("/use-access-code", s.handleRedeem)
		r.Get("/subscription", s.handleSubscription)
		r.Post("/subscription/purchase", s.handlePurchase)
		r.Post("/subscription/cancel", s.handleCancel)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.RequireAdmin)
			r.Get("/access-codes", s.handleCodeList)
			r.Post("/access-codes", s.handleCodeCreate)
			r.Delete("/access-codes/{id}", s.handleCodeExpire)
		})

		s.gated = r
	})

	return r
}

// Gated exposes the authenticated, entitlement-gated subtree so the rest of
// the application can mount directory resources on it. Router must have been
// called first.
func (s *Server) Gated() chi.Router {
	return s.gated
}
