package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/infra/logging"
)

type Middleware func(http.Handler) http.Handler

func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := uuid.NewString()
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logging.With(r.Context(), logger)
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(ww, r)
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l := logging.With(r.Context(), logger)
					l.Error().Interface("panic", rec).Msg("panic recovered")
					writeError(w, http.StatusInternalServerError, "internal error", "")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth verifies the credential once and stores the typed principal on
// the request context.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.Verify(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated", "")
			return
		}
		ctx := withPrincipal(r.Context(), p)
		ctx = logging.WithSchoolID(ctx, p.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin principals. Must run after RequireAuth.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated", "")
			return
		}
		if p.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "access denied, admins only", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Paths that bypass the subscription gate: the subscription lifecycle itself,
// webhooks, admin and operational endpoints.
var subscriptionExemptPaths = []string{
	"/use-access-code",
	"/subscription",
	"/webhook",
	"/admin",
	"/health",
	"/metrics",
}

func subscriptionExempt(path string) bool {
	for _, p := range subscriptionExemptPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RequireSubscription gates directory resources on entitlement. Admins
// bypass; expiry is evaluated at read time from the stored end timestamp.
func (s *Server) RequireSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subscriptionExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated", "")
			return
		}
		if p.Role == RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		school, err := s.subUC.Current(r.Context(), p.ID)
		if err != nil {
			status, code := mapError(err)
			writeError(w, status, "subscription check failed", code)
			return
		}
		now := time.Now()
		if !school.IsEntitled(now) {
			if school.SubscriptionEndAt != nil && !school.SubscriptionEndAt.After(now) {
				writeError(w, http.StatusPaymentRequired, "your subscription has expired, please renew", "SUBSCRIPTION_EXPIRED")
				return
			}
			writeError(w, http.StatusPaymentRequired, "you must purchase a subscription to access this resource", "SUBSCRIPTION_REQUIRED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
