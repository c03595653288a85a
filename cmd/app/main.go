package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/config"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/adapter"
	"teacher-directory-backend/internal/domain/ports/repository"
	payAdapters "teacher-directory-backend/internal/infra/adapters/payment"
	pg "teacher-directory-backend/internal/infra/db/postgres"
	"teacher-directory-backend/internal/infra/logging"
	"teacher-directory-backend/internal/infra/metrics"
	red "teacher-directory-backend/internal/infra/redis"
	"teacher-directory-backend/internal/infra/web"
	"teacher-directory-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop payment gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	schoolRepo := pg.NewSchoolRepoCacheDecorator(pg.NewSchoolRepo(pool), redisClient, cfg.Redis.TTL)
	codeRepo := pg.NewAccessCodeRepo(pool)
	sessionRepo := pg.NewCheckoutSessionRepo(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Warn().Msg("payment gateway: noop (dev mode)")
	} else {
		gateway, err = payAdapters.NewStripeGateway(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway init failed")
		}
	}

	// ---- Use cases ----
	checkout := usecase.CheckoutConfig{
		PriceIDs: map[model.Plan]string{
			model.PlanBasic:    cfg.Payment.Stripe.PriceBasic,
			model.PlanPro:      cfg.Payment.Stripe.PricePro,
			model.PlanUltimate: cfg.Payment.Stripe.PriceUltimate,
		},
		SuccessURL: cfg.Payment.ClientURL + "/subscription?status=success",
		CancelURL:  cfg.Payment.ClientURL + "/subscription?status=cancelled",
	}
	redeemUC := usecase.NewRedeemUseCase(schoolRepo, codeRepo, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(schoolRepo, codeRepo, sessionRepo, tm, gateway, checkout, logger)
	webhookUC := usecase.NewWebhookUseCase(schoolRepo, subUC, gateway, logger)
	codeUC := usecase.NewAccessCodeUseCase(codeRepo, logger)

	// ---- Metrics ----
	metrics.MustRegister()
	go reportSubscriptionTotals(ctx, schoolRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.CookieName, !cfg.Runtime.Dev, cfg.Auth.TTL)
	srv := web.NewServer(auth, redeemUC, subUC, webhookUC, codeUC, gateway, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}

// reportSubscriptionTotals refreshes the subscription status gauge every
// minute so dashboards track trial/active/expired counts.
func reportSubscriptionTotals(ctx context.Context, schools repository.SchoolRepository, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := schools.CountByStatus(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("subscription totals query failed")
				continue
			}
			metrics.SetSubscriptionsTotal(counts)
		}
	}
}
