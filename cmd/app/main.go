package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legalmarket-subscription/internal/config"
	"legalmarket-subscription/internal/domain/ports/adapter"
	pg "legalmarket-subscription/internal/infra/db/postgres"
	"legalmarket-subscription/internal/infra/logging"
	"legalmarket-subscription/internal/infra/metrics"
	payAdapters "legalmarket-subscription/internal/infra/payment"
	red "legalmarket-subscription/internal/infra/redis"
	"legalmarket-subscription/internal/infra/sched"
	"legalmarket-subscription/internal/infra/web"
	"legalmarket-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed auth config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	confRepo := pg.NewConfirmationRepo(pool)
	usageRepo := pg.NewUsageEventRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.Provider == "simulated" {
		gateway = payAdapters.NewSimulatedGateway()
		logger.Warn().Msg("payment gateway: simulated (no provider verification)")
	} else {
		gateway, err = payAdapters.NewRESTGateway(cfg.Payment.Provider, cfg.Payment.BaseURL, cfg.Payment.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment gateway")
		}
		logger.Info().Str("provider", cfg.Payment.Provider).Msg("payment gateway configured")
	}

	// ---- Use cases ----
	policy := usecase.BillingPolicy{
		AllowDeferredDowngrade: cfg.Billing.AllowDeferredDowngrade,
		ProrateUpgrades:        cfg.Billing.ProrateUpgrades,
		PendingTTL:             cfg.Billing.PendingTTL,
		ConfirmTimeout:         cfg.Payment.ConfirmTimeout,
	}
	planUC := usecase.NewPlanUseCase(planRepo, subRepo, txm, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, confRepo, txm, gateway, policy, logger)
	usageUC := usecase.NewUsageUseCase(subRepo, usageRepo, txm, logger)

	// ---- HTTP server ----
	auth := web.NewAuthenticator(cfg.Security.JWTSecret, cfg.Security.SessionTTL)
	server := web.NewServer(cfg, subUC, planUC, usageUC, auth, rateLimiter, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Billing.ExpiryInterval, subUC, locker, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
