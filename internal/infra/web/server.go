package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"legalmarket-subscription/internal/config"
	red "legalmarket-subscription/internal/infra/redis"
	"legalmarket-subscription/internal/usecase"
)

// Server exposes the subscription portal REST surface.
type Server struct {
	cfg     *config.Config
	subUC   usecase.SubscriptionUseCase
	planUC  usecase.PlanUseCase
	usageUC usecase.UsageUseCase
	auth    *Authenticator
	limiter *red.RateLimiter
	log     *zerolog.Logger

	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	subUC usecase.SubscriptionUseCase,
	planUC usecase.PlanUseCase,
	usageUC usecase.UsageUseCase,
	auth *Authenticator,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		cfg:     cfg,
		subUC:   subUC,
		planUC:  planUC,
		usageUC: usageUC,
		auth:    auth,
		limiter: limiter,
		log:     &webLog,
	}
}

// Router builds the full route tree. Split out from Start so tests can drive
// it with httptest.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	rl := RateLimit(s.limiter, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window)

	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/plans", s.handleListPlans)

		r.Route("/user/{role}", func(r chi.Router) {
			r.Get("/", s.handleCurrent)
			r.Get("/history", s.handleHistory)
		})

		r.Route("/subscribe/{role}", func(r chi.Router) {
			r.With(rl).Post("/", s.handleSubscribe)
			r.With(rl).Post("/payment", s.handleConfirmPayment)
			r.Delete("/", s.handleCancel)
		})

		r.Route("/usage/{role}", func(r chi.Router) {
			r.Post("/", s.handleConsume)
			r.Get("/", s.handleRemaining)
		})
	})

	r.Route("/admin/plans", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(RequireAdmin)

		r.Get("/", s.handleAdminListPlans)
		r.Post("/", s.handleAdminCreatePlan)
		r.Put("/{id}", s.handleAdminUpdatePlan)
		r.Delete("/{id}", s.handleAdminDeletePlan)
	})

	return r
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
