package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	// AuthHandler mounts the public /auth routes and /me. UserHandler
	// mounts the admin /users routes.
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler

	// IdempotencyStore enables response replay for mutating requests.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	RateLimiter *middleware.RateLimiter

	// TokenVerifier enables bearer authentication. Without it every
	// request acts as domain.SystemUser.
	TokenVerifier middleware.TokenVerifier

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", cfg.AuthHandler.Signup)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
				r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
			})
		}

		r.Group(func(r chi.Router) {
			protectedRoutes(r, cfg)
		})
	})

	return r
}

func protectedRoutes(r chi.Router, cfg RouterConfig) {
	if cfg.TokenVerifier != nil {
		r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
	} else {
		r.Use(middleware.StaticUser(domain.SystemUser))
	}

	if cfg.IdempotencyStore != nil {
		r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
	}

	viewer := middleware.RequireRole(domain.RoleViewer)
	operator := middleware.RequireRole(domain.RoleOperator)
	admin := middleware.RequireRole(domain.RoleAdmin)

	r.Route("/accounts", func(r chi.Router) {
		r.With(admin).Post("/", cfg.AccountHandler.Create)
		r.With(viewer).Get("/", cfg.AccountHandler.List)
		r.Route("/{iban}", func(r chi.Router) {
			r.With(viewer).Get("/", cfg.AccountHandler.Get)
			r.With(admin).Delete("/", cfg.AccountHandler.Delete)
			r.With(admin).Post("/block", cfg.AccountHandler.Block)
			r.With(admin).Post("/unblock", cfg.AccountHandler.Unblock)
			r.With(viewer).Get("/subaccounts", cfg.AccountHandler.ListSubAccounts)
			r.With(admin).Post("/subaccounts", cfg.AccountHandler.CreateSubAccount)
		})
	})

	r.With(viewer).Get("/owners/{ownerID}/accounts", cfg.AccountHandler.ListByOwner)

	r.Route("/transactions", func(r chi.Router) {
		r.With(operator).Post("/", cfg.TransactionHandler.Create)
		r.With(viewer).Get("/", cfg.TransactionHandler.List)
		r.With(viewer).Get("/{id}", cfg.TransactionHandler.Get)
		r.With(admin).Post("/{id}/approve", cfg.TransactionHandler.Approve)
		r.With(admin).Post("/{id}/reject", cfg.TransactionHandler.Reject)
	})

	r.Route("/ledger", func(r chi.Router) {
		r.Use(viewer)
		r.Get("/reconciliation", cfg.LedgerHandler.Reconcile)
		r.Get("/reconciliation/{iban}", cfg.LedgerHandler.ReconcileAccount)
	})

	if cfg.AuthHandler != nil {
		r.With(viewer).Get("/me", cfg.AuthHandler.Me)
	}

	if cfg.UserHandler != nil {
		r.Route("/users", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", cfg.UserHandler.List)
			r.Get("/{id}", cfg.UserHandler.Get)
			r.Patch("/{id}", cfg.UserHandler.Update)
			r.Delete("/{id}", cfg.UserHandler.Delete)
		})
	}
}
