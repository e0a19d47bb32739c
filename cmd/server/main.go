package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/usecase"
)

// limiterIdleTimeout is how long a client may stay silent before its rate
// limiter is dropped.
const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "bankledger"})
	logger.SetGlobal(lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, metrics.New()); err != nil {
		lg.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}

	lg.Info().Msg("server stopped")
}

// app is the fully wired service.
type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores groups the ports that differ between store drivers.
type stores struct {
	txManager       usecase.TransactionManager
	accountRepo     usecase.AccountRepository
	transactionRepo usecase.TransactionRepository
	userRepo        usecase.UserRepository
	retrier         usecase.Retrier
}

func newApp(ctx context.Context, cfg *config.Config, lg zerolog.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}
	health := handler.NewHealthHandler()

	var st stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		st = stores{
			txManager:       memory.NewTxManager(store),
			accountRepo:     memory.NewAccountRepository(store),
			transactionRepo: memory.NewTransactionRepository(store),
			userRepo:        memory.NewUserRepository(store),
		}
		lg.Warn().Msg("using in-memory store, data is lost on restart")

	case config.StoreDriverPostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, lg); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		lg.Info().Msg("connected to postgres")

		st = stores{
			txManager:       postgresRepo.NewTxManager(pool),
			accountRepo:     postgresRepo.NewAccountRepository(pool),
			transactionRepo: postgresRepo.NewTransactionRepository(pool),
			userRepo:        postgresRepo.NewUserRepository(pool),
			retrier:         postgresRepo.NewRetrier(lg, m).WithMaxRetries(int(cfg.RetryMaxAttempts)),
		}
		health.WithCheck("postgres", pool)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		lg.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(client, m)
		health.WithCheck("redis", handler.PingerFunc(redis.Ping(client)))
	}

	userLog := lg.With().Str("component", "users").Logger()
	userUC := usecase.NewUserUseCase(
		st.userRepo,
		postgresRepo.NewULIDGenerator(),
		usecase.WithPasswordCost(cfg.PasswordCost),
		usecase.WithResetTokenTTL(cfg.ResetTokenTTL),
		usecase.WithUserLogger(userLog),
	)
	if cfg.AdminEmail != "" {
		admin, err := userUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("ensure admin: %w", err)
		}
		lg.Info().Str("user_id", admin.ID).Msg("admin account ready")
	}

	accountUC := usecase.NewAccountUseCase(
		st.txManager,
		st.accountRepo,
		postgresRepo.NewIBANGenerator(cfg.IBANPrefix),
		usecase.WithOwnerLookup(st.userRepo),
		usecase.WithAccountMetrics(m),
		usecase.WithAccountLogger(lg.With().Str("component", "accounts").Logger()),
	)
	ledgerUC := usecase.NewLedgerUseCase(
		st.txManager,
		st.accountRepo,
		st.transactionRepo,
		postgresRepo.NewULIDGenerator(),
		usecase.WithRetrier(st.retrier),
		usecase.WithLedgerMetrics(m),
		usecase.WithLedgerLogger(lg.With().Str("component", "ledger").Logger()),
	)
	reconciliationUC := usecase.NewReconciliationUseCase(
		st.accountRepo,
		st.transactionRepo,
		m,
		lg.With().Str("component", "reconciliation").Logger(),
	)

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(ledgerUC),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:      health,
		UserHandler:        handler.NewUserHandler(userUC),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        a.rateLimiter,
		Metrics:            m,
		Logger:             lg,
	}
	if cfg.AuthEnabled {
		tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		routerCfg.TokenVerifier = tokens
		routerCfg.AuthHandler = handler.NewAuthHandler(userUC, tokens)
	} else {
		lg.Warn().Msg("authentication disabled, requests act as the system user")
	}

	a.handler = httpAdapter.NewRouter(routerCfg)

	return a, nil
}

// run serves the API until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, lg zerolog.Logger, m *metrics.Metrics) error {
	a, err := newApp(ctx, cfg, lg, m)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := a.rateLimiter.CleanupLimiters(limiterIdleTimeout); n > 0 {
					lg.Debug().Int("removed", n).Msg("dropped idle rate limiters")
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		lg.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
