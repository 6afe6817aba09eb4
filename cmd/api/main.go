package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/eservice-api/internal/config"
	availabilityHandler "github.com/jwalitptl/eservice-api/internal/handler/availability"
	"github.com/jwalitptl/eservice-api/internal/handler/health"
	permissionHandler "github.com/jwalitptl/eservice-api/internal/handler/permission"
	promHandler "github.com/jwalitptl/eservice-api/internal/handler/prometheus"
	rbacHandler "github.com/jwalitptl/eservice-api/internal/handler/rbac"
	"github.com/jwalitptl/eservice-api/internal/middleware"
	"github.com/jwalitptl/eservice-api/internal/repository/postgres"
	"github.com/jwalitptl/eservice-api/internal/router"
	availabilityService "github.com/jwalitptl/eservice-api/internal/service/availability"
	eventService "github.com/jwalitptl/eservice-api/internal/service/event"
	permissionService "github.com/jwalitptl/eservice-api/internal/service/permission"
	rbacService "github.com/jwalitptl/eservice-api/internal/service/rbac"
	"github.com/jwalitptl/eservice-api/pkg/auth"
	"github.com/jwalitptl/eservice-api/pkg/logger"
	"github.com/jwalitptl/eservice-api/pkg/messaging/redis"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
	"github.com/jwalitptl/eservice-api/pkg/validator"
	"github.com/jwalitptl/eservice-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := validator.RegisterGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repositories and services
	repos := postgres.NewRepositories(db)
	events := eventService.NewService(repos.Outbox, m)
	routes := permissionService.Routes()
	permSvc := permissionService.NewService(repos.RBAC)
	rbacSvc := rbacService.NewService(repos.RBAC, repos.Users, repos.Offices, routes, events, m)
	availSvc := availabilityService.NewService(repos.Availability, repos.Offices, repos.Appointments, rbacSvc, events, m)

	if err := rbacSvc.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed roles and permissions")
	}

	startOutbox(ctx, cfg, repos, events, m)

	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())
	var metricsH *promHandler.Handler
	if cfg.Metrics.Enabled {
		metricsH = promHandler.New(cfg.Metrics.Namespace, registry)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens, rbacSvc),
		health.NewHandler(db),
		metricsH,
		router.RouterConfig{
			Mode:          cfg.Server.Mode,
			RateEnabled:   cfg.RateLimit.Enabled,
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			RateTTL:       cfg.RateLimit.TTL,
			CORSConfig:    middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
			HSTS:          cfg.Server.HSTS,
			ExposeMetrics: cfg.Metrics.Enabled,
		},
		permissionHandler.NewHandler(permSvc, routes),
		rbacHandler.NewHandler(rbacSvc),
		availabilityHandler.NewHandler(availSvc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited properly")
}

// startOutbox runs retention cleanup, and the relay itself when it is embedded.
func startOutbox(ctx context.Context, cfg *config.Config, repos *postgres.Repositories, events *eventService.Service, m *metrics.Metrics) {
	go worker.NewOutboxCleanupWorker(events, cfg.Outbox.CleanupInterval).Start(ctx)

	if !cfg.Outbox.Embedded {
		return
	}
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable, events stay queued for cmd/worker")
		return
	}

	processor := worker.NewOutboxProcessor(repos.Outbox, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, m)
	go func() {
		processor.Start(ctx)
		broker.Close()
	}()
}
