package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/repository/postgres"
	eventService "github.com/jwalitptl/eservice-api/internal/service/event"
	"github.com/jwalitptl/eservice-api/pkg/logger"
	"github.com/jwalitptl/eservice-api/pkg/messaging/redis"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
	"github.com/jwalitptl/eservice-api/pkg/worker"
)

// Config is read from WORKER_* environment variables.
type Config struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPoolSize   int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisRetries    int           `envconfig:"REDIS_MAX_RETRIES" default:"3"`
	HealthAddr      string        `envconfig:"HEALTH_ADDR" default:":8081"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	Outbox          worker.OutboxProcessorConfig
}

func main() {
	var cfg Config
	if err := envconfig.Process("WORKER", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}
	logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:        cfg.RedisURL,
		PoolSize:   cfg.RedisPoolSize,
		MaxRetries: cfg.RedisRetries,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("outbox_worker", registry)

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox, m)
	cleaner := worker.NewOutboxCleanupWorker(eventService.NewService(outboxRepo, m), cfg.CleanupInterval)

	srv := healthServer(cfg.HealthAddr, db, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
			stop()
		}
	}()

	go cleaner.Start(ctx)
	processor.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("worker stopped")
}

func healthServer(addr string, db *sqlx.DB, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("database: %v", err), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
