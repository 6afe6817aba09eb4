package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/pkg/messaging"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"50"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"5"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"30s"`
}

// OutboxProcessor relays claimed outbox events to the broker.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	m *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		metrics: m,
		now:     time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	log.Info().
		Int("batch_size", p.config.BatchSize).
		Dur("poll_interval", p.config.PollInterval).
		Msg("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process events")
			}
		}
	}
}

// ProcessBatch claims one batch and publishes it, returning how many events
// were delivered.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	p.metrics.ObserveDatabase("claim_pending_events", err)
	if err != nil {
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}

	delivered := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to process event")
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	attempt := event.RetryCount + 1

	body, err := json.Marshal(messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	})
	if err == nil {
		err = p.broker.Publish(ctx, messaging.Channel(event.EventType), body)
	}
	p.metrics.ObserveOutbox(event.EventType, attempt, err)

	if err != nil {
		if attempt >= p.config.RetryAttempts {
			if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				return fmt.Errorf("failed to mark event failed: %w", markErr)
			}
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		retryAt := p.now().Add(p.config.RetryDelay * time.Duration(attempt))
		if markErr := p.repo.MarkRetry(ctx, event.ID, err.Error(), retryAt); markErr != nil {
			return fmt.Errorf("failed to schedule retry: %w", markErr)
		}
		return err
	}

	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
