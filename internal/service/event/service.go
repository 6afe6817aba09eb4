package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
)

const eventExpiry = 24 * time.Hour

// Service writes domain events to the outbox. Delivery is the worker's job.
type Service struct {
	repo    repository.OutboxRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.OutboxRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Emit stores eventType with its JSON payload as a pending outbox event.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) (*model.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := s.now()
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.Create(ctx, event)
	s.metrics.ObserveDatabase("create_outbox_event", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox event: %w", err)
	}
	return event, nil
}

// Record is Emit for callers that have already committed their change.
// Failures are logged and never reach the caller.
func (s *Service) Record(ctx context.Context, eventType string, payload interface{}) {
	if _, err := s.Emit(ctx, eventType, payload); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("event_type", eventType).
			Msg("failed to record event")
	}
}

// Cleanup deletes processed events older than a day.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-eventExpiry)
	count, err := s.repo.DeleteProcessedBefore(ctx, cutoff)
	s.metrics.ObserveDatabase("delete_processed_events", err)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("deleted_count", count).
		Time("cutoff", cutoff).
		Msg("processed events cleaned up")
	return count, nil
}
