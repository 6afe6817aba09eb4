package rbac

import (
	"context"

	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
)

// EventRecorder writes domain events to the outbox. Implementations must not fail the caller.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	repo    repository.RBACRepository
	users   repository.UserRepository
	offices repository.OfficeRepository
	routes  *permission.Table
	events  EventRecorder
	metrics *metrics.Metrics
}

func NewService(
	repo repository.RBACRepository,
	users repository.UserRepository,
	offices repository.OfficeRepository,
	routes *permission.Table,
	events EventRecorder,
	m *metrics.Metrics,
) *Service {
	if routes == nil {
		routes = permission.Routes()
	}
	return &Service{
		repo:    repo,
		users:   users,
		offices: offices,
		routes:  routes,
		events:  events,
		metrics: m,
	}
}

func (s *Service) Routes() *permission.Table {
	return s.routes
}

func (s *Service) record(ctx context.Context, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Record(ctx, eventType, payload)
	}
}
