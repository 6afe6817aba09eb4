package permission

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
)

// Repository is the slice of the RBAC store the catalog needs.
type Repository interface {
	ListPermissions(ctx context.Context) ([]*model.Permission, error)
	UpsertPermissions(ctx context.Context, permissions []*model.Permission) error
}

var _ Repository = (repository.RBACRepository)(nil)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPermissions returns stored permissions that belong to the catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	stored, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	out := stored[:0]
	for _, p := range stored {
		if !IsKnown(Name(p.Name)) {
			log.Warn().Str("permission", p.Name).Msg("ignoring permission outside the catalog")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// SeedCatalog upserts every catalog entry and returns the stored rows keyed by name.
func (s *Service) SeedCatalog(ctx context.Context) (map[Name]*model.Permission, error) {
	rows := make([]*model.Permission, 0, len(catalog))
	for _, d := range catalog {
		rows = append(rows, &model.Permission{Name: string(d.Name), Description: d.Description})
	}
	if err := s.repo.UpsertPermissions(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to seed permissions: %w", err)
	}

	byName := make(map[Name]*model.Permission, len(rows))
	for _, p := range rows {
		byName[Name(p.Name)] = p
	}
	log.Info().Int("count", len(rows)).Msg("permission catalog seeded")
	return byName, nil
}
