package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, phone, role_id, status, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err, "failed to get user")
	}
	return &user, nil
}

func (r *userRepository) GetStaffOffice(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	query := `SELECT office_id FROM staff WHERE user_id = $1 AND deleted_at IS NULL`

	var officeID uuid.UUID
	if err := r.db.GetContext(ctx, &officeID, query, userID); err != nil {
		return uuid.Nil, translate(err, "failed to get staff office")
	}
	return officeID, nil
}

type officeRepository struct {
	BaseRepository
}

func NewOfficeRepository(base BaseRepository) repository.OfficeRepository {
	return &officeRepository{base}
}

func (r *officeRepository) GetOffice(ctx context.Context, id uuid.UUID) (*model.Office, error) {
	query := `
		SELECT id, name, address, status, created_at, updated_at, deleted_at
		FROM offices
		WHERE id = $1 AND deleted_at IS NULL
	`
	var office model.Office
	if err := r.db.GetContext(ctx, &office, query, id); err != nil {
		return nil, translate(err, "failed to get office")
	}
	return &office, nil
}
