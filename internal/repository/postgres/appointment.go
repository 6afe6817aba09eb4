package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) ListBookedTimes(ctx context.Context, officeID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT DISTINCT a.time
		FROM appointments a
		JOIN requests rq ON rq.id = a.request_id
		JOIN services s ON s.id = rq.service_id
		WHERE s.office_id = $1
		AND a.date = $2::date
		AND a.status <> $3
		AND a.time IS NOT NULL
		ORDER BY a.time
	`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, officeID, date, string(model.AppointmentStatusCancelled)); err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	return times, nil
}
