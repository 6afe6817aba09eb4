package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
)

const availabilityColumns = `id, office_id, default_schedule, slot_duration, unavailable_date_ranges,
	unavailable_dates, date_overrides, created_at, updated_at`

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(base BaseRepository) repository.AvailabilityRepository {
	return &availabilityRepository{base}
}

// GetOrCreate relies on the office_id unique constraint: concurrent first reads
// collapse onto one row and the no-op update makes RETURNING yield it.
func (r *availabilityRepository) GetOrCreate(ctx context.Context, defaults *model.OfficeAvailability) (*model.OfficeAvailability, error) {
	query := `
		INSERT INTO office_availability (
			id, office_id, default_schedule, slot_duration, unavailable_date_ranges,
			unavailable_dates, date_overrides, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (office_id) DO UPDATE SET office_id = EXCLUDED.office_id
		RETURNING ` + availabilityColumns

	var cfg model.OfficeAvailability
	err := r.db.GetContext(ctx, &cfg, query,
		uuid.New(),
		defaults.OfficeID,
		defaults.DefaultSchedule,
		defaults.SlotDuration,
		defaults.UnavailableDateRanges,
		defaults.UnavailableDates,
		defaults.DateOverrides,
	)
	if err != nil {
		return nil, translate(err, "failed to get office availability")
	}
	return &cfg, nil
}

func (r *availabilityRepository) Upsert(ctx context.Context, cfg *model.OfficeAvailability) (*model.OfficeAvailability, error) {
	query := `
		INSERT INTO office_availability (
			id, office_id, default_schedule, slot_duration, unavailable_date_ranges,
			unavailable_dates, date_overrides, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (office_id) DO UPDATE SET
			default_schedule = EXCLUDED.default_schedule,
			slot_duration = EXCLUDED.slot_duration,
			unavailable_date_ranges = EXCLUDED.unavailable_date_ranges,
			unavailable_dates = EXCLUDED.unavailable_dates,
			date_overrides = EXCLUDED.date_overrides,
			updated_at = NOW()
		RETURNING ` + availabilityColumns

	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var saved model.OfficeAvailability
	err := r.db.GetContext(ctx, &saved, query,
		id,
		cfg.OfficeID,
		cfg.DefaultSchedule,
		cfg.SlotDuration,
		cfg.UnavailableDateRanges,
		cfg.UnavailableDates,
		cfg.DateOverrides,
	)
	if err != nil {
		return nil, translate(err, "failed to save office availability")
	}
	return &saved, nil
}
