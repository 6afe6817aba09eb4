package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
	"github.com/jwalitptl/eservice-api/pkg/metrics"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

const (
	MsgUpdateNotAllowed = "Only the office manager or an administrator can update availability"
	MsgManageOwnOffice  = "Managers can only manage availability for their own office"
	MsgInvalidDate      = "date must be a date in YYYY-MM-DD format"
	MsgInvalidTime      = "time must be a time in HH:MM format"
)

// ActorResolver resolves the identity behind a request.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*model.Actor, error)
}

type EventRecorder interface {
	Record(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	repo         repository.AvailabilityRepository
	offices      repository.OfficeRepository
	appointments repository.AppointmentRepository
	actors       ActorResolver
	events       EventRecorder
	validator    validator.Validator
	metrics      *metrics.Metrics
}

func NewService(
	repo repository.AvailabilityRepository,
	offices repository.OfficeRepository,
	appointments repository.AppointmentRepository,
	actors ActorResolver,
	events EventRecorder,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		offices:      offices,
		appointments: appointments,
		actors:       actors,
		events:       events,
		validator:    validator.New(),
		metrics:      m,
	}
}

// GetConfig returns the office's configuration, creating the default on first read.
func (s *Service) GetConfig(ctx context.Context, officeID uuid.UUID) (*model.OfficeAvailability, error) {
	if _, err := s.offices.GetOffice(ctx, officeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Office", err)
		}
		return nil, apperrors.Internal(err)
	}

	cfg, err := s.repo.GetOrCreate(ctx, DefaultAvailability(officeID))
	s.metrics.ObserveDatabase("get_or_create_availability", err)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return normalize(cfg), nil
}

// UpdateConfig applies a partial update. Only administrators and the manager
// of officeID may call it, whatever permissions their role carries.
func (s *Service) UpdateConfig(ctx context.Context, actorID, officeID uuid.UUID, in model.PartialConfig) (*model.OfficeAvailability, error) {
	actor, err := s.actors.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorizeUpdate(actor, officeID); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := checkConfig(in); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	cur, err := s.GetConfig(ctx, officeID)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, merge(cur, in))
	s.metrics.ObserveDatabase("upsert_availability", err)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().
		Str("office_id", officeID.String()).
		Str("actor_id", actorID.String()).
		Msg("office availability updated")
	if s.events != nil {
		s.events.Record(ctx, model.EventAvailabilityUpdated, map[string]interface{}{
			"office_id":     officeID,
			"actor_id":      actorID,
			"slot_duration": saved.SlotDuration,
		})
	}
	return normalize(saved), nil
}

func authorizeUpdate(actor *model.Actor, officeID uuid.UUID) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsManager():
		if !actor.ManagesOffice(officeID) {
			return apperrors.Forbidden(MsgManageOwnOffice)
		}
		return nil
	default:
		return apperrors.Forbidden(MsgUpdateNotAllowed)
	}
}

// GetAvailableSlots loads the configuration and bookings concurrently and
// returns the free slots on date.
func (s *Service) GetAvailableSlots(ctx context.Context, officeID uuid.UUID, date string) (*model.AvailabilityResult, error) {
	if !validator.IsDate(date) {
		return nil, apperrors.BadRequest(MsgInvalidDate, nil)
	}

	var (
		cfg    *model.OfficeAvailability
		booked []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.GetConfig(gctx, officeID)
		return err
	})
	g.Go(func() error {
		var err error
		booked, err = s.appointments.ListBookedTimes(gctx, officeID, date)
		s.metrics.ObserveDatabase("list_booked_times", err)
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}

	if booked == nil {
		booked = []string{}
	}
	slots := ComputeSlots(cfg, date, booked)
	s.metrics.ObserveSlots(len(slots), len(booked))

	return &model.AvailabilityResult{
		Config:         cfg,
		Date:           date,
		AvailableSlots: slots,
		BookedSlots:    booked,
	}, nil
}

// IsSlotBookable reports whether a slot starting at clock is free on date.
func (s *Service) IsSlotBookable(ctx context.Context, officeID uuid.UUID, date, clock string) (bool, error) {
	if !validator.IsClock(clock) {
		return false, apperrors.BadRequest(MsgInvalidTime, nil)
	}
	res, err := s.GetAvailableSlots(ctx, officeID, date)
	if err != nil {
		return false, err
	}
	for _, slot := range res.AvailableSlots {
		if slot.Start == clock {
			return true, nil
		}
	}
	return false, nil
}

// normalize replaces nil collections so responses carry [] and {} rather than null.
func normalize(cfg *model.OfficeAvailability) *model.OfficeAvailability {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = DefaultSlotDuration
	}
	if cfg.DefaultSchedule == nil {
		cfg.DefaultSchedule = model.WeekSchedule{}
	}
	if cfg.UnavailableDateRanges == nil {
		cfg.UnavailableDateRanges = model.DateRanges{}
	}
	if cfg.UnavailableDates == nil {
		cfg.UnavailableDates = model.DateList{}
	}
	if cfg.DateOverrides == nil {
		cfg.DateOverrides = model.DateOverrides{}
	}
	return cfg
}
