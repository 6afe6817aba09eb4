package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

const (
	DefaultSlotDuration = 30
	defaultOpen         = "09:00"
	defaultClose        = "17:00"
)

// ResolveSchedule picks the schedule in force on date. Precedence: blackout
// ranges, blackout dates, date overrides, then the weekly default. ok is false
// when the office takes no bookings that day.
func ResolveSchedule(cfg *model.OfficeAvailability, date string) (schedule model.DaySchedule, ok bool) {
	if cfg == nil {
		return model.DaySchedule{}, false
	}
	day, err := time.Parse(validator.DateLayout, date)
	if err != nil || !validator.IsDate(date) {
		return model.DaySchedule{}, false
	}

	// YYYY-MM-DD compares correctly as a string.
	for _, r := range cfg.UnavailableDateRanges {
		if date >= r.Start && date <= r.End {
			return model.DaySchedule{}, false
		}
	}
	for _, d := range cfg.UnavailableDates {
		if d == date {
			return model.DaySchedule{}, false
		}
	}

	if override, found := cfg.DateOverrides[date]; found {
		schedule = override
	} else if weekly, found := cfg.DefaultSchedule[int(day.Weekday())]; found {
		schedule = weekly
	} else {
		return model.DaySchedule{}, false
	}

	if !schedule.Available {
		return model.DaySchedule{}, false
	}
	return schedule, true
}

// DefaultAvailability is the configuration created on first read:
// Monday to Friday 09:00-17:00, weekends closed.
func DefaultAvailability(officeID uuid.UUID) *model.OfficeAvailability {
	week := make(model.WeekSchedule, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		week[int(d)] = model.DaySchedule{
			Start:     defaultOpen,
			End:       defaultClose,
			Available: d != time.Saturday && d != time.Sunday,
		}
	}
	return &model.OfficeAvailability{
		OfficeID:              officeID,
		DefaultSchedule:       week,
		SlotDuration:          DefaultSlotDuration,
		UnavailableDateRanges: model.DateRanges{},
		UnavailableDates:      model.DateList{},
		DateOverrides:         model.DateOverrides{},
	}
}
