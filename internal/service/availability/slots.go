package availability

import (
	"fmt"
	"time"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

// toMinutes converts HH:MM to minutes since midnight.
func toMinutes(clock string) (int, bool) {
	if !validator.IsClock(clock) {
		return 0, false
	}
	t, err := time.Parse(validator.ClockLayout, clock)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func fromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// GenerateTimeSlots cuts a day schedule into consecutive slots of slotDuration
// minutes. A trailing remainder shorter than slotDuration is dropped.
func GenerateTimeSlots(schedule model.DaySchedule, slotDuration int) []model.TimeSlot {
	slots := []model.TimeSlot{}
	if !schedule.Available || slotDuration <= 0 {
		return slots
	}
	start, ok := toMinutes(schedule.Start)
	if !ok {
		return slots
	}
	end, ok := toMinutes(schedule.End)
	if !ok {
		return slots
	}

	for cur := start; cur+slotDuration <= end; cur += slotDuration {
		slots = append(slots, model.TimeSlot{
			Start:     fromMinutes(cur),
			End:       fromMinutes(cur + slotDuration),
			Available: true,
		})
	}
	return slots
}

// ExcludeBooked drops slots whose start equals a booked time. Order is kept.
func ExcludeBooked(slots []model.TimeSlot, booked []string) []model.TimeSlot {
	if len(booked) == 0 {
		return slots
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	out := make([]model.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s.Start]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ComputeSlots returns the free slots of cfg on date given the booked start times.
func ComputeSlots(cfg *model.OfficeAvailability, date string, booked []string) []model.TimeSlot {
	schedule, ok := ResolveSchedule(cfg, date)
	if !ok {
		return []model.TimeSlot{}
	}
	return ExcludeBooked(GenerateTimeSlots(schedule, cfg.SlotDuration), booked)
}
