package availability

import (
	"fmt"
	"sort"

	"github.com/jwalitptl/eservice-api/internal/model"
)

// checkConfig enforces the ordering rules the tag validator cannot express.
func checkConfig(in model.PartialConfig) error {
	if in.DefaultSchedule != nil {
		days := make([]int, 0, len(*in.DefaultSchedule))
		for d := range *in.DefaultSchedule {
			days = append(days, d)
		}
		sort.Ints(days)
		for _, d := range days {
			if err := checkDay((*in.DefaultSchedule)[d]); err != nil {
				return fmt.Errorf("default_schedule[%d]: %w", d, err)
			}
		}
	}

	if in.DateOverrides != nil {
		dates := make([]string, 0, len(*in.DateOverrides))
		for d := range *in.DateOverrides {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			if err := checkDay((*in.DateOverrides)[d]); err != nil {
				return fmt.Errorf("date_overrides[%s]: %w", d, err)
			}
		}
	}

	if in.UnavailableDateRanges != nil {
		for i, r := range *in.UnavailableDateRanges {
			if r.Start > r.End {
				return fmt.Errorf("unavailable_date_ranges[%d]: start must not be after end", i)
			}
		}
	}
	return nil
}

func checkDay(s model.DaySchedule) error {
	if !s.Available {
		return nil
	}
	start, _ := toMinutes(s.Start)
	end, _ := toMinutes(s.End)
	if start >= end {
		return fmt.Errorf("start must be before end")
	}
	return nil
}

// merge applies the non-nil fields of in to a copy of cur.
func merge(cur *model.OfficeAvailability, in model.PartialConfig) *model.OfficeAvailability {
	next := *cur
	if in.DefaultSchedule != nil {
		next.DefaultSchedule = *in.DefaultSchedule
	}
	if in.SlotDuration != nil {
		next.SlotDuration = *in.SlotDuration
	}
	if in.UnavailableDateRanges != nil {
		next.UnavailableDateRanges = *in.UnavailableDateRanges
	}
	if in.UnavailableDates != nil {
		next.UnavailableDates = *in.UnavailableDates
	}
	if in.DateOverrides != nil {
		next.DateOverrides = *in.DateOverrides
	}
	return &next
}
