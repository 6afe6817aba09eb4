package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DaySchedule is one day's working window. Start and End are HH:MM.
type DaySchedule struct {
	Start     string `json:"start" yaml:"start" validate:"required,clock"`
	End       string `json:"end" yaml:"end" validate:"required,clock"`
	Available bool   `json:"available" yaml:"available"`
}

// WeekSchedule maps weekday index (0=Sunday..6=Saturday) to its schedule.
type WeekSchedule map[int]DaySchedule

// DateRange is an inclusive YYYY-MM-DD range.
type DateRange struct {
	Start  string `json:"start" yaml:"start" validate:"required,date"`
	End    string `json:"end" yaml:"end" validate:"required,date"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty" validate:"max=255"`
}

type DateRanges []DateRange

type DateList []string

// DateOverrides maps a YYYY-MM-DD date to the schedule replacing the weekly default.
type DateOverrides map[string]DaySchedule

type OfficeAvailability struct {
	ID                    uuid.UUID     `db:"id" json:"id" yaml:"-"`
	OfficeID              uuid.UUID     `db:"office_id" json:"office_id" yaml:"office_id"`
	DefaultSchedule       WeekSchedule  `db:"default_schedule" json:"default_schedule" yaml:"default_schedule"`
	SlotDuration          int           `db:"slot_duration" json:"slot_duration" yaml:"slot_duration"`
	UnavailableDateRanges DateRanges    `db:"unavailable_date_ranges" json:"unavailable_date_ranges" yaml:"unavailable_date_ranges"`
	UnavailableDates      DateList      `db:"unavailable_dates" json:"unavailable_dates" yaml:"unavailable_dates"`
	DateOverrides         DateOverrides `db:"date_overrides" json:"date_overrides" yaml:"date_overrides"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt             time.Time     `db:"updated_at" json:"updated_at" yaml:"-"`
}

// PartialConfig carries an availability update; nil fields are left unchanged.
type PartialConfig struct {
	DefaultSchedule       *WeekSchedule  `json:"default_schedule" validate:"omitempty,dive,keys,min=0,max=6,endkeys"`
	SlotDuration          *int           `json:"slot_duration" validate:"omitempty,min=5,max=480"`
	UnavailableDateRanges *DateRanges    `json:"unavailable_date_ranges" validate:"omitempty,dive"`
	UnavailableDates      *DateList      `json:"unavailable_dates" validate:"omitempty,dive,date"`
	DateOverrides         *DateOverrides `json:"date_overrides" validate:"omitempty,dive,keys,date,endkeys"`
}

type TimeSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type AvailabilityResult struct {
	Config         *OfficeAvailability `json:"config"`
	Date           string              `json:"date"`
	AvailableSlots []TimeSlot          `json:"available_slots"`
	BookedSlots    []string            `json:"booked_slots"`
}

func (s WeekSchedule) Value() (driver.Value, error)  { return jsonValue(s) }
func (s *WeekSchedule) Scan(src interface{}) error   { return scanJSON(src, s) }
func (r DateRanges) Value() (driver.Value, error)    { return jsonValue(r) }
func (r *DateRanges) Scan(src interface{}) error     { return scanJSON(src, r) }
func (d DateList) Value() (driver.Value, error)      { return jsonValue(d) }
func (d *DateList) Scan(src interface{}) error       { return scanJSON(src, d) }
func (o DateOverrides) Value() (driver.Value, error) { return jsonValue(o) }
func (o *DateOverrides) Scan(src interface{}) error  { return scanJSON(src, o) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for jsonb column", src)
	}
	return json.Unmarshal(b, dst)
}
