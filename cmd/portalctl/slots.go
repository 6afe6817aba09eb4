package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/service/availability"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

func newSlotsCmd() *cobra.Command {
	var (
		file   string
		date   string
		booked []string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Compute free slots from an availability file",
		Long: `Compute the bookable slots for a date from an office availability YAML
file, without touching the database.

The file uses the same fields as the availability API:

  slot_duration: 30
  default_schedule:
    1: {start: "09:00", end: "17:00", available: true}
  unavailable_dates: ["2026-12-25"]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validator.IsDate(date) {
				return fmt.Errorf("--date must be YYYY-MM-DD, got %q", date)
			}
			for _, b := range booked {
				if !validator.IsClock(b) {
					return fmt.Errorf("--booked entries must be HH:MM, got %q", b)
				}
			}

			cfg, err := loadAvailability(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			slots := availability.ComputeSlots(cfg, date, booked)
			if len(slots) == 0 {
				fmt.Fprintf(out, "%s: closed or fully booked\n", date)
				return nil
			}
			for _, s := range slots {
				fmt.Fprintf(out, "%s-%s\n", s.Start, s.End)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "availability YAML file")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date to compute (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&booked, "booked", nil, "comma separated booked start times")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// loadAvailability reads a YAML definition, falling back to defaults for omitted fields.
func loadAvailability(path string) (*model.OfficeAvailability, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var in model.OfficeAvailability
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := availability.DefaultAvailability(in.OfficeID)
	if in.DefaultSchedule != nil {
		cfg.DefaultSchedule = in.DefaultSchedule
	}
	if in.SlotDuration > 0 {
		cfg.SlotDuration = in.SlotDuration
	}
	if in.UnavailableDateRanges != nil {
		cfg.UnavailableDateRanges = in.UnavailableDateRanges
	}
	if in.UnavailableDates != nil {
		cfg.UnavailableDates = in.UnavailableDates
	}
	if in.DateOverrides != nil {
		cfg.DateOverrides = in.DateOverrides
	}
	return cfg, nil
}
