package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "portalctl - operator tooling for the e-service portal",
		Long: `portalctl runs schema migrations, seeds the permission catalog and system
roles, and answers access and availability questions offline.`,
		Example: `  # Prepare a fresh database
  portalctl migrate
  portalctl seed

  # Which permission does a route need?
  portalctl check PUT /api/roles/42/permissions

  # Compute slots from an availability file
  portalctl slots --file office.yaml --date 2026-10-19 --booked 09:30,10:00`,
		SilenceUsage: true,
	}

	root.AddGroup(
		&cobra.Group{ID: "db", Title: "Database Commands:"},
		&cobra.Group{ID: "inspect", Title: "Inspection Commands:"},
	)

	for _, c := range []*cobra.Command{newMigrateCmd(), newSeedCmd(), newTokenCmd()} {
		c.GroupID = "db"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{newRoutesCmd(), newCheckCmd(), newSlotsCmd()} {
		c.GroupID = "inspect"
		root.AddCommand(c)
	}
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
