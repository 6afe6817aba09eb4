package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/eservice-api/internal/config"
	"github.com/jwalitptl/eservice-api/internal/repository/postgres"
	eventService "github.com/jwalitptl/eservice-api/internal/service/event"
	permissionService "github.com/jwalitptl/eservice-api/internal/service/permission"
	rbacService "github.com/jwalitptl/eservice-api/internal/service/rbac"
	"github.com/jwalitptl/eservice-api/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(db); err != nil {
				return err
			}
			version, err := postgres.MigrationVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the permission catalog and the admin and customer roles",
		Long: `Seed is idempotent. Every run widens the admin role back to the full
catalog, so it also repairs an admin role that lost permissions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := postgres.NewRepositories(db)
			events := eventService.NewService(repos.Outbox, nil)
			svc := rbacService.NewService(repos.RBAC, repos.Users, repos.Offices, permissionService.Routes(), events, nil)
			if err := svc.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d permissions\n", len(permissionService.Catalog()))
			return nil
		},
	}
}
