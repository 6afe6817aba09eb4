package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/eservice-api/internal/config"
	"github.com/jwalitptl/eservice-api/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for a user",
		Long: `Mint a bearer token signed with the configured JWT secret. Intended for
smoke tests against a running API; the role claim is informational and the
API resolves permissions from the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()).
				GenerateAccessToken(id, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to embed in the token")
	cmd.Flags().StringVar(&role, "role", "", "role name claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
