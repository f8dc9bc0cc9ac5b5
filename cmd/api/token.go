package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
)

var (
	tokenAgentID    int64
	tokenCustomerID int64
)

// tokenCmd signs a bearer token with AUTH_JWT_SECRET for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an agent or customer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if (tokenAgentID > 0) == (tokenCustomerID > 0) {
			return errors.New("exactly one of --agent or --customer is required")
		}
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		subject, id := domain.SubjectTypeAgent, tokenAgentID
		if tokenCustomerID > 0 {
			subject, id = domain.SubjectTypeCustomer, tokenCustomerID
		}
		token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes).GenerateToken(id, subject)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenAgentID, "agent", 0, "agent id")
	tokenCmd.Flags().Int64Var(&tokenCustomerID, "customer", 0, "customer id")
}
