package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", ports.RoleVoter, "Role claim (voter or admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 15*time.Minute, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue an access token for the gateway (development use)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.AuthEnabled() {
			return errors.New("JWT_SECRET is not set")
		}
		if tokenRole != ports.RoleVoter && tokenRole != ports.RoleAdmin {
			return fmt.Errorf("unknown role %q", tokenRole)
		}

		token, err := services.NewTokenService(cfg.JWTSecret).IssueAccessToken(args[0], tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
