package main

import (
	"fmt"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint an access token for local testing",
	Long: `Token signs a JWT with auth.jwt_secret so the HTTP API can be called
without a separate identity service.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		config, _, err := setup()
		if err != nil {
			return err
		}
		if config.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not configured")
		}

		token, err := auth.NewJWTManager(config.Auth.JWTSecret, ttl).GenerateAccessToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
