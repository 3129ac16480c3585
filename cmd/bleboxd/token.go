package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-blebox/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the REST API",
		Long: `Token signs a JWT with the configured api.auth.jwt_secret and prints it.
Viewers may read device state; operators may also send commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.API.Auth.JWTSecret == "" {
				return errors.New("api.auth.jwt_secret is not set")
			}
			if ttl == 0 {
				ttl = cfg.API.Auth.TokenTTL
			}

			token, err := auth.GenerateToken(subject, auth.Role(role), cfg.API.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("minting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Caller name recorded in the token (required)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "Role: viewer or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: api.auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
