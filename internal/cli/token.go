package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/intellicrawl/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for the mutating API routes",
		Example: `  intellicrawl token sourcing-team
  intellicrawl token ci --ttl 24h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("auth.secret is not configured, set INTELLICRAWL_AUTH_SECRET")
			}

			tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			var token string
			if cmd.Flags().Changed("ttl") {
				if ttl <= 0 {
					return fmt.Errorf("--ttl must be positive, got %s", ttl)
				}
				token, err = tokens.GenerateWithDuration(args[0], ttl)
			} else {
				token, err = tokens.Generate(args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.tokenTTL)")
	return cmd
}
