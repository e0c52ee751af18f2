package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certguard/internal/platform/jwttoken"
)

func newTokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the certguard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := v.GetString("signing-key")
			if key == "" {
				return fmt.Errorf("--signing-key or DUPCTL_SIGNING_KEY is required")
			}
			tokens := jwttoken.NewJWTService(key, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
			token, err := tokens.GenerateAccessToken(v.GetString("subject"), v.GetStringSlice("role"), v.GetDuration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("signing-key", "", "HS256 signing key shared with the server")
	cmd.Flags().String("subject", "", "token subject")
	cmd.Flags().StringSlice("role", nil, "role to grant (repeatable)")
	cmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
