package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/config"
)

// tokenCmd mints a bearer token for local testing and operator use.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a patient, doctor or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load: %w", err)
			}

			id := uuid.New()
			if subject != "" {
				if id, err = uuid.Parse(subject); err != nil {
					return fmt.Errorf("invalid --subject: %w", err)
				}
			}

			auth := api.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
			token, err := auth.Issue(api.Principal{ID: id, Role: api.Role(strings.ToUpper(roleFlag))}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("role", string(api.RoleAdmin), "PATIENT, DOCTOR or ADMIN")
	cmd.Flags().String("subject", "", "patient or doctor id the token acts as (random for admins)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}
