package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in study profile",
	}

	cmd.AddCommand(newProfileSetCmd(app), newProfileShowCmd(app))

	return cmd
}

func newProfileSetCmd(app *app) *cobra.Command {
	var ownerID string
	var email string
	var secretRef string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the owner identity used for conversations and uploads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}

			profile := domain.Profile{
				OwnerID:   domain.OwnerID(strings.TrimSpace(ownerID)),
				Email:     strings.TrimSpace(email),
				SecretRef: strings.TrimSpace(secretRef),
			}
			if err := app.profiles.Save(cmd.Context(), profile); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", profile.OwnerID)
			return err
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner (user) ID")
	cmd.Flags().StringVar(&email, "email", "", "Email shown in the profile")
	cmd.Flags().StringVar(&secretRef, "secret-ref", "", "Secret-store key for the access token (default recallo://<owner>/access_token)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func newProfileShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}

			profile, err := app.profiles.Get(cmd.Context())
			if errors.Is(err, domain.ErrProfileNotFound) {
				return app.explain(domain.ErrUnauthenticated)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "owner:\t%s\n", profile.OwnerID)
			if profile.Email != "" {
				_, _ = fmt.Fprintf(out, "email:\t%s\n", profile.Email)
			}
			_, _ = fmt.Fprintf(out, "token key:\t%s\n", profile.SecretKey())
			_, _ = fmt.Fprintf(out, "backend:\t%s\n", app.cfg.Backend)
			_, err = fmt.Fprintf(out, "file:\t%s\n", app.profiles.Path())
			return err
		},
	}
}
