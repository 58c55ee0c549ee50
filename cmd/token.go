package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errEmptyToken = errors.New("token is empty")

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend access token",
	}

	cmd.AddCommand(newTokenSetCmd(app), newTokenClearCmd(app))

	return cmd
}

func newTokenSetCmd(app *app) *cobra.Command {
	var value string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the bearer token sent to the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}
			key, err := profileTokenKey(cmd.Context(), app)
			if err != nil {
				return err
			}

			if fromStdin {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64<<10))
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				value = string(data)
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errEmptyToken
			}

			if err := app.secrets.Put(cmd.Context(), key, value); err != nil {
				return fmt.Errorf("store token: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token stored under %s\n", key)
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Token value")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the token from stdin")
	cmd.MarkFlagsMutuallyExclusive("value", "stdin")
	cmd.MarkFlagsOneRequired("value", "stdin")

	return cmd
}

func newTokenClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}
			key, err := profileTokenKey(cmd.Context(), app)
			if err != nil {
				return err
			}

			if err := app.secrets.Delete(cmd.Context(), key); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
				return fmt.Errorf("clear token: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token cleared for %s\n", key)
			return err
		},
	}
}

func profileTokenKey(ctx context.Context, app *app) (string, error) {
	profile, err := app.profiles.Get(ctx)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return "", app.explain(domain.ErrUnauthenticated)
	}
	if err != nil {
		return "", err
	}
	return profile.SecretKey(), nil
}
