package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/squadcart/core/logger"
)

var errNotLoggedIn = errors.New("not logged in")

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.client.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := rt.app.client.Session()
			if !sess.IsAuthenticated() {
				return errNotLoggedIn
			}

			superadmin, err := rt.app.gate.Enabled()
			if err != nil {
				rt.logger.WarnContext(cmd.Context(), "superadmin flag unreadable", logger.Error(err))
			}

			view := map[string]any{
				"user":       sess.User,
				"rememberMe": sess.RememberMe,
				"superadmin": superadmin,
			}
			if exp := sess.User.ExpiresAt(); !exp.IsZero() {
				view["expiresAt"] = exp.Format(time.RFC3339)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}

func newRefreshCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.client.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func newProfileCmd(rt *runtime) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in user's profile",
		Long:  `Send a partial profile as JSON, e.g. --data '{"name":"Jo"}', and merge the result into the session.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fields map[string]any
			if err := json.Unmarshal([]byte(data), &fields); err != nil {
				return fmt.Errorf("parse --data: %w", err)
			}

			user, err := rt.app.client.UpdateProfile(cmd.Context(), fields)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		},
	}

	cmd.Flags().StringVar(&data, "data", "{}", "Profile fields as a JSON object")
	return cmd
}
