package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuperadminCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Manage the superadmin mode flag",
		Long:  "The superadmin flag is a signed marker independent of the session; logging out does not clear it.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Turn superadmin mode on",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := rt.app.gate.Enable(); err != nil {
					return fmt.Errorf("enable superadmin: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Superadmin mode enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Turn superadmin mode off",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := rt.app.gate.Disable(); err != nil {
					return fmt.Errorf("disable superadmin: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Superadmin mode disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether superadmin mode is on",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				on, err := rt.app.gate.Enabled()
				if err != nil {
					return fmt.Errorf("read superadmin flag: %w", err)
				}
				state := "disabled"
				if on {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superadmin mode %s\n", state)
				return nil
			},
		},
	)

	return cmd
}
