package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip the archived flag of a timespan",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ts, err := a.Service.ToggleArchived(cmd.Context(), id)
	if err != nil {
		return err
	}
	label := "Restored"
	if ts.IsArchived {
		label = "Archived"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, ts)
	return nil
}
