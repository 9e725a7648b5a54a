package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/service"
)

var pruneYes bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete every archived timespan (dry run unless --yes)",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "Actually delete the archived records")
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Service.PruneArchived(cmd.Context(), pruneYes)
	if err != nil {
		return err
	}
	printPrune(cmd.OutOrStdout(), res)
	return nil
}

func printPrune(w io.Writer, res service.PruneResult) {
	if len(res.Items) == 0 {
		fmt.Fprintln(w, "No archived records.")
		return
	}
	for _, ts := range res.Items {
		fmt.Fprintln(w, ts.String())
	}
	if res.DryRun {
		fmt.Fprintf(w, "%d archived record(s) would be deleted. Re-run with --yes to delete them.\n", len(res.Items))
		return
	}
	fmt.Fprintf(w, "Deleted %d archived record(s).\n", len(res.Items))
}
