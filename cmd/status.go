package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's total and the number of archived records",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	today := timecalc.Today()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Service.ListByDay(cmd.Context(), today)
	if err != nil {
		return err
	}
	archived, err := a.Service.ListArchived(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Today (%s): %d record(s), %s logged.\n",
		today.Format(timecalc.DateLayout), len(items),
		timecalc.FormatDuration(report.SumDurations(items), false))
	fmt.Fprintf(w, "Archived: %d record(s).\n", len(archived))
	return nil
}
