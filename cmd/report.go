package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var reportFull bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show every timespan grouped by day, newest day first",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportFull, "full", false, "Always spell out hours and minutes in totals")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	days, err := a.Service.Report(cmd.Context())
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), days, reportFull)
	return nil
}

func printReport(w io.Writer, days []report.Day, forceFull bool) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	for i, d := range days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  (%s)\n", d.Date.Format(timecalc.DateLayout), timecalc.FormatDuration(d.Total(), forceFull))
		fmt.Fprintln(w, "--------------------------------")
		for _, ts := range d.Timespans {
			fmt.Fprintf(w, "  %s\n", ts)
		}
	}
}
