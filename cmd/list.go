package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var listCmd = &cobra.Command{
	Use:   "list [YYYY-MM-DD]",
	Short: "List the timespans of a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	day := timecalc.Today()
	if len(args) == 1 {
		d, err := timecalc.ParseDate(args[0])
		if err != nil {
			return err
		}
		day = d
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Service.ListByDay(cmd.Context(), day)
	if err != nil {
		return err
	}
	printDay(cmd.OutOrStdout(), day, items)
	return nil
}

// printDay prints one line per timespan followed by the day total.
func printDay(w io.Writer, day time.Time, items []model.Timespan) {
	if len(items) == 0 {
		fmt.Fprintf(w, "No records for %s\n", day.Format(timecalc.DateLayout))
		return
	}
	for _, ts := range items {
		fmt.Fprintln(w, ts.String())
	}
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "Total: %s\n", timecalc.FormatDuration(report.SumDurations(items), false))
}
