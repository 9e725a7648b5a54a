package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/api"
	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var (
	exportFormat string
	exportFrom   string
	exportTo     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export timespans to stdout (default: this week)",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day (YYYY-MM-DD), inclusive; defaults to --from")
}

func runExport(cmd *cobra.Command, args []string) error {
	from, to, err := exportRange(exportFrom, exportTo, timecalc.Today())
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Service.ListRange(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	return writeExport(cmd.OutOrStdout(), exportFormat, items)
}

// exportRange resolves the flags to a half-open [from, to) range of days.
// Without flags it is the ISO week containing today.
func exportRange(fromFlag, toFlag string, today time.Time) (time.Time, time.Time, error) {
	switch {
	case fromFlag == "" && toFlag == "":
		from, to := timecalc.WeekRange(today)
		return from, to, nil
	case fromFlag == "":
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
	}
	from, err := timecalc.ParseDate(fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := from
	if toFlag != "" {
		if last, err = timecalc.ParseDate(toFlag); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", toFlag, fromFlag)
	}
	return from, timecalc.NextDay(last), nil
}

func writeExport(w io.Writer, format string, items []model.Timespan) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.ToViews(items))
	case "md":
		printMarkdown(w, items)
	case "csv":
		printCSV(w, items)
	default:
		return &timecalc.FormatError{Field: "format", Value: format}
	}
	return nil
}

func printCSV(w io.Writer, items []model.Timespan) {
	fmt.Fprintln(w, "id,date,description,start,end,duration_minutes,archived")
	for _, ts := range items {
		fmt.Fprintf(w, "%d,%s,%s,%s,%s,%d,%t\n",
			ts.ID,
			ts.StartAt.Format(timecalc.DateLayout),
			csvEscape(ts.Description),
			ts.StartTime(),
			ts.EndTime(),
			int64(ts.Duration()/time.Minute),
			ts.IsArchived,
		)
	}
}

func printMarkdown(w io.Writer, items []model.Timespan) {
	fmt.Fprintln(w, "| Date | Start | End | Duration | Description |")
	fmt.Fprintln(w, "|------|-------|-----|----------|-------------|")
	for _, ts := range items {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			ts.StartAt.Format(timecalc.DateLayout),
			ts.StartTime(),
			ts.EndTime(),
			timecalc.FormatDuration(ts.Duration(), false),
			strings.ReplaceAll(ts.Description, "|", `\|`),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
