package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/msgraph"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var (
	outlookSyncFrom   string
	outlookSyncTo     string
	outlookSyncDate   string
	outlookSyncDryRun bool
	outlookSyncTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as timespans",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a single date (YYYY-MM-DD); default today")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (overrides config)")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "from")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "to")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange resolves the date flags to a half-open range of wall-clock days.
func syncRange(date, from, to string, today time.Time) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := timecalc.ParseDate(date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return d, timecalc.NextDay(d), nil
	case from == "" && to == "":
		return today, timecalc.NextDay(today), nil
	case from == "":
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
	}
	start, err := timecalc.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := today
	if to != "" {
		if last, err = timecalc.ParseDate(to); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", last.Format(timecalc.DateLayout), from)
	}
	return start, timecalc.NextDay(last), nil
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	from, to, err := syncRange(outlookSyncDate, outlookSyncFrom, outlookSyncTo, timecalc.Today())
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config.Outlook
	timezone := cfg.Timezone
	if outlookSyncTZ != "" {
		timezone = outlookSyncTZ
	}
	loc, err := msgraph.LoadLocation(timezone)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing Outlook events (%s → %s)%s...\n\n",
		from.Format(timecalc.DateLayout), to.AddDate(0, 0, -1).Format(timecalc.DateLayout), dryTag)

	tokenPath, err := msgraph.DefaultTokenPath()
	if err != nil {
		return err
	}
	auth := &msgraph.Authenticator{
		TenantID:  cfg.TenantID,
		ClientID:  cfg.ClientID,
		TokenPath: tokenPath,
		Out:       cmd.ErrOrStderr(),
	}
	client, err := auth.Client(cmd.Context())
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	start, end := msgraph.Window(from, to, loc)
	events, err := client.GetCalendarView(cmd.Context(), start, end, timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	result, err := msgraph.SyncEvents(cmd.Context(), a.Service, events, msgraph.SyncOptions{
		DryRun:             outlookSyncDryRun,
		Timezone:           timezone,
		DefaultDescription: cfg.DefaultDescription,
		Out:                out,
	})
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		return fmt.Errorf("%d event(s) could not be synced", result.Errors)
	}
	return nil
}
