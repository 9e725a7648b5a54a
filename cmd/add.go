package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/service"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var (
	addTitle string
	addDay   string
	addStart string
	addEnd   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new timespan, prompting for missing values",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Description of the timespan")
	addCmd.Flags().StringVarP(&addDay, "day", "d", "", "Day (YYYY-MM-DD), default today")
	addCmd.Flags().StringVarP(&addStart, "start", "s", "", "Start time (HH:MM)")
	addCmd.Flags().StringVarP(&addEnd, "end", "e", "", "End time (HH:MM)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	in, err := collectCreate(p, addTitle, addDay, addStart, addEnd, timecalc.Today())
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ts, err := a.Service.Create(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", ts)
	return nil
}

// collectCreate fills in whatever the flags left empty by prompting, then
// parses the values. The day defaults to today.
func collectCreate(p *prompter, title, day, start, end string, today time.Time) (service.CreateInput, error) {
	var err error
	if title == "" {
		if title, err = p.ask("Description", ""); err != nil {
			return service.CreateInput{}, err
		}
	}
	if day == "" {
		if day, err = p.ask("Day", today.Format(timecalc.DateLayout)); err != nil {
			return service.CreateInput{}, err
		}
	}
	if start == "" {
		if start, err = p.ask("Start (HH:MM)", ""); err != nil {
			return service.CreateInput{}, err
		}
	}
	if end == "" {
		if end, err = p.ask("End (HH:MM)", ""); err != nil {
			return service.CreateInput{}, err
		}
	}

	d, err := timecalc.ParseDate(day)
	if err != nil {
		return service.CreateInput{}, err
	}
	startAt, err := timecalc.At(d, start)
	if err != nil {
		return service.CreateInput{}, err
	}
	endAt, err := timecalc.At(d, end)
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{Description: title, StartAt: startAt, EndAt: endAt}, nil
}
