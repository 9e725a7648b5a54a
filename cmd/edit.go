package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var (
	editTitle   string
	editDay     string
	editStart   string
	editEnd     string
	editArchive bool
	editRestore bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a timespan; without flags, prompt for every field",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New description")
	editCmd.Flags().StringVarP(&editDay, "day", "d", "", "New day (YYYY-MM-DD)")
	editCmd.Flags().StringVarP(&editStart, "start", "s", "", "New start time (HH:MM)")
	editCmd.Flags().StringVarP(&editEnd, "end", "e", "", "New end time (HH:MM)")
	editCmd.Flags().BoolVar(&editArchive, "archive", false, "Mark as archived")
	editCmd.Flags().BoolVar(&editRestore, "restore", false, "Mark as not archived")
	editCmd.MarkFlagsMutuallyExclusive("archive", "restore")
}

// editInput holds the raw field values of an edit; empty means unchanged.
type editInput struct {
	title, day, start, end string
	archived               *bool
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.Service.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	in := editInput{title: editTitle, day: editDay, start: editStart, end: editEnd}
	switch {
	case editArchive:
		in.archived = boolPtr(true)
	case editRestore:
		in.archived = boolPtr(false)
	}
	if !anyEditFlag(cmd) {
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		if in, err = promptEdit(p, current); err != nil {
			return err
		}
	}

	patch, err := buildPatch(current, in)
	if err != nil {
		return err
	}
	ts, err := a.Service.Update(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", ts)
	return nil
}

func anyEditFlag(cmd *cobra.Command) bool {
	for _, name := range []string{"title", "day", "start", "end", "archive", "restore"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// promptEdit asks for every field, offering the current values as defaults.
func promptEdit(p *prompter, current model.Timespan) (editInput, error) {
	var (
		in  editInput
		err error
	)
	if in.title, err = p.ask("Description", current.Description); err != nil {
		return in, err
	}
	if in.day, err = p.ask("Day", current.StartAt.Format(timecalc.DateLayout)); err != nil {
		return in, err
	}
	if in.start, err = p.ask("Start (HH:MM)", current.StartTime()); err != nil {
		return in, err
	}
	if in.end, err = p.ask("End (HH:MM)", current.EndTime()); err != nil {
		return in, err
	}
	archived, err := p.confirm("Archived?", current.IsArchived)
	if err != nil {
		return in, err
	}
	in.archived = &archived
	return in, nil
}

// buildPatch turns raw field values into a patch. Only bounds that actually
// move are set.
func buildPatch(current model.Timespan, in editInput) (model.Patch, error) {
	var patch model.Patch
	if in.title != "" && in.title != current.Description {
		patch.Description = &in.title
	}
	if in.archived != nil && *in.archived != current.IsArchived {
		patch.IsArchived = in.archived
	}

	var day time.Time
	if in.day != "" {
		d, err := timecalc.ParseDate(in.day)
		if err != nil {
			return model.Patch{}, err
		}
		day = d
	}
	startAt, endAt, err := current.Reschedule(day, in.start, in.end)
	if err != nil {
		return model.Patch{}, err
	}
	if !startAt.Equal(current.StartAt) {
		patch.StartAt = &startAt
	}
	if !endAt.Equal(current.EndAt) {
		patch.EndAt = &endAt
	}
	return patch, nil
}

func boolPtr(b bool) *bool { return &b }
