package cmd

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/legacy"
	"github.com/Tiliavir/timebook/internal/model"
)

var importLegacyDryRun bool

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy <sqlite-file>",
	Short: "Import rows from a retired fractional-hour timesheet database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportLegacy,
}

func init() {
	importLegacyCmd.Flags().BoolVar(&importLegacyDryRun, "dry-run", false, "Print the converted records without writing")
}

func runImportLegacy(cmd *cobra.Command, args []string) error {
	src, err := sql.Open("sqlite3", "file:"+args[0]+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer src.Close()

	sheets, err := legacy.ReadAll(cmd.Context(), src)
	if err != nil {
		return err
	}
	items := make([]model.Timespan, 0, len(sheets))
	for _, s := range sheets {
		items = append(items, s.ToTimespan())
	}

	w := cmd.OutOrStdout()
	if importLegacyDryRun {
		for i, ts := range items {
			fmt.Fprintf(w, "%s  =>  %s\n", sheets[i], ts)
		}
		fmt.Fprintf(w, "%d record(s) would be imported.\n", len(items))
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.Service.Import(cmd.Context(), items)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d record(s).\n", len(created))
	return nil
}
