package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timebook/internal/app"
	"github.com/Tiliavir/timebook/internal/config"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

var (
	configPath string
	dbDSN      string
	dbDriver   string
)

var rootCmd = &cobra.Command{
	Use:   "timebook",
	Short: "Timebook – record, archive and report timespans",
	Long: `timebook records labeled timespans against calendar days, keeps them in
SQLite (~/.timebook/timebook.db) or Postgres, and reports daily and overall
totals. The same data is served as JSON by "timebook serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.timebook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "Database DSN: SQLite path or postgres:// URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: sqlite3 or pgx (overrides config)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importLegacyCmd)
	rootCmd.AddCommand(outlookCmd)
}

// loadConfig reads the config file named by --config, or the default one,
// and applies the command-line overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
	return cfg, nil
}

// openApp loads the configuration and opens the store. Callers must Close
// the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, nil)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &timecalc.FormatError{Field: "id", Value: arg}
	}
	return id, nil
}
