package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/config"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var (
	verbose     bool
	weekOf      string
	backendFlag string
	userFlag    string
)

var (
	cfg    config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "tsh",
	Short: "tsh – weekly timesheet with overtime tracking",
	Long: `tsh keeps a weekly timesheet: one row per project and task, one column per
day, with daily and weekly overtime highlighted. Entries are stored in JSON
day files, a SQLite database or a remote time API (see ~/.tsh/config.json).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&weekOf, "week", "", "Any date (YYYY-MM-DD) in the week to work on (default: this week)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: files, sqlite, remote (overrides config)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id whose entries are loaded (overrides config)")

	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(bulkDeleteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(catalogCmd)
}

// setup loads the configuration and configures logging for every command.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if backendFlag != "" {
		c.Backend = backendFlag
	}
	if userFlag != "" {
		c.UserID = userFlag
	}
	cfg = c
	logger.Debug("config loaded", "backend", cfg.Backend, "user", cfg.UserID)
	return nil
}

// exitCode maps an error to the process exit status: 1 for input the user
// can fix, 2 for storage and remote failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrValidation),
		errors.Is(err, reconcile.ErrNoEntries),
		errors.Is(err, reconcile.ErrNotFound),
		errors.Is(err, timecalc.ErrInvalidDuration):
		return 1
	}
	return 2
}

// exitOnError prints err and exits. Remote errors print their user-facing
// message; the underlying error is logged at debug level.
func exitOnError(err error) {
	if err == nil {
		return
	}
	var re *reconcile.RemoteError
	if errors.As(err, &re) {
		logger.Debug("remote call failed", "op", re.Op, "err", re.Err)
		fmt.Fprintln(os.Stderr, re.Message())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
