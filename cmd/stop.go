package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer and record its time",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	now := time.Now()

	base, err := dataDir()
	exitOnError(err)

	active, err := storage.LoadTimer(base)
	exitOnError(err)
	if active == nil {
		fmt.Fprintln(os.Stderr, "No active timer to stop.")
		os.Exit(1)
	}

	exitOnError(stopTimer(context.Background(), base, *active, now))

	elapsed := int64(now.Sub(active.Start).Seconds())
	fmt.Printf("Stopped timer for %s. Elapsed: %s\n", active.RowKey, timecalc.FormatDurationLong(elapsed))
	return nil
}
