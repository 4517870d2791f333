package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var (
	startRow      rowSpec
	startDesc     string
	startBillable bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a timer for a row; 'tsh stop' records the elapsed time",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startRow.key, "row", "", "Row key (project-task)")
	startCmd.Flags().StringVar(&startRow.client, "client", "", "Client id (needed for a new row)")
	startCmd.Flags().StringVar(&startRow.project, "project", "", "Project id")
	startCmd.Flags().StringVar(&startRow.task, "task", "", "Task id")
	startCmd.Flags().StringVar(&startDesc, "desc", "", "Description for the recorded entry")
	startCmd.Flags().BoolVar(&startBillable, "billable", false, "Mark the recorded entry billable")
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	now := time.Now()

	base, err := dataDir()
	exitOnError(err)

	// Check for an existing active timer and auto-stop it.
	active, err := storage.LoadTimer(base)
	exitOnError(err)
	if active != nil {
		fmt.Fprintf(os.Stderr, "Warning: auto-stopping active timer for row %s\n", active.RowKey)
		exitOnError(stopTimer(ctx, base, *active, now))
	}

	r, closeStore, err := loadWeek(ctx, now)
	exitOnError(err)
	defer closeStore()

	key, err := startRow.resolve(ctx, r)
	exitOnError(err)

	var meta grid.RowMeta
	r.View(func(g *grid.WeekGrid, _ overtime.Report) {
		meta = g.Row(key).RowMeta
	})

	timer := storage.Timer{
		RowKey:      key,
		ClientID:    meta.Client.ID,
		ProjectID:   meta.Project.ID,
		TaskID:      meta.Task.ID,
		Description: startDesc,
		Billable:    startBillable,
		Start:       now,
	}
	exitOnError(storage.SaveTimer(base, timer))

	fmt.Printf("Started timer for %s at %s\n", key, now.Format("15:04:05"))
	return nil
}

// stopTimer records the time since t.Start, one entry per calendar day
// crossed, and clears the timer. After each recorded day the saved timer
// moves forward, so a failed stop can be retried without double counting.
func stopTimer(ctx context.Context, base string, t storage.Timer, now time.Time) error {
	row := rowSpec{key: t.RowKey, client: t.ClientID, project: t.ProjectID, task: t.TaskID}
	spans := timecalc.SplitAtMidnight(t.Start, now)
	for i, span := range spans {
		if span.Seconds > 0 {
			if err := recordSpan(ctx, row, t, span); err != nil {
				return err
			}
		}
		if i < len(spans)-1 {
			t.Start = t.Start.Add(time.Duration(span.Seconds) * time.Second)
			if err := storage.SaveTimer(base, t); err != nil {
				return err
			}
		}
	}
	return storage.ClearTimer(base)
}

func recordSpan(ctx context.Context, row rowSpec, t storage.Timer, span timecalc.DaySpan) error {
	ref, err := timecalc.ParseDateKey(span.Day)
	if err != nil {
		return err
	}
	r, closeStore, err := loadWeek(ctx, ref)
	if err != nil {
		return err
	}
	defer closeStore()

	key, err := row.resolve(ctx, r)
	if err != nil {
		return err
	}
	req := reconcile.AddRequest{
		RowKey:   key,
		Day:      span.Day,
		Duration: timecalc.FormatDuration(span.Seconds),
		Billable: t.Billable,
		Source:   model.SourceTimer,
	}
	if t.Description != "" {
		desc := t.Description
		req.Description = &desc
	}
	_, err = r.Add(ctx, req)
	return err
}
