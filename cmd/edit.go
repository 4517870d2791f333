package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var (
	editDuration string
	editDesc     string
	editBillable bool
)

var editCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Change the duration, description or billable flag of an entry",
	Long: `Edit an entry of the selected week (see 'tsh list' for ids). Only the
flags that are passed are changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editDuration, "duration", "", "New duration (H:MM, H:MM:SS, hours or minutes)")
	editCmd.Flags().StringVar(&editDesc, "desc", "", "New description")
	editCmd.Flags().BoolVar(&editBillable, "billable", false, "Billable flag")
}

// findTarget locates an entry id in the loaded week.
func findTarget(r *reconcile.Reconciler, id string) (reconcile.Target, error) {
	var (
		rowKey string
		day    model.DateKey
		ok     bool
	)
	r.View(func(g *grid.WeekGrid, _ overtime.Report) {
		rowKey, day, ok = g.FindEntry(id)
	})
	if !ok {
		return reconcile.Target{}, fmt.Errorf("%w: entry %s is not in this week (use --week to pick another)", reconcile.ErrNotFound, id)
	}
	return reconcile.Target{RowKey: rowKey, Day: day, EntryID: id}, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	t, err := findTarget(r, args[0])
	exitOnError(err)

	req := reconcile.EditRequest{Target: t, Duration: editDuration}
	if cmd.Flags().Changed("desc") {
		req.Description = &editDesc
	}
	if cmd.Flags().Changed("billable") {
		req.Billable = &editBillable
	}
	e, err := r.Edit(ctx, req)
	exitOnError(err)

	fmt.Printf("Updated %s: %s on %s.\n", e.ID, timecalc.FormatDuration(e.DurationSeconds), t.Day)
	printDayStatus(r, t.Day)
	return nil
}
