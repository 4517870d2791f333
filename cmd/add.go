package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var (
	addRow      rowSpec
	addDay      string
	addDesc     string
	addBillable bool
)

var addCmd = &cobra.Command{
	Use:   "add <duration>",
	Short: "Add a time entry to a row and day",
	Long: `Add a time entry. The duration is "H:MM" (1:30), "H:MM:SS", or a plain
number: below 24 it is hours (1.5), from 24 on it is minutes (90).

The row is chosen with --row <project-task>, or with --project and --task.
A row that has no entries this week yet also needs --client.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addRow.key, "row", "", "Row key (project-task), as shown by 'tsh week'")
	addCmd.Flags().StringVar(&addRow.client, "client", "", "Client id (needed for a new row)")
	addCmd.Flags().StringVar(&addRow.project, "project", "", "Project id")
	addCmd.Flags().StringVar(&addRow.task, "task", "", "Task id")
	addCmd.Flags().StringVar(&addDay, "day", "", "Day (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "Optional description")
	addCmd.Flags().BoolVar(&addBillable, "billable", false, "Mark the entry billable")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	day, err := dayArg(addDay)
	exitOnError(err)
	ref, err := timecalc.ParseDateKey(day)
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	key, err := addRow.resolve(ctx, r)
	exitOnError(err)

	req := reconcile.AddRequest{RowKey: key, Day: day, Duration: args[0], Billable: addBillable}
	if addDesc != "" {
		req.Description = &addDesc
	}
	e, err := r.Add(ctx, req)
	exitOnError(err)

	fmt.Printf("Added %s to %s on %s (id %s).\n", timecalc.FormatDuration(e.DurationSeconds), key, day, e.ID)
	printDayStatus(r, day)
	return nil
}
