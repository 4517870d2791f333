package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer and today's and this week's totals",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	now := time.Now()

	base, err := dataDir()
	exitOnError(err)

	active, err := storage.LoadTimer(base)
	exitOnError(err)
	if active != nil {
		elapsed := int64(now.Sub(active.Start).Seconds())
		fmt.Println("Running:")
		fmt.Printf("  Row: %s\n", active.RowKey)
		if active.Description != "" {
			fmt.Printf("  Description: %s\n", active.Description)
		}
		fmt.Printf("  Since: %s\n", active.Start.Format("15:04"))
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
	} else {
		fmt.Println("No active timer.")
	}

	r, closeStore, err := loadWeek(ctx, now)
	exitOnError(err)
	defer closeStore()

	printDayStatus(r, timecalc.DateKeyOf(now))
	return nil
}

// printDayStatus prints the day's and the week's total with their overtime state.
func printDayStatus(r *reconcile.Reconciler, day model.DateKey) {
	r.View(func(g *grid.WeekGrid, rep overtime.Report) {
		i := g.DayIndex(day)
		if i < 0 {
			return
		}
		fmt.Printf("%s: %s logged%s.\n", day, timecalc.FormatDurationLong(g.DailyTotals[i]), overtimeNote(rep.Days[i]))
		fmt.Printf("Week: %s logged%s.\n", timecalc.FormatDurationLong(g.WeekTotal), overtimeNote(rep.Week))
	})
}

func overtimeNote(c overtime.Classification) string {
	if !c.Overtime {
		return ""
	}
	return fmt.Sprintf(", %s overtime", timecalc.FormatDurationLong(c.Overage))
}
