package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var listToday bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the week's time entries with their ids",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's entries only")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	var entries []model.TimeEntry
	r.View(func(g *grid.WeekGrid, _ overtime.Report) {
		entries = weekEntries(g)
	})
	if listToday {
		today := timecalc.DateKeyOf(ref)
		var filtered []model.TimeEntry
		for _, e := range entries {
			if e.DateKey == today {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	printList(entries)
	return nil
}

// weekEntries flattens the grid day by day, rows in grid order.
func weekEntries(g *grid.WeekGrid) []model.TimeEntry {
	var out []model.TimeEntry
	for _, d := range g.Days {
		for _, row := range g.Rows {
			out = append(out, row.Entries[d]...)
		}
	}
	return out
}

// printList groups entries by date and prints them.
func printList(entries []model.TimeEntry) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}

	var currentDay model.DateKey
	for _, e := range entries {
		if e.DateKey != currentDay {
			fmt.Println(e.DateKey)
			currentDay = e.DateKey
		}

		var extra []string
		if e.Description != nil && *e.Description != "" {
			extra = append(extra, *e.Description)
		}
		if e.Billable {
			extra = append(extra, "billable")
		}
		if e.Source == model.SourceTimer {
			extra = append(extra, "timer")
		}
		note := ""
		if len(extra) > 0 {
			note = "  (" + strings.Join(extra, ", ") + ")"
		}

		fmt.Printf("  %s  %-14s %-30s %8s%s\n",
			e.ID, e.RowKey(), refLabel(e.Project)+" / "+refLabel(e.Task), timecalc.FormatDuration(e.DurationSeconds), note)
	}
}
