package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the week's time entries to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			exitOnError(fmt.Errorf("error encoding JSON: %w", err))
		}
		fmt.Println(string(data))
	case "md":
		printList(entries)
	default: // csv
		printCSV(os.Stdout, entries)
	}

	return nil
}

func printCSV(w io.Writer, entries []model.TimeEntry) {
	fmt.Fprintln(w, "date,client,project,task,description,billable,source,duration_seconds,duration")
	for _, e := range entries {
		desc := ""
		if e.Description != nil {
			desc = *e.Description
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%d,%s\n",
			csvEscape(string(e.DateKey)),
			csvEscape(refLabel(e.Client)),
			csvEscape(refLabel(e.Project)),
			csvEscape(refLabel(e.Task)),
			csvEscape(desc),
			strconv.FormatBool(e.Billable),
			csvEscape(string(e.Source)),
			e.DurationSeconds,
			timecalc.FormatDuration(e.DurationSeconds),
		)
	}
}

// csvEscape quotes a field containing a comma, quote or line break.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
