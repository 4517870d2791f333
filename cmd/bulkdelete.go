package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
)

var (
	bulkRows []string
	bulkAll  bool
)

var bulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete",
	Short: "Delete every entry of the selected rows for the week",
	Long: `Select rows with --row (repeatable) or with --all, not both, and delete all of their
entries in the week in one request. Nothing is deleted if the request fails.`,
	Args: cobra.NoArgs,
	RunE: runBulkDelete,
}

func init() {
	bulkDeleteCmd.Flags().StringArrayVar(&bulkRows, "row", nil, "Row key to select (repeatable)")
	bulkDeleteCmd.Flags().BoolVar(&bulkAll, "all", false, "Select every row of the week")
}

func runBulkDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	exitOnError(selectRows(r, bulkAll, bulkRows))
	rows := len(r.Selected())

	n, err := r.BulkDelete(ctx)
	exitOnError(err)

	fmt.Printf("Deleted %d entries from %d rows.\n", n, rows)
	return nil
}

// selectRows selects every row, or each named row once. Naming a row that is
// not in the week is an error.
func selectRows(r *reconcile.Reconciler, all bool, keys []string) error {
	if all && len(keys) > 0 {
		return fmt.Errorf("%w: use either --all or --row", reconcile.ErrValidation)
	}
	r.ClearSelection()
	if all {
		r.ToggleAll()
		return nil
	}
	var missing []string
	r.View(func(g *grid.WeekGrid, _ overtime.Report) {
		for _, k := range keys {
			if g.Row(k) == nil {
				missing = append(missing, k)
			}
		}
	})
	if len(missing) > 0 {
		return fmt.Errorf("%w: rows not in this week: %s", reconcile.ErrValidation, strings.Join(missing, ", "))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			r.Toggle(k)
		}
	}
	return nil
}
