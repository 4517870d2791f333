package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete one time entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	t, err := findTarget(r, args[0])
	exitOnError(err)
	exitOnError(r.Delete(ctx, t))

	fmt.Printf("Deleted %s from %s on %s.\n", t.EntryID, t.RowKey, t.Day)
	printDayStatus(r, t.Day)
	return nil
}
