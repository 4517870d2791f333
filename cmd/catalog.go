package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage and browse clients, projects and tasks",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Merge clients, projects and tasks from a JSON file into the local store",
	Long: `Import a catalogue file of the form
  {"clients": [...], "projects": [...], "tasks": [...]}
into the files or sqlite backend. Records with an existing id are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogProjectsCmd = &cobra.Command{
	Use:   "projects <client-id>",
	Short: "List the projects of a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogProjects,
}

var catalogTasksCmd = &cobra.Command{
	Use:   "tasks <client-id> <project-id>",
	Short: "List the tasks of a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogTasks,
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogProjectsCmd)
	catalogCmd.AddCommand(catalogTasksCmd)
}

// catalogImporter is implemented by the local backends.
type catalogImporter interface {
	ImportCatalog(ctx context.Context, c model.Catalog) error
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		fmt.Fprintf(os.Stderr, "parsing %s: %v\n", args[0], err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(ctx)
	exitOnError(err)
	defer closeStore()

	imp, ok := store.(catalogImporter)
	if !ok {
		exitOnError(errors.New("the remote backend manages its own catalogue"))
	}
	exitOnError(imp.ImportCatalog(ctx, c))

	fmt.Printf("Imported %d clients, %d projects, %d tasks.\n", len(c.Clients), len(c.Projects), len(c.Tasks))
	return nil
}

func runCatalogProjects(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	exitOnError(err)
	defer closeStore()

	projects, err := store.ListProjectsForClient(ctx, args[0])
	exitOnError(err)
	if len(projects) == 0 {
		fmt.Println("No projects found.")
	}
	for _, p := range projects {
		fmt.Printf("%-20s %s\n", p.ID, p.Name)
	}
	return nil
}

func runCatalogTasks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	exitOnError(err)
	defer closeStore()

	tasks, err := store.ListTasksForProject(ctx, args[0], args[1])
	exitOnError(err)
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
	}
	for _, t := range tasks {
		billable := ""
		if t.Billable {
			billable = "  (billable)"
		}
		fmt.Printf("%-20s %s%s\n", t.ID, t.Name, billable)
	}
	return nil
}
