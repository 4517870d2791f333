// Package reconcile applies accepted time-entry mutations to the week grid.
//
// Every mutation calls the store first and patches the grid only after the
// call succeeds, so a failed call leaves the grid exactly as it was. Mutations
// on the same (row, day) cell run one after another; mutations on different
// cells do not wait for each other. The grid lock is never held across a
// store call.
package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/selection"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// Store is the persistence service holding time entries and the
// client/project/task catalogue.
type Store interface {
	ListTimeEntries(ctx context.Context, userID string, from, to model.DateKey) ([]model.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, e model.NewEntry) (model.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, id string, p model.EntryPatch) (model.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, id string) error
	BulkDeleteTimeEntries(ctx context.Context, ids []string) error
	ListProjectsForClient(ctx context.Context, clientID string) ([]model.Project, error)
	ListTasksForProject(ctx context.Context, clientID, projectID string) ([]model.Task, error)
}

// Reconciler owns one week grid and the mutations applied to it.
type Reconciler struct {
	store Store
	log   *slog.Logger

	bulk *semaphore.Weighted

	mu         sync.Mutex
	userID     string
	grid       *grid.WeekGrid
	thresholds overtime.Thresholds
	report     overtime.Report
	sel        selection.Set
	states     map[Target]State
	discarded  map[Target]bool
	cells      map[cellKey]*cellLock
}

// New returns a Reconciler over store. A nil logger discards log output.
func New(store Store, th overtime.Thresholds, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		store:      store,
		log:        logger,
		bulk:       semaphore.NewWeighted(1),
		thresholds: th,
		states:     map[Target]State{},
		discarded:  map[Target]bool{},
		cells:      map[cellKey]*cellLock{},
	}
}

// Load fetches the week containing ref for userID and rebuilds the grid from
// scratch. It is the only full rebuild path; the selection is cleared and
// the states of settled targets are forgotten.
func (r *Reconciler) Load(ctx context.Context, userID string, ref time.Time) error {
	days := timecalc.WeekDays(ref)
	entries, err := r.store.ListTimeEntries(ctx, userID, days[0], days[6])
	if err != nil {
		return &RemoteError{Op: "load time entries", Err: err}
	}

	g, skipped := grid.Build(days, entries)
	for _, e := range skipped {
		r.log.Warn("entry outside requested week", "id", e.ID, "date", e.DateKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
	r.grid = g
	r.report = overtime.Evaluate(g, r.thresholds)
	r.sel.Clear()
	r.forgetSettled()
	r.log.Debug("week loaded", "from", days[0], "rows", len(g.Rows), "entries", len(entries)-len(skipped))
	return nil
}

// Grid returns a copy of the current grid, or nil before Load.
func (r *Reconciler) Grid() *grid.WeekGrid {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grid == nil {
		return nil
	}
	return r.grid.Clone()
}

// View calls fn with the live grid and overtime report while holding the
// lock. fn must not modify the grid or call back into r.
func (r *Reconciler) View(fn func(g *grid.WeekGrid, rep overtime.Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.grid, r.report)
}

// Report returns the current overtime report.
func (r *Reconciler) Report() overtime.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// SetThresholds replaces the thresholds and reclassifies the whole week.
func (r *Reconciler) SetThresholds(th overtime.Thresholds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds = th
	if r.grid != nil {
		r.report = overtime.Evaluate(r.grid, th)
	}
}

// Toggle flips the selection of one row.
func (r *Reconciler) Toggle(rowKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sel.Toggle(rowKey)
}

// ToggleAll selects every row, or clears the selection if all rows are selected.
func (r *Reconciler) ToggleAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grid == nil {
		return
	}
	r.sel.ToggleAll(r.grid.Keys())
}

// ClearSelection deselects every row.
func (r *Reconciler) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sel.Clear()
}

// Selected returns the selected row keys.
func (r *Reconciler) Selected() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel.Keys()
}

// patch replaces one cell and refreshes the overtime report for that day.
// Callers hold r.mu.
func (r *Reconciler) patch(rowKey string, day model.DateKey, list []model.TimeEntry) error {
	if err := r.grid.PatchCell(rowKey, day, list); err != nil {
		return err
	}
	r.report.Refresh(r.grid, r.thresholds, r.grid.DayIndex(day))
	return nil
}
