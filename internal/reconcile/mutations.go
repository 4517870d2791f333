package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// AddRequest describes a new entry in one (row, day) cell. Duration is the
// raw user input.
type AddRequest struct {
	RowKey      string
	Day         model.DateKey
	Duration    string
	Description *string
	Billable    bool
	Source      model.Source
}

// EditRequest changes one entry. An empty Duration keeps the current value.
type EditRequest struct {
	Target
	Duration    string
	Description *string
	Billable    *bool
}

// Add creates an entry remotely and, once accepted, appends the stored entry
// to its cell.
func (r *Reconciler) Add(ctx context.Context, req AddRequest) (model.TimeEntry, error) {
	secs, err := timecalc.ParseDuration(req.Duration)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	r.mu.Lock()
	if r.grid == nil {
		r.mu.Unlock()
		return model.TimeEntry{}, ErrNotLoaded
	}
	row := r.grid.Row(req.RowKey)
	if row == nil || r.grid.DayIndex(req.Day) < 0 {
		r.mu.Unlock()
		return model.TimeEntry{}, validationf("no cell %s on %s", req.RowKey, req.Day)
	}
	meta := row.RowMeta
	userID := r.userID
	r.mu.Unlock()

	src := req.Source
	if src == "" {
		src = model.SourceManual
	}

	t := Target{RowKey: req.RowKey, Day: req.Day}
	release, err := r.begin(ctx, t)
	if err != nil {
		return model.TimeEntry{}, err
	}
	defer release()

	created, err := r.store.CreateTimeEntry(ctx, model.NewEntry{
		UserID:          userID,
		ClientID:        meta.Client.ID,
		ProjectID:       meta.Project.ID,
		TaskID:          meta.Task.ID,
		DateKey:         req.Day,
		DurationSeconds: secs,
		Description:     req.Description,
		Billable:        req.Billable,
		Source:          src,
	})
	if err != nil {
		return model.TimeEntry{}, r.fail(t, "add time entry", err)
	}
	if created.ID == "" {
		return model.TimeEntry{}, r.fail(t, "add time entry", fmt.Errorf("%w: created entry has no id", ErrBadResponse))
	}
	fillRefs(&created, meta)
	created.DateKey, created.ProjectID, created.TaskID = req.Day, meta.Project.ID, meta.Task.ID

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLive(t); err != nil {
		return created, err
	}
	list := append(r.grid.Cell(t.RowKey, t.Day), created)
	if err := r.patch(t.RowKey, t.Day, list); err != nil {
		r.settle(t, RolledBack)
		return created, fmt.Errorf("%w: %w", ErrStale, err)
	}
	r.settle(t, Applied)
	r.log.Debug("entry added", "row", t.RowKey, "day", t.Day, "id", created.ID, "seconds", created.DurationSeconds)
	return created, nil
}

// Edit validates the new duration, updates the entry remotely and replaces it
// in place within its cell. Invalid input never reaches the store.
func (r *Reconciler) Edit(ctx context.Context, req EditRequest) (model.TimeEntry, error) {
	var patch model.EntryPatch
	if strings.TrimSpace(req.Duration) != "" {
		secs, err := timecalc.ParseDuration(req.Duration)
		if err != nil {
			return model.TimeEntry{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		patch.DurationSeconds = &secs
	}
	patch.Description = req.Description
	patch.Billable = req.Billable

	t := req.Target
	r.mu.Lock()
	_, found := r.locate(t)
	r.mu.Unlock()
	if !found {
		return model.TimeEntry{}, fmt.Errorf("%w: entry %s", ErrNotFound, t.EntryID)
	}

	release, err := r.begin(ctx, t)
	if err != nil {
		return model.TimeEntry{}, err
	}
	defer release()

	updated, err := r.store.UpdateTimeEntry(ctx, t.EntryID, patch)
	if err != nil {
		return model.TimeEntry{}, r.fail(t, "update time entry", err)
	}
	if updated.ID != t.EntryID {
		return model.TimeEntry{}, r.fail(t, "update time entry",
			fmt.Errorf("%w: got entry %q, want %q", ErrBadResponse, updated.ID, t.EntryID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLive(t); err != nil {
		return updated, err
	}
	list := r.grid.Cell(t.RowKey, t.Day)
	for i, e := range list {
		if e.ID == t.EntryID {
			fillRefs(&updated, r.grid.Row(t.RowKey).RowMeta)
			// The entry stays in its row and day whatever the store echoes.
			updated.DateKey, updated.ProjectID, updated.TaskID = e.DateKey, e.ProjectID, e.TaskID
			list[i] = updated
		}
	}
	if err := r.patch(t.RowKey, t.Day, list); err != nil {
		r.settle(t, RolledBack)
		return updated, fmt.Errorf("%w: %w", ErrStale, err)
	}
	r.settle(t, Applied)
	r.log.Debug("entry updated", "row", t.RowKey, "day", t.Day, "id", t.EntryID)
	return updated, nil
}

// Delete removes an entry remotely and then drops it from its cell.
func (r *Reconciler) Delete(ctx context.Context, t Target) error {
	r.mu.Lock()
	_, found := r.locate(t)
	r.mu.Unlock()
	if !found {
		return fmt.Errorf("%w: entry %s", ErrNotFound, t.EntryID)
	}

	release, err := r.begin(ctx, t)
	if err != nil {
		return err
	}
	defer release()

	if err := r.store.DeleteTimeEntry(ctx, t.EntryID); err != nil {
		return r.fail(t, "delete time entry", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLive(t); err != nil {
		return err
	}
	var kept []model.TimeEntry
	for _, e := range r.grid.Cell(t.RowKey, t.Day) {
		if e.ID != t.EntryID {
			kept = append(kept, e)
		}
	}
	if err := r.patch(t.RowKey, t.Day, kept); err != nil {
		r.settle(t, RolledBack)
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	r.settle(t, Applied)
	r.log.Debug("entry deleted", "row", t.RowKey, "day", t.Day, "id", t.EntryID)
	return nil
}

// BulkDelete deletes every entry of every selected row in one store call.
// On success the selected rows are removed and the selection is cleared; on
// failure neither the grid nor the selection changes. It returns the number
// of entries deleted.
func (r *Reconciler) BulkDelete(ctx context.Context) (int, error) {
	if err := r.bulk.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer r.bulk.Release(1)

	r.mu.Lock()
	if r.grid == nil {
		r.mu.Unlock()
		return 0, ErrNotLoaded
	}
	ids := r.sel.SelectedEntryIDs(r.grid)
	if len(ids) == 0 {
		r.mu.Unlock()
		return 0, ErrNoEntries
	}
	keys := map[string]bool{}
	var targets []Target
	for _, k := range r.sel.Keys() {
		if r.grid.Row(k) == nil {
			continue
		}
		keys[k] = true
		t := Target{RowKey: k}
		targets = append(targets, t)
		r.states[t] = Pending
	}
	r.mu.Unlock()

	if err := r.store.BulkDeleteTimeEntries(ctx, ids); err != nil {
		r.mu.Lock()
		for _, t := range targets {
			r.settle(t, RolledBack)
		}
		r.mu.Unlock()
		r.log.Warn("bulk delete rejected", "rows", len(keys), "entries", len(ids), "err", err)
		return 0, &RemoteError{Op: "delete time entries", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.grid.RemoveRows(keys)
	r.sel.Clear()
	r.report = overtime.Evaluate(r.grid, r.thresholds)
	for _, t := range targets {
		r.settle(t, Applied)
	}
	r.log.Debug("bulk delete applied", "rows", removed, "entries", len(ids))
	return len(ids), nil
}

// AddRow adds an empty row for (client, project, task). Missing ids and
// duplicate rows are rejected locally; project and task display data are
// looked up in the store catalogue.
func (r *Reconciler) AddRow(ctx context.Context, client model.Ref, projectID, taskID string) (grid.RowMeta, error) {
	switch {
	case client.ID == "":
		return grid.RowMeta{}, validationf("client is required")
	case projectID == "":
		return grid.RowMeta{}, validationf("project is required")
	case taskID == "":
		return grid.RowMeta{}, validationf("task is required")
	}
	key := model.RowKey(projectID, taskID)

	r.mu.Lock()
	if r.grid == nil {
		r.mu.Unlock()
		return grid.RowMeta{}, ErrNotLoaded
	}
	exists := r.grid.Row(key) != nil
	r.mu.Unlock()
	if exists {
		return grid.RowMeta{}, fmt.Errorf("%w: %w: %s", ErrValidation, grid.ErrDuplicateRow, key)
	}

	meta := grid.RowMeta{Client: client}
	projects, err := r.store.ListProjectsForClient(ctx, client.ID)
	if err != nil {
		return grid.RowMeta{}, &RemoteError{Op: "list projects", Err: err}
	}
	for _, p := range projects {
		if p.ID == projectID {
			meta.Project = model.Ref{ID: p.ID, Name: p.Name, Nickname: p.Nickname}
		}
	}
	if meta.Project.ID == "" {
		return grid.RowMeta{}, validationf("project %s not found for client %s", projectID, client.ID)
	}
	tasks, err := r.store.ListTasksForProject(ctx, client.ID, projectID)
	if err != nil {
		return grid.RowMeta{}, &RemoteError{Op: "list tasks", Err: err}
	}
	for _, t := range tasks {
		if t.ID == taskID {
			meta.Task = model.Ref{ID: t.ID, Name: t.Name}
		}
	}
	if meta.Task.ID == "" {
		return grid.RowMeta{}, validationf("task %s not found in project %s", taskID, projectID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.grid.AddRow(meta); err != nil {
		return grid.RowMeta{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	r.log.Debug("row added", "row", key)
	return meta, nil
}

// locate reports whether t's row, day and (if set) entry exist. Callers hold r.mu.
func (r *Reconciler) locate(t Target) (model.TimeEntry, bool) {
	if r.grid == nil {
		return model.TimeEntry{}, false
	}
	row := r.grid.Row(t.RowKey)
	if row == nil || r.grid.DayIndex(t.Day) < 0 {
		return model.TimeEntry{}, false
	}
	if t.EntryID == "" {
		return model.TimeEntry{}, true
	}
	for _, e := range row.Entries[t.Day] {
		if e.ID == t.EntryID {
			return e, true
		}
	}
	return model.TimeEntry{}, false
}

// checkLive drops a response whose target was discarded or has vanished from
// the grid. Callers hold r.mu.
func (r *Reconciler) checkLive(t Target) error {
	if r.discarded[t] {
		r.settle(t, RolledBack)
		r.log.Info("response discarded", "row", t.RowKey, "day", t.Day, "id", t.EntryID)
		return ErrStale
	}
	if _, ok := r.locate(t); !ok {
		r.settle(t, RolledBack)
		r.log.Info("target gone before response", "row", t.RowKey, "day", t.Day, "id", t.EntryID)
		return ErrStale
	}
	return nil
}

func (r *Reconciler) fail(t Target, op string, err error) error {
	r.mu.Lock()
	r.settle(t, RolledBack)
	r.mu.Unlock()
	r.log.Warn(op+" failed", "row", t.RowKey, "day", t.Day, "id", t.EntryID, "err", err)
	return &RemoteError{Op: op, Err: err}
}

// fillRefs copies the row snapshot into e where the store left it blank.
func fillRefs(e *model.TimeEntry, m grid.RowMeta) {
	if e.Client.Name == "" {
		e.Client = m.Client
	}
	if e.Project.Name == "" {
		e.Project = m.Project
	}
	if e.Task.Name == "" {
		e.Task = m.Task
	}
}
