package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
)

// echoStore creates and updates entries without keeping them.
type echoStore struct {
	next int
}

func (s *echoStore) ListTimeEntries(context.Context, string, model.DateKey, model.DateKey) ([]model.TimeEntry, error) {
	return []model.TimeEntry{{ID: "e1", ProjectID: "p1", TaskID: "t1", DateKey: "2026-02-23", DurationSeconds: 60}}, nil
}

func (s *echoStore) CreateTimeEntry(_ context.Context, ne model.NewEntry) (model.TimeEntry, error) {
	s.next++
	return model.TimeEntry{ID: fmt.Sprintf("n%d", s.next), DurationSeconds: ne.DurationSeconds}, nil
}

func (s *echoStore) UpdateTimeEntry(_ context.Context, id string, p model.EntryPatch) (model.TimeEntry, error) {
	return p.Apply(model.TimeEntry{ID: id}), nil
}

func (s *echoStore) DeleteTimeEntry(context.Context, string) error         { return nil }
func (s *echoStore) BulkDeleteTimeEntries(context.Context, []string) error { return nil }

func (s *echoStore) ListProjectsForClient(context.Context, string) ([]model.Project, error) {
	return nil, nil
}

func (s *echoStore) ListTasksForProject(context.Context, string, string) ([]model.Task, error) {
	return nil, nil
}

func TestCellLocksAndStatesDoNotAccumulate(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 2, 23, 9, 0, 0, 0, time.Local)
	r := New(&echoStore{}, overtime.DefaultThresholds(), nil)
	if err := r.Load(ctx, "u1", monday); err != nil {
		t.Fatalf("Load: %v", err)
	}

	days := r.Grid().Days
	for _, d := range days {
		if _, err := r.Add(ctx, AddRequest{RowKey: "p1-t1", Day: d, Duration: "0:01"}); err != nil {
			t.Fatalf("Add on %s: %v", d, err)
		}
	}
	if _, err := r.Edit(ctx, EditRequest{Target: Target{RowKey: "p1-t1", Day: days[0], EntryID: "e1"}, Duration: "0:02"}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if n := len(r.cells); n != 0 {
		t.Errorf("%d cell locks left after all mutations finished", n)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	hold, err := r.begin(ctx, Target{RowKey: "p1-t1", Day: days[1]})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := r.begin(cancelled, Target{RowKey: "p1-t1", Day: days[1]}); err == nil {
		t.Fatal("begin on a held cell with a cancelled context succeeded")
	}
	r.mu.Lock()
	r.settle(Target{RowKey: "p1-t1", Day: days[1]}, Applied)
	r.mu.Unlock()
	hold()
	if n := len(r.cells); n != 0 {
		t.Errorf("%d cell locks left after a cancelled wait", n)
	}

	if len(r.states) == 0 {
		t.Fatal("no states recorded")
	}
	if err := r.Load(ctx, "u1", monday); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if n := len(r.states); n != 0 {
		t.Errorf("%d settled states kept across Load", n)
	}
}
