package selection_test

import (
	"reflect"
	"testing"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/selection"
)

func TestToggle(t *testing.T) {
	var s selection.Set
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a")
	if !reflect.DeepEqual(s.Keys(), []string{"b"}) {
		t.Errorf("Keys = %v, want [b]", s.Keys())
	}
	if s.Has("a") || !s.Has("b") {
		t.Error("Has mismatch")
	}
}

func TestToggleAll(t *testing.T) {
	var s selection.Set
	visible := []string{"a", "b", "c"}

	s.Toggle("b")
	s.ToggleAll(visible)
	if s.Len() != 3 {
		t.Fatalf("Len after ToggleAll = %d, want 3", s.Len())
	}
	s.ToggleAll(visible)
	if s.Len() != 0 {
		t.Errorf("Len after second ToggleAll = %d, want 0", s.Len())
	}

	s.ToggleAll(nil)
	if s.Len() != 0 {
		t.Errorf("ToggleAll(nil) selected %d keys", s.Len())
	}
}

func TestClear(t *testing.T) {
	var s selection.Set
	s.Toggle("a")
	s.Clear()
	if s.Len() != 0 || s.Has("a") {
		t.Error("Clear left keys selected")
	}
}

func TestSelectedEntryIDs(t *testing.T) {
	days := [7]model.DateKey{"d0", "d1", "d2", "d3", "d4", "d5", "d6"}
	e := func(id, project string, day model.DateKey) model.TimeEntry {
		return model.TimeEntry{ID: id, ProjectID: project, TaskID: "t", DateKey: day, DurationSeconds: 60}
	}
	g, _ := grid.Build(days, []model.TimeEntry{
		e("1", "p1", "d0"), e("2", "p1", "d3"), e("3", "p2", "d1"), e("4", "p3", "d1"),
	})

	var s selection.Set
	s.Toggle("p1-t")
	s.Toggle("p3-t")
	s.Toggle("gone-t")

	got := s.SelectedEntryIDs(g)
	if !reflect.DeepEqual(got, []string{"1", "2", "4"}) {
		t.Errorf("SelectedEntryIDs = %v, want [1 2 4]", got)
	}
}
