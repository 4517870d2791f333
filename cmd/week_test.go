package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/reconcile"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

func testGrid() *grid.WeekGrid {
	days := timecalc.WeekDays(time.Date(2026, 2, 25, 0, 0, 0, 0, time.Local))
	entry := func(id string, day int, secs int64) model.TimeEntry {
		return model.TimeEntry{
			ID: id, ClientID: "c1", ProjectID: "p1", TaskID: "t1", DateKey: days[day], DurationSeconds: secs,
			Client:  model.Ref{ID: "c1", Name: "Acme Corp", Nickname: "Acme"},
			Project: model.Ref{ID: "p1", Name: "Website"},
			Task:    model.Ref{ID: "t1", Name: "Design"},
		}
	}
	g, _ := grid.Build(days, []model.TimeEntry{
		entry("a", 0, 32400),
		entry("b", 1, 1800),
	})
	return g
}

func TestRenderWeek(t *testing.T) {
	g := testGrid()
	out := renderWeek(g, overtime.Evaluate(g, overtime.DefaultThresholds()))

	for _, want := range []string{"Mon 23", "Sun 01", "p1-t1", "Acme: Website / Design", "9:00", "0:30", "9:30", "Overtime: Mon 23 +1:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "week +") {
		t.Errorf("week should not be overtime:\n%s", out)
	}
}

func TestRenderWeekEmpty(t *testing.T) {
	g := grid.New(timecalc.WeekDays(time.Date(2026, 2, 25, 0, 0, 0, 0, time.Local)))
	out := renderWeek(g, overtime.Evaluate(g, overtime.DefaultThresholds()))
	if !strings.Contains(out, "No entries this week.") || strings.Contains(out, "Overtime:") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestBuildReport(t *testing.T) {
	g := testGrid()
	wr := buildReport("2026-W09", g, overtime.Evaluate(g, overtime.Thresholds{DailySeconds: 28800, WeeklySeconds: 30000}))

	if len(wr.Days) != 7 || wr.Days[0].Date != "2026-02-23" {
		t.Fatalf("days = %+v", wr.Days)
	}
	if !wr.Days[0].Overtime || wr.Days[0].OvertimeSeconds != 3600 || wr.Days[1].Overtime {
		t.Errorf("day classification = %+v", wr.Days[:2])
	}
	if !wr.Overtime || wr.OvertimeSeconds != 34200-30000 {
		t.Errorf("week = %+v", wr)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"Website redesign", 8, "Website…"},
		{"Überstunden", 4, "Übe…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", reconcile.ErrValidation), 1},
		{reconcile.ErrNoEntries, 1},
		{fmt.Errorf("%w: x", reconcile.ErrNotFound), 1},
		{fmt.Errorf("wrapped: %w", timecalc.ErrInvalidDuration), 1},
		{&reconcile.RemoteError{Op: "add time entry", Err: errors.New("503")}, 2},
		{errors.New("disk full"), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
