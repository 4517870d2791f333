package overtime_test

import (
	"reflect"
	"testing"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
)

func TestClassifyDayBoundaries(t *testing.T) {
	tests := []struct {
		total    int64
		overtime bool
		overage  int64
	}{
		{28799, false, 0},
		{28800, false, 0},
		{28801, true, 1},
		{0, false, 0},
		{36000, true, 7200},
	}
	for _, tt := range tests {
		got := overtime.ClassifyDay(tt.total, 28800)
		if got.Overtime != tt.overtime || got.Overage != tt.overage {
			t.Errorf("ClassifyDay(%d, 28800) = %+v, want overtime=%v overage=%d",
				tt.total, got, tt.overtime, tt.overage)
		}
	}
}

func TestClassifyWeekCustomThreshold(t *testing.T) {
	th := overtime.Thresholds{DailySeconds: 100, WeeklySeconds: 500}
	if c := overtime.ClassifyWeek(500, th.WeeklySeconds); c.Overtime {
		t.Errorf("ClassifyWeek at threshold = %+v", c)
	}
	if c := overtime.ClassifyWeek(501, th.WeeklySeconds); !c.Overtime || c.Overage != 1 {
		t.Errorf("ClassifyWeek one over = %+v", c)
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := overtime.DefaultThresholds()
	if th.DailySeconds != 28800 || th.WeeklySeconds != 144000 {
		t.Errorf("DefaultThresholds = %+v", th)
	}
}

func TestEvaluateAndRefresh(t *testing.T) {
	days := [7]model.DateKey{"d0", "d1", "d2", "d3", "d4", "d5", "d6"}
	e := func(id string, day model.DateKey, secs int64) model.TimeEntry {
		return model.TimeEntry{ID: id, ProjectID: "p", TaskID: "t", DateKey: day, DurationSeconds: secs}
	}
	g, _ := grid.Build(days, []model.TimeEntry{e("a", "d0", 30000), e("b", "d1", 100)})
	th := overtime.Thresholds{DailySeconds: 28800, WeeklySeconds: 30000}

	r := overtime.Evaluate(g, th)
	if !reflect.DeepEqual(r.OvertimeDays(), []int{0}) {
		t.Errorf("OvertimeDays = %v, want [0]", r.OvertimeDays())
	}
	if !r.Week.Overtime || r.Week.Overage != 100 {
		t.Errorf("Week = %+v", r.Week)
	}

	if err := g.PatchCell("p-t", "d1", []model.TimeEntry{e("b", "d1", 29000)}); err != nil {
		t.Fatal(err)
	}
	r.Refresh(g, th, 1)
	if !reflect.DeepEqual(r.OvertimeDays(), []int{0, 1}) {
		t.Errorf("OvertimeDays after refresh = %v", r.OvertimeDays())
	}
	if r != overtime.Evaluate(g, th) {
		t.Error("Refresh result differs from full Evaluate")
	}
}
