// Package overtime classifies day and week totals against thresholds.
package overtime

import "github.com/Tiliavir/timesheet/internal/grid"

const (
	DefaultDailySeconds  int64 = 8 * 3600
	DefaultWeeklySeconds int64 = 40 * 3600
)

// Thresholds are the limits above which a day or week counts as overtime.
type Thresholds struct {
	DailySeconds  int64 `json:"daily_seconds"`
	WeeklySeconds int64 `json:"weekly_seconds"`
}

// DefaultThresholds returns 8h per day and 40h per week.
func DefaultThresholds() Thresholds {
	return Thresholds{DailySeconds: DefaultDailySeconds, WeeklySeconds: DefaultWeeklySeconds}
}

// Classification is the result of comparing one total with its threshold.
type Classification struct {
	Total     int64
	Threshold int64
	Overtime  bool
	Overage   int64
}

// Classify compares total with threshold. Reaching the threshold exactly is
// not overtime.
func Classify(total, threshold int64) Classification {
	c := Classification{Total: total, Threshold: threshold}
	if total > threshold {
		c.Overtime = true
		c.Overage = total - threshold
	}
	return c
}

// ClassifyDay classifies one day's total.
func ClassifyDay(total, dailyThreshold int64) Classification {
	return Classify(total, dailyThreshold)
}

// ClassifyWeek classifies the week total.
func ClassifyWeek(weekTotal, weeklyThreshold int64) Classification {
	return Classify(weekTotal, weeklyThreshold)
}

// Report holds the classification of every day of a grid and of its week.
type Report struct {
	Days [7]Classification
	Week Classification
}

// Evaluate classifies all days and the week of g.
func Evaluate(g *grid.WeekGrid, th Thresholds) Report {
	var r Report
	for i := range r.Days {
		r.Days[i] = ClassifyDay(g.DailyTotals[i], th.DailySeconds)
	}
	r.Week = ClassifyWeek(g.WeekTotal, th.WeeklySeconds)
	return r
}

// Refresh reclassifies only the given day columns and the week.
func (r *Report) Refresh(g *grid.WeekGrid, th Thresholds, days ...int) {
	for _, i := range days {
		if i < 0 || i >= len(r.Days) {
			continue
		}
		r.Days[i] = ClassifyDay(g.DailyTotals[i], th.DailySeconds)
	}
	r.Week = ClassifyWeek(g.WeekTotal, th.WeeklySeconds)
}

// OvertimeDays returns the indexes of days over their threshold.
func (r Report) OvertimeDays() []int {
	var out []int
	for i, d := range r.Days {
		if d.Overtime {
			out = append(out, i)
		}
	}
	return out
}
