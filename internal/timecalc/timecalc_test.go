package timecalc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1:30", 5400},
		{"1:90", 9000},
		{"0:05", 300},
		{"0:5", 300},
		{"100:00", 360000},
		{"1:30:15", 5415},
		{"1.5", 5400},
		{"90", 5400},
		{"0", 0},
		{"23.99", 86364},
		{"24", 1440},
		{"8", 28800},
		{"0.25", 900},
		{".5", 1800},
		{"45.5", 2730},
		{"  2  ", 7200},
	}
	for _, tt := range tests {
		got, err := timecalc.ParseDuration(tt.input)
		if err != nil {
			t.Errorf("ParseDuration(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, input := range []string{"abc", "", "1:", ":30", "1:300", "-1", "1.5h", "1,5", "1e3", "1:30:",
		"9999999999999999:00", "2562047788015215:59:59", "99999999999999999999999"} {
		_, err := timecalc.ParseDuration(input)
		if !errors.Is(err, timecalc.ErrInvalidDuration) {
			t.Errorf("ParseDuration(%q) error = %v, want ErrInvalidDuration", input, err)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00"},
		{60, "0:01"},
		{5400, "1:30"},
		{28800, "8:00"},
		{360000, "100:00"},
		{5415, "1:30:15"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationRoundTrip(t *testing.T) {
	for s := int64(0); s <= 2*86400; s += 37 {
		got, err := timecalc.ParseDuration(timecalc.FormatDuration(s))
		if err != nil {
			t.Fatalf("ParseDuration(FormatDuration(%d)): %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip %d -> %q -> %d", s, timecalc.FormatDuration(s), got)
		}
	}
}

func TestFormatDurationLong(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m 0s"},
		{245, "4m 5s"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{6000, "1h 40m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationLong(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationLong(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationHHMMSS(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHHMMSS(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWeekDays(t *testing.T) {
	want := [7]model.DateKey{
		"2026-02-23", "2026-02-24", "2026-02-25", "2026-02-26",
		"2026-02-27", "2026-02-28", "2026-03-01",
	}
	refs := []time.Time{
		time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),  // Monday
		time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC), // Friday
		time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC), // Sunday
	}
	for _, ref := range refs {
		got := timecalc.WeekDays(ref)
		if got != want {
			t.Errorf("WeekDays(%s) = %v, want %v", ref.Format(time.RFC3339), got, want)
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestParseDateKey(t *testing.T) {
	d, err := timecalc.ParseDateKey("2026-02-27")
	if err != nil {
		t.Fatalf("ParseDateKey: %v", err)
	}
	if timecalc.DateKeyOf(d) != "2026-02-27" {
		t.Errorf("DateKeyOf(ParseDateKey) = %q", timecalc.DateKeyOf(d))
	}
	if _, err := timecalc.ParseDateKey("27.02.2026"); err == nil {
		t.Error("expected error for malformed date key")
	}
}

func TestSplitAtMidnight(t *testing.T) {
	at := func(d, h, m int) time.Time { return time.Date(2026, 2, d, h, m, 0, 0, time.UTC) }
	tests := []struct {
		name       string
		start, end time.Time
		want       []timecalc.DaySpan
	}{
		{"same day", at(23, 9, 0), at(23, 10, 30), []timecalc.DaySpan{{Day: "2026-02-23", Seconds: 5400}}},
		{"crosses midnight", at(23, 23, 0), at(24, 0, 30), []timecalc.DaySpan{
			{Day: "2026-02-23", Seconds: 3600},
			{Day: "2026-02-24", Seconds: 1800},
		}},
		{"ends at midnight", at(23, 23, 0), at(24, 0, 0), []timecalc.DaySpan{{Day: "2026-02-23", Seconds: 3600}}},
		{"spans a whole day", at(23, 12, 0), at(25, 12, 0), []timecalc.DaySpan{
			{Day: "2026-02-23", Seconds: 43200},
			{Day: "2026-02-24", Seconds: 86400},
			{Day: "2026-02-25", Seconds: 43200},
		}},
		{"empty", at(23, 9, 0), at(23, 9, 0), nil},
		{"reversed", at(23, 10, 0), at(23, 9, 0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timecalc.SplitAtMidnight(tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("spans = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
