package timecalc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/timesheet/internal/model"
)

// ErrInvalidDuration is returned when a duration string matches none of the
// accepted grammars.
var ErrInvalidDuration = errors.New("invalid duration")

var (
	colonPattern   = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}))?$`)
	decimalPattern = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

	hoursCutoff      = decimal.NewFromInt(24)
	secondsPerHour   = decimal.NewFromInt(3600)
	secondsPerMinute = decimal.NewFromInt(60)
	maxSeconds       = decimal.NewFromInt(math.MaxInt64)
)

// ParseDuration converts a human-entered duration into seconds.
//
// "H:MM" is hours and minutes; the minute field is not range-checked, so
// "1:90" is 1h + 90m. "H:MM:SS" additionally carries seconds. A plain number
// below 24 is hours ("1.5" = 5400), anything from 24 upward is minutes
// ("90" = 5400).
func ParseDuration(input string) (int64, error) {
	s := strings.TrimSpace(input)

	if m := colonPattern.FindStringSubmatch(s); m != nil {
		h, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
		}
		mins, _ := strconv.ParseInt(m[2], 10, 64)
		var secs int64
		if m[3] != "" {
			secs, _ = strconv.ParseInt(m[3], 10, 64)
		}
		if h > (math.MaxInt64-mins*60-secs)/3600 {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalidDuration, input)
		}
		return h*3600 + mins*60 + secs, nil
	}

	if decimalPattern.MatchString(s) {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
		}
		unit := secondsPerMinute
		if v.LessThan(hoursCutoff) {
			unit = secondsPerHour
		}
		secs := v.Mul(unit).Round(0)
		if secs.GreaterThan(maxSeconds) {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalidDuration, input)
		}
		return secs.IntPart(), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
}

// FormatDuration formats seconds as "H:MM", or "H:MM:SS" when the value is not
// a whole number of minutes. The output always parses back to the same value.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if s != 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", h, m)
}

// FormatDurationLong formats seconds as "1h 40m", "4m 5s" or "30s".
func FormatDurationLong(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// WeekDays returns the seven day keys, Monday through Sunday, of the week
// containing ref. A Sunday belongs to the week that started the Monday before.
func WeekDays(ref time.Time) [7]model.DateKey {
	monday, _ := WeekRange(ref)
	var days [7]model.DateKey
	for i := range days {
		days[i] = DateKeyOf(monday.AddDate(0, 0, i))
	}
	return days
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = StartOfDay(monday)
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateKeyOf returns the day key for t's calendar date.
func DateKeyOf(t time.Time) model.DateKey {
	return model.DateKey(t.Format(model.DateLayout))
}

// ParseDateKey parses a "2006-01-02" key as local midnight.
func ParseDateKey(k model.DateKey) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, string(k), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", k, err)
	}
	return t, nil
}

// DaySpan is the part of a time range that falls on one calendar day.
type DaySpan struct {
	Day     model.DateKey
	Seconds int64
}

// SplitAtMidnight splits [start, end) into one span per calendar day it
// touches. It returns nil when end is not after start.
func SplitAtMidnight(start, end time.Time) []DaySpan {
	var spans []DaySpan
	for cur := start; end.After(cur); {
		next := StartOfDay(cur).AddDate(0, 0, 1)
		if next.After(end) {
			next = end
		}
		spans = append(spans, DaySpan{Day: DateKeyOf(cur), Seconds: int64(next.Sub(cur).Seconds())})
		cur = next
	}
	return spans
}
