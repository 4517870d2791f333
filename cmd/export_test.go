package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

func TestPrintCSV(t *testing.T) {
	days := timecalc.WeekDays(time.Date(2026, 2, 25, 0, 0, 0, 0, time.Local))
	desc := `fix "header", footer`
	entries := []model.TimeEntry{
		{ID: "c", ProjectID: "p2", TaskID: "t1", DateKey: days[1], DurationSeconds: 600, Source: model.SourceTimer,
			Project: model.Ref{ID: "p2"}, Task: model.Ref{ID: "t1", Name: "Build"}},
		{ID: "a", ProjectID: "p1", TaskID: "t1", DateKey: days[0], DurationSeconds: 5400, Billable: true, Description: &desc,
			Client: model.Ref{ID: "c1", Name: "Acme"}, Project: model.Ref{ID: "p1", Name: "Website"}, Task: model.Ref{ID: "t1", Name: "Design"}},
		{ID: "b", ProjectID: "p1", TaskID: "t1", DateKey: days[1], DurationSeconds: 45, Source: model.SourceManual,
			Client: model.Ref{ID: "c1", Name: "Acme"}, Project: model.Ref{ID: "p1", Name: "Website"}, Task: model.Ref{ID: "t1", Name: "Design"}},
	}
	g, _ := grid.Build(days, entries)

	var buf bytes.Buffer
	printCSV(&buf, weekEntries(g))

	want := []string{
		"date,client,project,task,description,billable,source,duration_seconds,duration",
		`2026-02-23,Acme,Website,Design,"fix ""header"", footer",true,,5400,1:30`,
		"2026-02-24,,p2,Build,,false,timer,600,0:10",
		"2026-02-24,Acme,Website,Design,,false,manual,45,0:00:45",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Acme Corp", "Acme Corp"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"two\nlines", "\"two\nlines\""},
		{"cr\rhere", "\"cr\rhere\""},
	}
	for _, tt := range tests {
		if got := csvEscape(tt.input); got != tt.want {
			t.Errorf("csvEscape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
