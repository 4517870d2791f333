package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the week grid with daily and weekly totals",
	Args:  cobra.NoArgs,
	RunE:  runWeek,
}

const (
	keyWidth   = 14
	labelWidth = 30
	cellWidth  = 9
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	keyStyle      = lipgloss.NewStyle().Width(keyWidth).Foreground(lipgloss.Color("8"))
	labelStyle    = lipgloss.NewStyle().Width(labelWidth)
	cellStyle     = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right)
	totalStyle    = cellStyle.Bold(true)
	overtimeStyle = cellStyle.Bold(true).Foreground(lipgloss.Color("9"))
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runWeek(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	r.View(func(g *grid.WeekGrid, rep overtime.Report) {
		fmt.Printf("Week %s\n\n", timecalc.ISOWeekLabel(ref))
		fmt.Print(renderWeek(g, rep))
	})
	return nil
}

// renderWeek draws the grid as a table: one line per row, a totals line with
// overtime days highlighted, and a summary of any overage.
func renderWeek(g *grid.WeekGrid, rep overtime.Report) string {
	var b strings.Builder

	b.WriteString(keyStyle.Render("ROW"))
	b.WriteString(headerStyle.Render(labelStyle.Render("PROJECT / TASK")))
	for _, d := range g.Days {
		b.WriteString(headerStyle.Render(cellStyle.Render(dayHeader(d))))
	}
	b.WriteString(headerStyle.Render(cellStyle.Render("TOTAL")))
	b.WriteString("\n")

	if len(g.Rows) == 0 {
		b.WriteString("No entries this week.\n")
	}
	for _, row := range g.Rows {
		b.WriteString(keyStyle.Render(truncate(row.Key, keyWidth-1)))
		b.WriteString(labelStyle.Render(truncate(rowLabel(row), labelWidth-1)))
		for _, d := range g.Days {
			cell := ""
			if row.Has(d) {
				cell = timecalc.FormatDuration(row.DayTotal(d))
			}
			b.WriteString(cellStyle.Render(cell))
		}
		b.WriteString(totalStyle.Render(timecalc.FormatDuration(row.Total)))
		b.WriteString("\n")
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", keyWidth+labelWidth+8*cellWidth)))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render(""))
	b.WriteString(headerStyle.Render(labelStyle.Render("Total")))
	for i, total := range g.DailyTotals {
		style := totalStyle
		if rep.Days[i].Overtime {
			style = overtimeStyle
		}
		b.WriteString(style.Render(timecalc.FormatDuration(total)))
	}
	weekStyle := totalStyle
	if rep.Week.Overtime {
		weekStyle = overtimeStyle
	}
	b.WriteString(weekStyle.Render(timecalc.FormatDuration(g.WeekTotal)))
	b.WriteString("\n")

	var over []string
	for _, i := range rep.OvertimeDays() {
		over = append(over, fmt.Sprintf("%s +%s", dayHeader(g.Days[i]), timecalc.FormatDuration(rep.Days[i].Overage)))
	}
	if rep.Week.Overtime {
		over = append(over, "week +"+timecalc.FormatDuration(rep.Week.Overage))
	}
	if len(over) > 0 {
		b.WriteString("\n")
		b.WriteString(overtimeStyle.UnsetWidth().UnsetAlign().Render("Overtime: " + strings.Join(over, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func dayHeader(d model.DateKey) string {
	t, err := timecalc.ParseDateKey(d)
	if err != nil {
		return string(d)
	}
	return t.Format("Mon 02")
}

func rowLabel(row *grid.Row) string {
	label := refLabel(row.Project) + " / " + refLabel(row.Task)
	if c := refLabel(row.Client); c != "" {
		label = c + ": " + label
	}
	return label
}

// refLabel falls back to the id when a snapshot carries no name.
func refLabel(r model.Ref) string {
	if l := r.Label(); l != "" {
		return l
	}
	return r.ID
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
