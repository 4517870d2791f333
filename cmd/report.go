package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/timesheet/internal/grid"
	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/overtime"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the week's daily totals against the overtime thresholds",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type dayReport struct {
	Date            string `json:"date"`
	TotalSeconds    int64  `json:"total_seconds"`
	ThresholdSecs   int64  `json:"threshold_seconds"`
	Overtime        bool   `json:"overtime"`
	OvertimeSeconds int64  `json:"overtime_seconds"`
}

type weekReport struct {
	Week            string      `json:"week"`
	Days            []dayReport `json:"days"`
	TotalSeconds    int64       `json:"total_seconds"`
	ThresholdSecs   int64       `json:"threshold_seconds"`
	Overtime        bool        `json:"overtime"`
	OvertimeSeconds int64       `json:"overtime_seconds"`
}

func buildReport(label string, g *grid.WeekGrid, rep overtime.Report) weekReport {
	wr := weekReport{
		Week:            label,
		TotalSeconds:    rep.Week.Total,
		ThresholdSecs:   rep.Week.Threshold,
		Overtime:        rep.Week.Overtime,
		OvertimeSeconds: rep.Week.Overage,
	}
	for i, d := range g.Days {
		c := rep.Days[i]
		wr.Days = append(wr.Days, dayReport{
			Date:            string(d),
			TotalSeconds:    c.Total,
			ThresholdSecs:   c.Threshold,
			Overtime:        c.Overtime,
			OvertimeSeconds: c.Overage,
		})
	}
	return wr
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref, err := refDate()
	exitOnError(err)

	r, closeStore, err := loadWeek(ctx, ref)
	exitOnError(err)
	defer closeStore()

	var wr weekReport
	r.View(func(g *grid.WeekGrid, rep overtime.Report) {
		wr = buildReport(timecalc.ISOWeekLabel(ref), g, rep)
	})

	switch reportFormat {
	case "csv":
		fmt.Println("date,duration_minutes,threshold_minutes,overtime_minutes")
		for _, d := range wr.Days {
			fmt.Printf("%s,%d,%d,%d\n", d.Date, d.TotalSeconds/60, d.ThresholdSecs/60, d.OvertimeSeconds/60)
		}
		fmt.Printf("week,%d,%d,%d\n", wr.TotalSeconds/60, wr.ThresholdSecs/60, wr.OvertimeSeconds/60)
	case "json":
		data, err := json.MarshalIndent(wr, "", "  ")
		if err != nil {
			exitOnError(fmt.Errorf("error encoding JSON: %w", err))
		}
		fmt.Println(string(data))
	default: // md
		fmt.Printf("Week %s\n", wr.Week)
		fmt.Println("--------------------------------")
		for _, d := range wr.Days {
			mark := ""
			if d.Overtime {
				mark = "  +" + timecalc.FormatDuration(d.OvertimeSeconds)
			}
			fmt.Printf("%-14s%8s%s\n", dayHeader(model.DateKey(d.Date)), timecalc.FormatDuration(d.TotalSeconds), mark)
		}
		fmt.Println("--------------------------------")
		mark := ""
		if wr.Overtime {
			mark = "  +" + timecalc.FormatDuration(wr.OvertimeSeconds)
		}
		fmt.Printf("%-14s%8s%s\n", "Total", timecalc.FormatDuration(wr.TotalSeconds), mark)
	}

	return nil
}
