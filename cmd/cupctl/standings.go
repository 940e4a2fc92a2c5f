package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/pkg/timeutil"
)

// headerRow is where the column titles go; entries start on the next row.
const headerRow = 4

var columns = []string{"Plats", "Spelare", "Poäng", "Omgångar"}

func printStandings(w io.Writer, ranking *leaderboard.Ranking) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tPLAYER\tPOINTS\tGAMES\t")
	for _, e := range ranking.All() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t\n", e.Rank, e.Name(), e.Points, e.Games)
	}
	return tw.Flush()
}

func writeStandingsFile(path string, window leaderboard.Window, ranking *leaderboard.Ranking, loc *time.Location) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeStandingsXLSX(f, window, ranking, loc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeStandingsXLSX writes one sheet named after the window: a title, the
// date range of a cup and the ranked table.
func writeStandingsXLSX(w io.Writer, window leaderboard.Window, ranking *leaderboard.Ranking, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := window.String()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	title, period := "Wordle Cup totalt", ""
	if window.Kind == leaderboard.WindowCup {
		title = "Wordle Cup " + window.Cup.Label()
		if from, to, err := window.Cup.Bounds(loc); err == nil {
			period = timeutil.FormatRange(from, to, loc)
		}
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if period != "" {
		if err := f.SetCellValue(sheet, "A2", period); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, sheet, headerRow, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), headerRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), last, bold); err != nil {
		return err
	}

	for i, e := range ranking.All() {
		row := []interface{}{int(e.Rank), e.Name(), e.Points, e.Games}
		if err := setRow(f, sheet, headerRow+1+i, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 28); err != nil {
		return err
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
