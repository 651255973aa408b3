package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetRecords  = "Records"
	SheetProjects = "Projects"
	timeLayout    = "2006-01-02 15:04"
)

// WriteXLSX writes one sheet with every record row and one with project
// totals. Durations are decimal hours so spreadsheets can sum them.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetProjects); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetRecords, "A1", &[]any{"Group", "Date", "Project", "Description", "Start", "End", "Hours", "Running"}); err != nil {
		return err
	}
	row := 2
	for _, sec := range rep.Sections {
		for _, r := range sec.Rows {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{sec.Title, r.Date, r.Project, r.Title, r.Start.Format(timeLayout), r.End.Format(timeLayout), hours(r.Duration.Hours()), r.Running}
			if err := f.SetSheetRow(SheetRecords, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	if err := f.SetSheetRow(SheetRecords, fmt.Sprintf("A%d", row), &[]any{"Total", "", "", "", "", "", hours(rep.Total.Hours())}); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetRecords, row, row, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRecords, "C", "D", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRecords, "E", "F", 18); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetProjects, "A1", &[]any{"Project", "Records", "Hours"}); err != nil {
		return err
	}
	for i, p := range rep.Projects {
		if err := f.SetSheetRow(SheetProjects, fmt.Sprintf("A%d", i+2), &[]any{p.Name, p.Records, hours(p.Duration.Hours())}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetProjects, "A", "A", 30); err != nil {
		return err
	}

	for _, sheet := range []string{SheetRecords, SheetProjects} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// hours rounds to two decimals.
func hours(h float64) float64 {
	return float64(int64(h*100+0.5)) / 100
}
