package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/billr/internal/dashboard"
)

// Sheet names of the dashboard workbook.
const (
	SheetSummary = "summary"
	SheetDaily   = "daily"
	SheetClient  = "clients"
	SheetProject = "projects"
	SheetWeekday = "weekdays"
	SheetMonthly = "months"
)

// BuildXLSX renders the dashboard views as a workbook.
func BuildXLSX(v dashboard.Views) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	s := v.Summary
	summary := [][]any{
		{"From", v.Interval.From.Format(dateLayout)},
		{"To", v.Interval.To.Format(dateLayout)},
		{"Total Hours", s.TotalHours},
		{"Total Revenue", s.TotalRevenue},
		{"Total Expenses", s.TotalExpenses},
		{"Net Income", s.NetIncome},
		{"Avg Weekly Hours", s.AvgWeeklyHours},
		{"Avg Weekly Revenue", s.AvgWeeklyRevenue},
		{"Avg Hourly Rate", s.AvgHourlyRate},
		{"Tracked Days", s.TrackedDays},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, fmt.Errorf("style summary: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 22); err != nil {
		return nil, fmt.Errorf("size summary: %w", err)
	}

	// Daily and monthly sheets lead with the ISO key.
	series := []struct {
		sheet string
		key   string
		pts   []dashboard.Point
	}{
		{SheetDaily, "Date", v.Daily},
		{SheetClient, "", v.ByClient},
		{SheetProject, "", v.ByProject},
		{SheetWeekday, "", v.ByWeekday},
		{SheetMonthly, "Month", v.ByMonth},
	}
	for _, sr := range series {
		if err := writePoints(f, sr.sheet, sr.key, sr.pts, bold); err != nil {
			return nil, fmt.Errorf("write %s: %w", sr.sheet, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writePoints writes one row per point. A non-empty key names an extra
// first column holding the point key.
func writePoints(f *excelize.File, sheet, key string, pts []dashboard.Point, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	head := []any{"Label", "Hours", "Revenue"}
	if key != "" {
		head = append([]any{key}, head...)
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(head), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}

	for i, p := range pts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Label, p.Hours, p.Revenue}
		if key != "" {
			row = append([]any{p.Key}, row...)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// ToXLSX writes the workbook to path.
func ToXLSX(v dashboard.Views, path string) error {
	data, err := BuildXLSX(v)
	if err != nil {
		return fmt.Errorf("build xlsx: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write xlsx file: %w", err)
	}
	return nil
}
