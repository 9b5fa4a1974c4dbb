package export

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sadopc/billr/internal/dashboard"
)

// BuildPDF renders a one-page dashboard report. Amounts are printed without a
// currency symbol because the core fonts are Latin-1 only.
func BuildPDF(v dashboard.Views, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", v.Interval.From.Format(dateLayout), v.Interval.To.Format(dateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format(time.RFC3339)))
	pdf.Ln(8)

	if v.NoData {
		pdf.Cell(0, 6, dashboard.NoDataText)
		pdf.Ln(6)
		return output(pdf)
	}

	s := v.Summary
	for _, line := range [][2]string{
		{"Total Hours", fmt.Sprintf("%.2f", s.TotalHours)},
		{"Total Revenue", fmt.Sprintf("%.2f", s.TotalRevenue)},
		{"Total Expenses", fmt.Sprintf("%.2f", s.TotalExpenses)},
		{"Net Income", fmt.Sprintf("%.2f", s.NetIncome)},
		{"Avg Weekly Hours", fmt.Sprintf("%.2f", s.AvgWeeklyHours)},
		{"Avg Weekly Revenue", fmt.Sprintf("%.2f", s.AvgWeeklyRevenue)},
		{"Avg Hourly Rate", fmt.Sprintf("%.2f", s.AvgHourlyRate)},
		{"Tracked Days", fmt.Sprintf("%d", s.TrackedDays)},
	} {
		pdf.CellFormat(50, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, line[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	table(pdf, "Revenue by Client", v.ByClient)
	table(pdf, "Hours by Project", v.ByProject)
	table(pdf, "Hours by Weekday", v.ByWeekday)
	table(pdf, "Monthly Overview", v.ByMonth)

	return output(pdf)
}

func table(pdf *gofpdf.Fpdf, heading string, pts []dashboard.Point) {
	if len(pts) == 0 {
		return
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, heading)
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Label", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Revenue", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, p := range pts {
		pdf.CellFormat(60, 6, tr(p.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.Revenue), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToPDF writes the report to path.
func ToPDF(v dashboard.Views, title, path string) error {
	data, err := BuildPDF(v, title)
	if err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pdf file: %w", err)
	}
	return nil
}
