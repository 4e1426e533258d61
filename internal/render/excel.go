package render

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelGenerator renders pipeline reports as .xlsx workbooks.
type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// DealsReport writes one sheet of deal rows with a summary header. Amounts
// are written as raw integers so the spreadsheet can keep calculating with
// them.
func (g *ExcelGenerator) DealsReport(rows []DealReportRow, generatedAt time.Time) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Deals"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	var total int64
	for _, row := range rows {
		total += row.TotalValue
	}

	set("A1", "Pipeline report")
	set("A2", "Generated")
	set("B2", generatedAt.Format("2006-01-02 15:04:05"))
	set("A3", "Deals")
	set("B3", len(rows))
	set("A4", "Total value (VND)")
	set("B4", total)

	tableRow := 6
	headers := []string{"Title", "Customer", "Stage", "Value (VND)", "Assignee", "Expected close", "Created"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, row := range rows {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), row.Title)
		set(fmt.Sprintf("B%d", r), row.CustomerName)
		set(fmt.Sprintf("C%d", r), string(row.Stage))
		set(fmt.Sprintf("D%d", r), row.TotalValue)
		set(fmt.Sprintf("E%d", r), row.AssigneeName)
		set(fmt.Sprintf("F%d", r), formatOptionalDate(row.ExpectedCloseDate))
		set(fmt.Sprintf("G%d", r), row.CreatedAt.Format("2006-01-02"))
	}

	_ = file.SetColWidth(sheet, "A", "B", 36)
	_ = file.SetColWidth(sheet, "C", "C", 14)
	_ = file.SetColWidth(sheet, "D", "D", 18)
	_ = file.SetColWidth(sheet, "E", "G", 16)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
