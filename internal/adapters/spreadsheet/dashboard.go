// Package spreadsheet exports dashboard figures as .xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"society/internal/application/projections"
)

// SheetName is the worksheet holding the dashboard table.
const SheetName = "Dashboard"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// chartCell anchors the optional chart picture to the right of the table.
const chartCell = "F2"

// WriteDashboardStats writes a workbook with one row per category, a total row and,
// when chartPNG is non-empty, the rendered chart beside the table.
// PRE: stats.Rows are in chart order
// POST: w holds a complete .xlsx file
func WriteDashboardStats(w io.Writer, stats projections.DashboardStats, chartPNG []byte) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("xlsx_close_failed", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2c3e50"}, Pattern: 1},
		Font: &excelize.Font{Color: "#FFFFFF", Bold: true},
	})
	if err != nil {
		return err
	}
	percentFmt := `0.0"%"`
	percentStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "top", Color: "#2c3e50", Style: 1}},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]any{"Category", "Count", "Share", "Colour"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, r := range stats.Rows {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(SheetName, cell, &[]any{r.Label, r.Count, r.Percentage, r.Color}); err != nil {
			return err
		}
		if err := swatch(f, fmt.Sprintf("D%d", row), r.Color); err != nil {
			return err
		}
		row++
	}
	if err := f.SetCellStyle(SheetName, "C2", fmt.Sprintf("C%d", max(row-1, 2)), percentStyle); err != nil {
		return err
	}

	totalCell := fmt.Sprintf("A%d", row)
	if err := f.SetSheetRow(SheetName, totalCell, &[]any{"Total", stats.Total}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, totalCell, fmt.Sprintf("D%d", row), totalStyle); err != nil {
		return err
	}

	if !stats.GeneratedAt.IsZero() {
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", row+2), "Generated "+stats.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "D", 12); err != nil {
		return err
	}

	if len(chartPNG) > 0 {
		if err := f.AddPictureFromBytes(SheetName, chartCell, &excelize.Picture{
			Extension: ".png",
			File:      chartPNG,
			Format:    &excelize.GraphicOptions{AltText: "Dashboard ring chart", LockAspectRatio: true},
		}); err != nil {
			return fmt.Errorf("embed chart: %w", err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// swatch fills a cell with the category colour.
func swatch(f *excelize.File, cell, color string) error {
	if color == "" {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Font: &excelize.Font{Color: "#FFFFFF"},
	})
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, cell, cell, style)
}
