package httpapi

import (
	"bytes"
	"fmt"

	"clinicon-stellenplan/internal/service"

	"github.com/xuri/excelize/v2"
)

var planExportMonths = []string{
	"Jan", "Feb", "Mär", "Apr", "Mai", "Jun",
	"Jul", "Aug", "Sep", "Okt", "Nov", "Dez",
}

// GeneratePlanExport renders the yearly plan as an XLSX workbook: one header
// block, the main rows, the extra rows and a plan-targets footer.
func GeneratePlanExport(plan *service.PlanResponse) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so only close on error paths.

	sheetName := fmt.Sprintf("Stellenplan %d", plan.Year)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Pers.-Nr.", "Name", "Kategorie", "Qualifikation"}
	headers = append(headers, planExportMonths...)
	headers = append(headers, "Summe", "Durchschnitt")

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	widths := []float64{12, 28, 16, 24}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	qualLabels := map[int64]string{}
	for _, q := range plan.Qualifications {
		qualLabels[q.ID] = q.Label
	}

	row := 2
	writeRow := func(r service.PlanRow) error {
		qual := ""
		if r.QualificationID != nil {
			qual = qualLabels[*r.QualificationID]
		}
		values := []any{r.PersonalNumber, r.Name, r.Category, qual}
		for _, v := range r.Months {
			values = append(values, v)
		}
		values = append(values, r.Months.Total(), r.Months.Average())

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
		row++
		return nil
	}

	for _, r := range plan.Employees {
		if err := writeRow(r); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, r := range plan.Extras {
		if err := writeRow(r); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Plan-targets footer.
	targets := []any{"", "Wirtschaftsplan", "", ""}
	var targetTotal float64
	for _, v := range plan.PlanTargets.Months {
		targets = append(targets, v)
		targetTotal += v
	}
	targets = append(targets, targetTotal, targetTotal/float64(len(plan.PlanTargets.Months)))
	row++
	for col, v := range targets {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set target cell %s: %w", cell, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
