package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	approachesSheet = "Approaches"
	infoSheet       = "Info"
)

// WriteExcel writes rows to an xlsx workbook with an Approaches sheet and an
// Info summary sheet.
func WriteExcel(path string, rows []Row) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteExcelTo streams the workbook to w.
func WriteExcelTo(w io.Writer, rows []Row) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillWorkbook(f, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fillWorkbook(f *excelize.File, rows []Row) error {
	if err := f.SetSheetName("Sheet1", approachesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Datetime (UTC)", "Distance (au)", "Velocity (km/s)", "Designation", "Name", "Diameter (km)", "Hazardous"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(approachesSheet, cell, header); err != nil {
			return err
		}
	}

	// 2 is the builtin "0.00" number format.
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create number style: %w", err)
	}

	for i, r := range rows {
		rowNum := i + 2
		values := []any{r.DatetimeUTC, r.DistanceAU, r.VelocityKmS, r.Designation, "", "", r.Hazardous}
		if r.Name != nil {
			values[4] = *r.Name
		}
		if r.DiameterKm != nil {
			values[5] = *r.DiameterKm
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(approachesSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
	}

	if len(rows) > 0 {
		last := len(rows) + 1
		if err := f.SetCellStyle(approachesSheet, "B2", fmt.Sprintf("C%d", last), numStyle); err != nil {
			return err
		}
		hazardStyle := highlightStyle(f, "#FFCCCC")
		if hazardStyle != nil {
			rule := []excelize.ConditionalFormatOptions{{
				Type:     "cell",
				Criteria: "==",
				Value:    "TRUE",
				Format:   hazardStyle,
			}}
			if err := f.SetConditionalFormat(approachesSheet, fmt.Sprintf("G2:G%d", last), rule); err != nil {
				return err
			}
		}
	}

	for i := 1; i <= len(headers); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		if err := f.SetColWidth(approachesSheet, col, col, 18); err != nil {
			return err
		}
	}

	if err := writeInfoSheet(f, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return nil
}

func writeInfoSheet(f *excelize.File, rows []Row) error {
	if _, err := f.NewSheet(infoSheet); err != nil {
		return err
	}

	info := [][]any{
		{"Report Generated", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Total Approaches", len(rows)},
	}
	if len(rows) > 0 {
		minDist, maxDist := rows[0].DistanceAU, rows[0].DistanceAU
		hazardous := 0
		for _, r := range rows {
			minDist = min(minDist, r.DistanceAU)
			maxDist = max(maxDist, r.DistanceAU)
			if r.Hazardous {
				hazardous++
			}
		}
		info = append(info,
			[]any{"Time Range", fmt.Sprintf("%s to %s", rows[0].DatetimeUTC, rows[len(rows)-1].DatetimeUTC)},
			[]any{"Distance Range", fmt.Sprintf("%.2f au - %.2f au", minDist, maxDist)},
			[]any{"Potentially Hazardous", hazardous},
		)
	}

	for i, line := range info {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(infoSheet, cell, &line); err != nil {
			return err
		}
	}
	return nil
}

func highlightStyle(f *excelize.File, color string) *int {
	style, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil
	}
	return &style
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}
