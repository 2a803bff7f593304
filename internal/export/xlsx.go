package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintel/constants"
)

// Status fills for comparison rows.
var statusFills = map[constants.ComparisonStatus]string{
	constants.StatusOK:      "C6EFCE",
	constants.StatusOut:     "FFC7CE",
	constants.StatusMissing: "FFEB9C",
}

const maxColWidth = 60

// WriteTables renders every table as its own sheet, in order.
func WriteTables(tables ...Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	fills := map[constants.ComparisonStatus]int{}
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}})
		if err != nil {
			return nil, fmt.Errorf("fill style: %w", err)
		}
		fills[status] = id
	}

	for i, t := range tables {
		sheet := t.Sheet
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, t, header, fills); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, t Table, header int, fills map[constants.ComparisonStatus]int) error {
	widths := make([]int, len(t.Headers))
	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if col-1 < len(widths) {
			widths[col-1] = max(widths[col-1], utf8.RuneCountInString(v))
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, h := range t.Headers {
		if err := write(i+1, 1, h); err != nil {
			return err
		}
	}
	if len(t.Headers) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", end, header); err != nil {
			return err
		}
	}
	for r, values := range t.Rows {
		for c, v := range values {
			if err := write(c+1, r+2, v); err != nil {
				return err
			}
		}
		if t.StatusColumn < 0 || t.StatusColumn >= len(values) || len(values) == 0 {
			continue
		}
		if style, ok := fills[constants.ComparisonStatus(values[t.StatusColumn])]; ok {
			start, _ := excelize.CoordinatesToCellName(1, r+2)
			end, _ := excelize.CoordinatesToCellName(len(values), r+2)
			if err := f.SetCellStyle(sheet, start, end, style); err != nil {
				return err
			}
		}
	}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(max(w+2, 10), maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}
