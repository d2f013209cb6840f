package materialize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var numberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// WriteSpreadsheet writes t to a new workbook at path: the header on row 1, then one row per
// table row. Recognized formulas are stored as live formulas, plain numbers as numbers, and
// everything else as text. Each column is as wide as its longest value plus 2.
func WriteSpreadsheet(t *Table, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	widths := map[int]int{}
	track := func(col int, v string) {
		if n := utf8.RuneCountInString(v); n > widths[col] {
			widths[col] = n
		}
	}

	for i, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		track(i+1, h)
	}
	for r, row := range t.Rows {
		for c, raw := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			value, formula := NormalizeCell(raw)
			switch {
			case formula:
				err = f.SetCellFormula(sheet, cell, strings.TrimPrefix(value, "="))
			case numberRe.MatchString(value):
				err = setNumber(f, sheet, cell, value)
			default:
				err = f.SetCellValue(sheet, cell, value)
			}
			if err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
			track(c+1, value)
		}
	}
	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(w+2)); err != nil {
			return fmt.Errorf("set width of column %s: %w", name, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setNumber(f *excelize.File, sheet, cell, value string) error {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return f.SetCellValue(sheet, cell, n)
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return f.SetCellValue(sheet, cell, n)
	}
	return f.SetCellValue(sheet, cell, value)
}
