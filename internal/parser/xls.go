package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
)

// xlsMaxColumns BIFF8 column limit (IV). Rows created from cell records
// carry no column bounds, so every row is scanned to this width.
const xlsMaxColumns = 256

// readXLS decodes legacy BIFF workbooks. The decoder panics on some
// malformed streams; those surface as errors.
func readXLS(data []byte) (out []sheetRows, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("corrupt xls stream: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb == nil {
		return nil, errors.New("failed to open xls: no workbook stream")
	}

	out = make([]sheetRows, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			rows = append(rows, xlsRowCells(sheet, r))
		}
		out = append(out, sheetRows{name: sheet.Name, rows: rows})
	}
	return out, nil
}

// xlsRowCells sheet.Row dereferences a nil row for gaps, so a missing
// row is read as empty.
func xlsRowCells(sheet *xls.WorkSheet, index int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(index)
	if row == nil {
		return nil
	}
	width := row.LastCol() + 1
	if width < xlsMaxColumns {
		width = xlsMaxColumns
	}
	cells = make([]string, 0, width)
	for c := 0; c < width; c++ {
		cells = append(cells, row.Col(c))
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
