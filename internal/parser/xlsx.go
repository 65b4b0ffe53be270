package parser

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func readXLSX(data []byte) ([]sheetRows, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	out := make([]sheetRows, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		out = append(out, sheetRows{name: name, rows: rows})
	}
	return out, nil
}
