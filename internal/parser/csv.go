package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVSheetName name of the single implicit sheet of a CSV file
const CSVSheetName = "Sheet1"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(data []byte) ([]sheetRows, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return []sheetRows{{name: CSVSheetName, rows: rows}}, nil
}
