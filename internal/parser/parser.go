package parser

import (
	"bytes"
	"fmt"
	"io"

	"templatecheck/internal/model"
)

// sheetRows raw cell strings of one worksheet, in tab order
type sheetRows struct {
	name string
	rows [][]string
}

// Parse decodes xlsx, xls or csv bytes into a ParsedWorkbook.
// A CSV file yields a single sheet named Sheet1.
func Parse(data []byte, fileName string) (*model.ParsedWorkbook, error) {
	format, err := DetectFormat(data, fileName)
	if err != nil {
		return nil, err
	}

	var sheets []sheetRows
	switch format {
	case model.FormatXLSX:
		sheets, err = readXLSX(data)
	case model.FormatXLS:
		sheets, err = readXLS(data)
	case model.FormatCSV:
		sheets, err = readCSV(data)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, newParseError(fileName, format, err)
	}
	if len(sheets) == 0 {
		return nil, newParseError(fileName, format, ErrNoSheets)
	}

	wb := &model.ParsedWorkbook{
		SourceName: fileName,
		SizeBytes:  int64(len(data)),
		Format:     format,
		SheetNames: make([]string, 0, len(sheets)),
		Sheets:     make(map[string]model.ParsedSheet, len(sheets)),
	}
	for _, s := range sheets {
		if _, dup := wb.Sheets[s.name]; dup {
			continue
		}
		wb.SheetNames = append(wb.SheetNames, s.name)
		wb.Sheets[s.name] = buildSheet(s.rows)
	}
	return wb, nil
}

// ParseReader reads r fully and parses it.
func ParseReader(r io.Reader, fileName string) (*model.ParsedWorkbook, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, newParseError(fileName, "", fmt.Errorf("read upload: %w", err))
	}
	return Parse(buf.Bytes(), fileName)
}

// buildSheet header is the first non-blank row; trailing blank rows are
// not counted.
func buildSheet(rows [][]string) model.ParsedSheet {
	start := 0
	for start < len(rows) && !rowHasValue(rows[start]) {
		start++
	}
	end := len(rows)
	for end > start && !rowHasValue(rows[end-1]) {
		end--
	}
	rows = rows[start:end]

	if len(rows) == 0 {
		return model.ParsedSheet{
			Headers:  []string{},
			RowCount: 0,
			HasData:  false,
		}
	}

	headers := make([]string, 0, len(rows[0]))
	for _, cell := range rows[0] {
		if cell != "" {
			headers = append(headers, cell)
		}
	}

	hasData := false
	for _, row := range rows[1:] {
		if rowHasValue(row) {
			hasData = true
			break
		}
	}

	return model.ParsedSheet{
		Headers:  headers,
		RowCount: len(rows),
		HasData:  hasData,
	}
}
