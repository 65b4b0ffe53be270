// Package testutil builds spreadsheet fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"templatecheck/internal/model"
)

// Sheet one worksheet fixture; Rows[0] is the header row
type Sheet struct {
	Name string
	Rows [][]any
}

// HeaderSheet sheet with a header row and, when data is set, one data row
// of ones.
func HeaderSheet(name string, withData bool, headers ...string) Sheet {
	header := make([]any, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	s := Sheet{Name: name, Rows: [][]any{header}}
	if withData {
		row := make([]any, 0, len(headers))
		for range headers {
			row = append(row, 1)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// BuildXLSX writes the sheets, in order, into an in-memory xlsx file.
func BuildXLSX(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	defaultSheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	for i, s := range sheets {
		if i == 0 {
			if err := wb.SetSheetName(defaultSheet, s.Name); err != nil {
				t.Fatalf("SetSheetName %s failed: %v", s.Name, err)
			}
		} else if _, err := wb.NewSheet(s.Name); err != nil {
			t.Fatalf("NewSheet %s failed: %v", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName failed: %v", err)
			}
			values := append([]any(nil), row...)
			if err := wb.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow %s failed: %v", s.Name, err)
			}
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

// BuildCSV encodes rows as CSV.
func BuildCSV(t testing.TB, rows ...[]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("csv WriteAll failed: %v", err)
	}
	return buf.Bytes()
}

// Workbook builds a ParsedWorkbook directly from sheet fixtures without
// encoding them; a sheet has data when it has more than one row.
func Workbook(name string, sheets ...Sheet) *model.ParsedWorkbook {
	wb := &model.ParsedWorkbook{
		SourceName: name,
		Format:     model.FormatXLSX,
		SheetNames: []string{},
		Sheets:     map[string]model.ParsedSheet{},
	}
	for _, s := range sheets {
		headers := []string{}
		if len(s.Rows) > 0 {
			for _, v := range s.Rows[0] {
				if h, ok := v.(string); ok && h != "" {
					headers = append(headers, h)
				}
			}
		}
		wb.SheetNames = append(wb.SheetNames, s.Name)
		wb.Sheets[s.Name] = model.ParsedSheet{
			Headers:  headers,
			RowCount: len(s.Rows),
			HasData:  len(s.Rows) > 1,
		}
	}
	return wb
}

// Columns n distinct header names col1..coln
func Columns(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "col" + strconv.Itoa(i+1)
	}
	return out
}
