package model

// ParsedSheet one worksheet reduced to its header row and data presence
type ParsedSheet struct {
	Headers  []string `json:"headers"`
	RowCount int      `json:"rowCount"` // rows including the header row
	HasData  bool     `json:"hasData"`
}

// WorkbookFormat decoder that produced a workbook
type WorkbookFormat string

const (
	FormatXLSX WorkbookFormat = "xlsx"
	FormatXLS  WorkbookFormat = "xls"
	FormatCSV  WorkbookFormat = "csv"
)

// ParsedWorkbook normalized view of an uploaded or reference file
type ParsedWorkbook struct {
	SourceName string                 `json:"sourceName"`
	SizeBytes  int64                  `json:"sizeBytes,omitempty"`
	Format     WorkbookFormat         `json:"format"`
	SheetNames []string               `json:"sheetNames"` // tab order
	Sheets     map[string]ParsedSheet `json:"sheets"`
}

// Sheet returns the named sheet; names are matched exactly.
func (w *ParsedWorkbook) Sheet(name string) (ParsedSheet, bool) {
	if w == nil {
		return ParsedSheet{}, false
	}
	s, ok := w.Sheets[name]
	return s, ok
}

// HasSheet reports whether a sheet with exactly this name exists.
func (w *ParsedWorkbook) HasSheet(name string) bool {
	_, ok := w.Sheet(name)
	return ok
}

// TotalHeaders sums header cells over all sheets
func (w *ParsedWorkbook) TotalHeaders() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, s := range w.Sheets {
		n += len(s.Headers)
	}
	return n
}

// AllHeaders flattens headers of every sheet in tab order
func (w *ParsedWorkbook) AllHeaders() []string {
	if w == nil {
		return []string{}
	}
	out := make([]string, 0, w.TotalHeaders())
	for _, name := range w.SheetNames {
		out = append(out, w.Sheets[name].Headers...)
	}
	return out
}
