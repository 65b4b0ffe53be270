package exporter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"templatecheck/internal/model"
)

// Sheet names of the exported report workbook
const (
	SheetSummary = "Summary"
	SheetSheets  = "Sheets"
	SheetIssues  = "Issues"
)

var (
	sheetsHeader = []string{"Sheet", "Expected Columns", "Found Columns", "Matching Columns", "Missing Columns", "Extra Columns", "Has Data"}
	issuesHeader = []string{"Severity", "Message"}
)

// ExportOptions 导出选项
type ExportOptions struct {
	Classification *model.ClassificationResult
	UploadMode     model.UploadMode
}

// Export 将校验报告导出为 Excel
func Export(report *model.ValidationReport, opts ExportOptions) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("no validation report to export")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetSheets, SheetIssues} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []func() error{
		func() error { return writeSummary(f, report, opts, headerStyle) },
		func() error { return writeSheets(f, report, headerStyle) },
		func() error { return writeIssues(f, report, headerStyle) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write exports the report straight into w.
func Write(w io.Writer, report *model.ValidationReport, opts ExportOptions) error {
	f, err := Export(report, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// FileName download name for the exported report of an upload
func FileName(uploaded string) string {
	base := uploaded
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "upload"
	}
	return base + "_validation.xlsx"
}

func writeSummary(f *excelize.File, report *model.ValidationReport, opts ExportOptions, style int) error {
	status := "Valid"
	if !report.IsValid {
		status = "Invalid"
	}
	rows := [][]interface{}{
		{"Field", "Value"},
		{"Uploaded File", report.UploadedFileName},
		{"Template", report.TemplateDisplayName},
		{"Template Type", string(report.TemplateID)},
		{"Template File", report.TemplateFileName},
		{"Status", status},
		{"Errors", len(report.Errors)},
		{"Warnings", len(report.Warnings)},
		{"Total Sheets", report.TotalSheets},
		{"Expected Sheets", report.ExpectedSheets},
		{"Matching Sheets", report.MatchingSheets},
	}
	if opts.UploadMode != "" {
		rows = append(rows, []interface{}{"Upload Mode", string(opts.UploadMode)})
	}
	if c := opts.Classification; c != nil {
		rows = append(rows,
			[]interface{}{"Detection Stage", string(c.Stage)},
			[]interface{}{"Confidence", string(c.ConfidenceTier)},
			[]interface{}{"Score", c.Score},
		)
	}
	rows = append(rows, []interface{}{"Summary", report.Summary()})

	if err := writeRows(f, SheetSummary, rows, style); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 60)
}

func writeSheets(f *excelize.File, report *model.ValidationReport, style int) error {
	names := make([]string, 0, len(report.SheetComparisons))
	for name := range report.SheetComparisons {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]interface{}{toRow(sheetsHeader)}
	for _, name := range names {
		cmp := report.SheetComparisons[name]
		hasData := "No"
		if cmp.HasData {
			hasData = "Yes"
		}
		rows = append(rows, []interface{}{
			name,
			cmp.ExpectedColumnCount,
			cmp.FoundColumnCount,
			cmp.MatchingColumnCount,
			strings.Join(cmp.MissingColumns, ", "),
			strings.Join(cmp.ExtraColumns, ", "),
			hasData,
		})
	}

	if err := writeRows(f, SheetSheets, rows, style); err != nil {
		return err
	}
	return f.SetColWidth(SheetSheets, "A", "G", 22)
}

func writeIssues(f *excelize.File, report *model.ValidationReport, style int) error {
	rows := [][]interface{}{toRow(issuesHeader)}
	for _, msg := range report.Errors {
		rows = append(rows, []interface{}{"error", msg})
	}
	for _, msg := range report.Warnings {
		rows = append(rows, []interface{}{"warning", msg})
	}

	if err := writeRows(f, SheetIssues, rows, style); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetIssues, "A", "A", 12); err != nil {
		return err
	}
	return f.SetColWidth(SheetIssues, "B", "B", 90)
}

// writeRows writes rows from A1 down; the first row gets the header style.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("写入 %s 第 %d 行失败: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, headerStyle)
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
