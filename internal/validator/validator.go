// Package validator compares the sheet and column structure of a workbook
// against a reference template.
package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"templatecheck/internal/metrics"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
	"templatecheck/internal/templates"
)

// ReferenceLoader yields the parsed master file of a template;
// *templates.Registry and *templates.CachedLoader implement it.
type ReferenceLoader interface {
	LoadReferenceStructure(ctx context.Context, id model.TemplateID) (*model.ParsedWorkbook, error)
}

// Validator 结构校验器
type Validator struct {
	loader ReferenceLoader
	logger *zap.Logger
}

// New 创建校验器; a nil logger disables logging.
func New(loader ReferenceLoader, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		loader: loader,
		logger: logger,
	}
}

// Validate loads the reference structure of id and diffs wb against it.
// Structural mismatches land in the report; the returned error is only set
// when the template is unknown or its reference cannot be loaded.
func (v *Validator) Validate(ctx context.Context, wb *model.ParsedWorkbook, id model.TemplateID) (*model.ValidationReport, error) {
	started := time.Now()

	def, err := templates.Lookup(id)
	if err != nil {
		return nil, err
	}
	reference, err := v.loader.LoadReferenceStructure(ctx, id)
	if err != nil {
		return nil, err
	}

	report := Compare(wb, reference, def)
	metrics.RecordValidation(string(id), report.IsValid, started)

	v.logger.Debug("validation finished",
		zap.String("template", string(id)),
		zap.String("file", report.UploadedFileName),
		zap.Bool("valid", report.IsValid),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// Compare diffs wb against an already loaded reference structure.
func Compare(wb, reference *model.ParsedWorkbook, def model.TemplateDefinition) *model.ValidationReport {
	if wb == nil {
		wb = &model.ParsedWorkbook{}
	}
	if reference == nil {
		reference = &model.ParsedWorkbook{}
	}

	report := &model.ValidationReport{
		TemplateID:          def.ID,
		TemplateDisplayName: def.DisplayName,
		TemplateFileName:    def.FileName,
		UploadedFileName:    wb.SourceName,
		Errors:              []string{},
		Warnings:            []string{},
		SheetComparisons:    map[string]model.SheetComparison{},
		TotalSheets:         len(wb.SheetNames),
		ExpectedSheets:      len(reference.SheetNames),
	}

	for _, name := range reference.SheetNames {
		refSheet := reference.Sheets[name]
		sheet, ok := wb.Sheet(name)
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("Missing required sheet: \"%s\"", name))
			continue
		}
		report.MatchingSheets++

		cmp := compareColumns(refSheet.Headers, sheet)
		report.SheetComparisons[name] = cmp

		if len(cmp.MissingColumns) > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Sheet \"%s\" is missing required columns: %s",
				name, strings.Join(cmp.MissingColumns, ", ")))
		}
		if len(cmp.ExtraColumns) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Sheet \"%s\" has additional columns not in template: %s",
				name, strings.Join(cmp.ExtraColumns, ", ")))
		}
		if !sheet.HasData {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Sheet \"%s\" appears to have no data rows", name))
		}
	}

	var extra []string
	for _, name := range wb.SheetNames {
		if !reference.HasSheet(name) {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Found additional sheets not in template: %s",
			strings.Join(extra, ", ")))
	}

	report.IsValid = len(report.Errors) == 0
	return report
}

// compareColumns matches headers by normalized form, reporting the uploaded text.
func compareColumns(expected []string, sheet model.ParsedSheet) model.SheetComparison {
	found := make(map[string]struct{}, len(sheet.Headers))
	for _, h := range sheet.Headers {
		found[parser.NormalizeHeader(h)] = struct{}{}
	}
	want := make(map[string]struct{}, len(expected))
	for _, h := range expected {
		want[parser.NormalizeHeader(h)] = struct{}{}
	}

	cmp := model.SheetComparison{
		ExpectedColumnCount: len(expected),
		FoundColumnCount:    len(sheet.Headers),
		MissingColumns:      []string{},
		ExtraColumns:        []string{},
		HasData:             sheet.HasData,
	}
	for _, h := range expected {
		if _, ok := found[parser.NormalizeHeader(h)]; ok {
			cmp.MatchingColumnCount++
		} else {
			cmp.MissingColumns = append(cmp.MissingColumns, h)
		}
	}
	for _, h := range sheet.Headers {
		if _, ok := want[parser.NormalizeHeader(h)]; !ok {
			cmp.ExtraColumns = append(cmp.ExtraColumns, h)
		}
	}
	return cmp
}
