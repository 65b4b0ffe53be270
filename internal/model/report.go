package model

import "fmt"

// SheetComparison column-level diff of one sheet present in both files
type SheetComparison struct {
	ExpectedColumnCount int      `json:"expectedColumns"`
	FoundColumnCount    int      `json:"foundColumns"`
	MatchingColumnCount int      `json:"matchingColumns"`
	MissingColumns      []string `json:"missingColumns"`
	ExtraColumns        []string `json:"extraColumns"`
	HasData             bool     `json:"hasData"`
}

// ValidationReport structural diff of an upload against a template
type ValidationReport struct {
	IsValid             bool       `json:"isValid"`
	TemplateID          TemplateID `json:"templateType"`
	TemplateDisplayName string     `json:"templateName"`
	TemplateFileName    string     `json:"templateFileName"`
	UploadedFileName    string     `json:"uploadedFileName"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	SheetComparisons map[string]SheetComparison `json:"sheetComparison"`
	TotalSheets      int                        `json:"totalSheets"`
	ExpectedSheets   int                        `json:"expectedSheets"`
	MatchingSheets   int                        `json:"matchingSheets"`
}

// Summary one-line outcome for display
func (r *ValidationReport) Summary() string {
	if r == nil {
		return "No validation results"
	}
	if r.IsValid {
		return fmt.Sprintf("File matches %s template perfectly", r.TemplateDisplayName)
	}
	return fmt.Sprintf("File does not match %s template\n%d error(s), %d warning(s)",
		r.TemplateDisplayName, len(r.Errors), len(r.Warnings))
}
