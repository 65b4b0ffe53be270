package model

// TemplateID identifier of a registered reference template
type TemplateID string

const (
	TemplateSimplified TemplateID = "simplified"
	TemplateStandard   TemplateID = "standard"
	TemplateDetailed   TemplateID = "detailed"

	// TemplateUnknown is never registered; it only appears in classifications.
	TemplateUnknown TemplateID = "unknown"
)

// ContentPattern distinctive normalized tokens used by content detection
type ContentPattern struct {
	UniqueHeaders []string `json:"uniqueHeaders"`
	Keywords      []string `json:"keywords"`
}

// Signals total number of signals the pattern can produce
func (p ContentPattern) Signals() int {
	return len(p.UniqueHeaders) + len(p.Keywords)
}

// TemplateDefinition a registered reference template
type TemplateDefinition struct {
	ID            TemplateID     `json:"id"`
	DisplayName   string         `json:"name"`
	FileName      string         `json:"fileName"`
	ReferencePath string         `json:"path"`
	Pattern       ContentPattern `json:"-"`
}

// ConfidenceTier coarse strength bucket of a classification
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceNone   ConfidenceTier = "none"
)

// DetectionStage cascade stage that produced a classification
type DetectionStage string

const (
	StageFilename    DetectionStage = "filename"
	StageContent     DetectionStage = "content"
	StageColumnCount DetectionStage = "column_count"
	StageNone        DetectionStage = "none"
	// StageProvided marks a template chosen by the caller, not detected.
	StageProvided DetectionStage = "provided"
)

// ClassificationResult output of template detection
type ClassificationResult struct {
	TemplateID     TemplateID     `json:"type"`
	DisplayName    string         `json:"name"`
	Score          float64        `json:"score"`
	ConfidenceTier ConfidenceTier `json:"confidence"`
	Stage          DetectionStage `json:"stage"`
}

// UnknownClassification the result when no stage applies
func UnknownClassification() ClassificationResult {
	return ClassificationResult{
		TemplateID:     TemplateUnknown,
		DisplayName:    "Unknown Template",
		Score:          0,
		ConfidenceTier: ConfidenceNone,
		Stage:          StageNone,
	}
}

// IsUnknown reports whether no template was identified
func (c ClassificationResult) IsUnknown() bool {
	return c.TemplateID == TemplateUnknown || c.ConfidenceTier == ConfidenceNone
}
